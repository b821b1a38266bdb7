package channel

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifiiotd/connectivity"
	"github.com/the-lightning-land/wifiiotd/hotspot"
	"github.com/the-lightning-land/wifiiotd/network"
	"github.com/the-lightning-land/wifiiotd/wifidb"
)

type fakeConnector struct {
	outcome     hotspot.Outcome
	configs     []hotspot.Configuration
	association *network.Association
	prefixes    []string
	removeErr   error
	entries     []*wifidb.ConnectEntry
	limit       int
}

func (c *fakeConnector) Connect(ctx context.Context, config hotspot.Configuration) hotspot.Outcome {
	c.configs = append(c.configs, config)
	return c.outcome
}

func (c *fakeConnector) Disconnect(ctx context.Context) hotspot.Outcome {
	if c.association == nil {
		return hotspot.NotAssociated()
	}

	c.association = nil

	return hotspot.Success()
}

func (c *fakeConnector) Association(ctx context.Context) (*network.Association, error) {
	return c.association, nil
}

func (c *fakeConnector) RemoveByPrefix(ctx context.Context, prefix string) (bool, error) {
	c.prefixes = append(c.prefixes, prefix)
	if c.removeErr != nil {
		return false, c.removeErr
	}

	return prefix != "", nil
}

func (c *fakeConnector) History(limit int) ([]*wifidb.ConnectEntry, error) {
	c.limit = limit
	return c.entries, nil
}

type fakeReporter struct {
	state connectivity.State
}

func (r *fakeReporter) CurrentState(ctx context.Context) connectivity.State {
	return r.state
}

func (r *fakeReporter) WaitForStateChange(ctx context.Context, state connectivity.State) bool {
	return r.state != state
}

func newDispatcher(c *fakeConnector, state connectivity.State) *Dispatcher {
	return NewDispatcher(&Config{
		Connector: c,
		Reporter:  &fakeReporter{state: state},
		Interface: "wlan0",
		Addrs: func(name string) ([]net.Addr, error) {
			if name != "wlan0" {
				return nil, errors.New("no such interface")
			}

			return []net.Addr{
				&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
				&net.IPNet{IP: net.ParseIP("192.168.4.2"), Mask: net.CIDRMask(24, 32)},
			}, nil
		},
	})
}

func call(method string, args string) Call {
	c := Call{Method: method}
	if args != "" {
		c.Arguments = json.RawMessage(args)
	}

	return c
}

func TestConnectArguments(t *testing.T) {
	c := &fakeConnector{outcome: hotspot.Success()}
	d := newDispatcher(c, connectivity.Offline)

	res := d.Dispatch(context.Background(), call("connect",
		`{"ssid":"Home","bssid":null,"password":"correct horse","join_once":true,"security":"wpa"}`))

	assert.Equal(t, Ok(true), res)
	require.Len(t, c.configs, 1)
	assert.Equal(t, "Home", c.configs[0].SSID)
	require.NotNil(t, c.configs[0].Passphrase)
	assert.Equal(t, "correct horse", *c.configs[0].Passphrase)
	assert.True(t, c.configs[0].JoinOnce)
	assert.Equal(t, hotspot.SecurityWPA, c.configs[0].Security)
}

func TestConnectDefaults(t *testing.T) {
	c := &fakeConnector{outcome: hotspot.Success()}
	d := newDispatcher(c, connectivity.Offline)

	d.Dispatch(context.Background(), call("connect", `{"ssid":"Office"}`))

	require.Len(t, c.configs, 1)
	assert.Nil(t, c.configs[0].Passphrase)
	assert.False(t, c.configs[0].JoinOnce)
	assert.Equal(t, hotspot.SecurityOpen, c.configs[0].Security)
}

func TestConnectDeliversFailure(t *testing.T) {
	c := &fakeConnector{
		outcome: hotspot.Fail(hotspot.NetworkUnavailable, "Connected to different network", "Expected: Home, Connected to: Office"),
	}
	d := newDispatcher(c, connectivity.Offline)

	res := d.Dispatch(context.Background(), call("connect", `{"ssid":"Home"}`))

	require.NotNil(t, res.Error)
	assert.Equal(t, "NETWORK_UNAVAILABLE", res.Error.Code)
	assert.Equal(t, "Connected to different network", res.Error.Message)
	assert.Equal(t, "Expected: Home, Connected to: Office", res.Error.Details)
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		call Call
	}{
		{name: "not an object", call: call("connect", `["Home"]`)},
		{name: "ssid not a string", call: call("connect", `{"ssid":42}`)},
		{name: "join once not a bool", call: call("connect", `{"ssid":"Home","join_once":"yes"}`)},
		{name: "prefix not a string", call: call("removeWifiNetwork", `{"prefix_ssid":true}`)},
		{name: "setter value wrong type", call: call("setSSIDHidden", `{"hidden":"no"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeConnector{outcome: hotspot.Success()}
			res := newDispatcher(c, connectivity.Offline).Dispatch(context.Background(), tt.call)

			require.NotNil(t, res.Error)
			assert.Equal(t, InvalidArguments, res.Error.Code)
			assert.Empty(t, c.configs)
		})
	}
}

func TestDisconnect(t *testing.T) {
	c := &fakeConnector{}
	d := newDispatcher(c, connectivity.Offline)

	res := d.Dispatch(context.Background(), call("disconnect", ""))
	require.NotNil(t, res.Error)
	assert.Equal(t, "NOT_CONNECTED", res.Error.Code)
	assert.Equal(t, "Not connected to any WiFi network", res.Error.Message)

	c.association = &network.Association{SSID: "Home"}
	assert.Equal(t, Ok(true), d.Dispatch(context.Background(), call("disconnect", "")))
}

func TestQueries(t *testing.T) {
	associated := &fakeConnector{association: &network.Association{SSID: "Home", BSSID: "aa:bb:cc:dd:ee:01"}}
	unassociated := &fakeConnector{}

	tests := []struct {
		name      string
		connector *fakeConnector
		state     connectivity.State
		method    string
		expected  Response
	}{
		{name: "ssid", connector: associated, state: connectivity.Online, method: "getSSID", expected: Ok("Home")},
		{name: "no ssid", connector: unassociated, method: "getSSID", expected: Ok(nil)},
		{name: "bssid", connector: associated, state: connectivity.Online, method: "getBSSID", expected: Ok("aa:bb:cc:dd:ee:01")},
		{name: "no bssid", connector: unassociated, method: "getBSSID", expected: Ok(nil)},
		{name: "connected", connector: associated, state: connectivity.Online, method: "isConnected", expected: Ok(true)},
		{name: "not connected", connector: unassociated, method: "isConnected", expected: Ok(false)},
		{name: "enabled", connector: associated, state: connectivity.Online, method: "isEnabled", expected: Ok(true)},
		{name: "enabled unknown", connector: unassociated, method: "isEnabled", expected: Ok(nil)},
		{name: "ip", connector: unassociated, method: "getIP", expected: Ok("192.168.4.2")},
		{name: "force wifi", connector: unassociated, method: "forceWifiUsage", expected: Ok(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(tt.connector, tt.state)
			assert.Equal(t, tt.expected, d.Dispatch(context.Background(), call(tt.method, "")))
		})
	}
}

func TestGetIPWithoutInterface(t *testing.T) {
	d := NewDispatcher(&Config{
		Connector: &fakeConnector{},
		Reporter:  &fakeReporter{},
		Interface: "wlan1",
		Addrs: func(name string) ([]net.Addr, error) {
			return []net.Addr{&net.IPNet{IP: net.ParseIP("fe80::1")}}, nil
		},
	})

	assert.Equal(t, Ok(nil), d.Dispatch(context.Background(), call("getIP", "")))
}

func TestRemoveWifiNetwork(t *testing.T) {
	c := &fakeConnector{}
	d := newDispatcher(c, connectivity.Offline)

	assert.Equal(t, Ok(nil), d.Dispatch(context.Background(), call("removeWifiNetwork", "")))
	assert.Empty(t, c.prefixes)

	assert.Equal(t, Ok(nil), d.Dispatch(context.Background(), call("removeWifiNetwork", `{"prefix_ssid":""}`)))
	assert.Equal(t, Ok(true), d.Dispatch(context.Background(), call("removeWifiNetwork", `{"prefix_ssid":"iot-"}`)))
	assert.Equal(t, []string{"", "iot-"}, c.prefixes)

	c.removeErr = errors.New("bus is gone")
	res := d.Dispatch(context.Background(), call("removeWifiNetwork", `{"prefix_ssid":"iot-"}`))
	require.NotNil(t, res.Error)
	assert.Equal(t, "CONFIGURATION_FAILED", res.Error.Code)
}

func TestGetConnectHistory(t *testing.T) {
	c := &fakeConnector{}
	d := newDispatcher(c, connectivity.Offline)

	assert.Equal(t, Ok([]interface{}{}), d.Dispatch(context.Background(), call("getConnectHistory", "")))
	assert.Equal(t, 0, c.limit)

	c.entries = []*wifidb.ConnectEntry{{Id: "1", SSID: "Home", Code: "SUCCESS"}}
	res := d.Dispatch(context.Background(), call("getConnectHistory", `{"limit":5}`))
	assert.Equal(t, Ok(c.entries), res)
	assert.Equal(t, 5, c.limit)
}

func TestNotImplemented(t *testing.T) {
	tests := []struct {
		method string
		args   string
	}{
		{method: "loadWifiList"},
		{method: "findAndConnect", args: `{"ssid":"Home"}`},
		{method: "getCurrentSignalStrength"},
		{method: "getFrequency"},
		{method: "isRegisteredWifiNetwork"},
		{method: "isWiFiAPEnabled"},
		{method: "getWiFiAPState"},
		{method: "getClientList"},
		{method: "getWiFiAPSSID"},
		{method: "isSSIDHidden"},
		{method: "getWiFiAPPreSharedKey"},
		{method: "setEnabled", args: `{"state":true}`},
		{method: "setWiFiAPEnabled", args: `{"state":false}`},
		{method: "setWiFiAPSSID", args: `{"ssid":"Hotspot"}`},
		{method: "setSSIDHidden", args: `{"hidden":true}`},
		{method: "setWiFiAPPreSharedKey", args: `{"preSharedKey":"secret"}`},
		{method: "doesNotExist"},
		{method: ""},
	}

	d := newDispatcher(&fakeConnector{}, connectivity.Offline)

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, Unimplemented(), d.Dispatch(context.Background(), call(tt.method, tt.args)))
		})
	}
}

func TestSettersWithoutValue(t *testing.T) {
	d := newDispatcher(&fakeConnector{}, connectivity.Offline)

	for _, method := range []string{"setEnabled", "setWiFiAPEnabled", "setWiFiAPSSID", "setSSIDHidden", "setWiFiAPPreSharedKey"} {
		assert.Equal(t, Ok(nil), d.Dispatch(context.Background(), call(method, `{}`)), method)
	}
}

func TestMethods(t *testing.T) {
	d := newDispatcher(&fakeConnector{}, connectivity.Offline)

	methods := d.Methods()
	assert.Contains(t, methods, "connect")
	assert.Contains(t, methods, "setWiFiAPPreSharedKey")
	assert.Len(t, methods, 26)
}
