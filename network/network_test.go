package network

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifiiotd/hotspot"
	"github.com/the-lightning-land/wifiiotd/network/wpa"
)

func passphrase(s string) *string {
	return &s
}

func newTestMock(t *testing.T) *MockNetwork {
	t.Helper()

	n := NewMockNetwork(&MockConfig{
		Hotspots: []MockHotspot{
			{SSID: "Home", BSSID: "aa:bb:cc:dd:ee:01", Security: hotspot.SecurityWPA, Passphrase: "correct horse"},
			{SSID: "Cafe", BSSID: "aa:bb:cc:dd:ee:02", Security: hotspot.SecurityOpen},
			{SSID: "Legacy", BSSID: "aa:bb:cc:dd:ee:03", Security: hotspot.SecurityWEP, Passphrase: "abcde"},
		},
	})
	require.NoError(t, n.Start())

	return n
}

func TestMockApply(t *testing.T) {
	tests := []struct {
		name   string
		config hotspot.Configuration
		code   hotspot.ErrorCode
		ssid   string
	}{
		{
			name:   "wpa success",
			config: hotspot.Configuration{SSID: "Home", Security: hotspot.SecurityWPA, Passphrase: passphrase("correct horse")},
			ssid:   "Home",
		},
		{
			name:   "open success",
			config: hotspot.Configuration{SSID: "Cafe"},
			ssid:   "Cafe",
		},
		{
			name:   "wrong wpa passphrase",
			config: hotspot.Configuration{SSID: "Home", Security: hotspot.SecurityWPA, Passphrase: passphrase("battery staple")},
			code:   hotspot.ErrorInvalidWPAPassphrase,
		},
		{
			name:   "short wpa passphrase",
			config: hotspot.Configuration{SSID: "Home", Security: hotspot.SecurityWPA, Passphrase: passphrase("short")},
			code:   hotspot.ErrorInvalidWPAPassphrase,
		},
		{
			name:   "wrong wep key",
			config: hotspot.Configuration{SSID: "Legacy", Security: hotspot.SecurityWEP, Passphrase: passphrase("edcba")},
			code:   hotspot.ErrorInvalidWEPPassphrase,
		},
		{
			name:   "security mismatch",
			config: hotspot.Configuration{SSID: "Cafe", Security: hotspot.SecurityWPA, Passphrase: passphrase("whatever1")},
			code:   hotspot.ErrorInvalid,
		},
		{
			name:   "ssid too long",
			config: hotspot.Configuration{SSID: "this ssid is way longer than thirty two bytes"},
			code:   hotspot.ErrorInvalidSSID,
		},
		{
			name:   "out of range",
			config: hotspot.Configuration{SSID: "Elsewhere"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestMock(t)

			err := n.Apply(context.Background(), tt.config)
			if tt.code != 0 {
				require.NotNil(t, err)
				assert.Equal(t, tt.code, err.Code)
				return
			}

			require.Nil(t, err)

			current, cerr := n.Current(context.Background())
			require.NoError(t, cerr)

			if tt.ssid == "" {
				assert.Nil(t, current)
				return
			}

			require.NotNil(t, current)
			assert.Equal(t, tt.ssid, current.SSID)
		})
	}
}

func TestMockAlreadyAssociated(t *testing.T) {
	n := newTestMock(t)

	require.Nil(t, n.Apply(context.Background(), hotspot.Configuration{SSID: "Cafe"}))

	err := n.Apply(context.Background(), hotspot.Configuration{SSID: "Cafe"})
	require.NotNil(t, err)
	assert.Equal(t, hotspot.ErrorAlreadyAssociated, err.Code)
}

func TestMockJoinOnceIsNotRemembered(t *testing.T) {
	n := newTestMock(t)
	ctx := context.Background()

	require.Nil(t, n.Apply(ctx, hotspot.Configuration{SSID: "Cafe", JoinOnce: true}))
	require.Nil(t, n.Apply(ctx, hotspot.Configuration{SSID: "Home", Security: hotspot.SecurityWPA, Passphrase: passphrase("correct horse")}))

	ssids, err := n.ConfiguredSSIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Home"}, ssids)

	require.NoError(t, n.RemoveConfiguration(ctx, "Home"))

	current, err := n.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	ssids, err = n.ConfiguredSSIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ssids)
}

func TestMockPlatformToggles(t *testing.T) {
	ctx := context.Background()
	config := hotspot.Configuration{SSID: "Cafe"}

	n := newTestMock(t)
	n.SetUserDenied(true)
	assert.Equal(t, hotspot.ErrorUserDenied, n.Apply(ctx, config).Code)

	n = newTestMock(t)
	n.SetForeground(false)
	assert.Equal(t, hotspot.ErrorApplicationIsNotInForeground, n.Apply(ctx, config).Code)

	n = newTestMock(t)
	n.InjectError(hotspot.NewPlatformError(42, "Request timed out"))
	assert.Equal(t, hotspot.ErrorCode(42), n.Apply(ctx, config).Code)
	assert.Nil(t, n.Apply(ctx, config))

	n = NewMockNetwork(&MockConfig{})
	assert.Equal(t, hotspot.ErrorSystemConfiguration, n.Apply(ctx, config).Code)
	assert.True(t, n.Supported())
	assert.False(t, NewMockNetwork(&MockConfig{Unsupported: true}).Supported())
}

func TestMockDelayHonorsContext(t *testing.T) {
	n := NewMockNetwork(&MockConfig{Delay: time.Minute})
	require.NoError(t, n.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := n.Apply(ctx, hotspot.Configuration{SSID: "Cafe"})
	require.NotNil(t, err)
	assert.Equal(t, hotspot.ErrorPending, err.Code)
}

func TestMapCallError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		security hotspot.SecurityMode
		code     hotspot.ErrorCode
	}{
		{
			name:     "invalid psk",
			err:      dbus.Error{Name: wpa.ErrInvalidArgs, Body: []interface{}{"invalid message format"}},
			security: hotspot.SecurityWPA,
			code:     hotspot.ErrorInvalidWPAPassphrase,
		},
		{
			name:     "invalid wep key wrapped",
			err:      goerrors.WrapPrefix(dbus.Error{Name: wpa.ErrInvalidArgs}, "could not add network", 0),
			security: hotspot.SecurityWEP,
			code:     hotspot.ErrorInvalidWEPPassphrase,
		},
		{
			name: "invalid open network",
			err:  dbus.Error{Name: wpa.ErrInvalidArgs},
			code: hotspot.ErrorInvalid,
		},
		{
			name: "unknown interface",
			err:  dbus.Error{Name: wpa.ErrInterfaceUnknown},
			code: hotspot.ErrorSystemConfiguration,
		},
		{
			name: "access denied",
			err:  &dbus.Error{Name: "org.freedesktop.DBus.Error.AccessDenied"},
			code: hotspot.ErrorUserDenied,
		},
		{
			name: "plain error",
			err:  goerrors.New("connection reset"),
			code: hotspot.ErrorInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, mapCallError(tt.err, tt.security).Code)
		})
	}
}

func TestMapDisconnectReason(t *testing.T) {
	assert.Equal(t, hotspot.ErrorInvalidWPAPassphrase, mapDisconnectReason(15, hotspot.SecurityWPA).Code)
	assert.Equal(t, hotspot.ErrorInvalidWPAPassphrase, mapDisconnectReason(-2, hotspot.SecurityWPA).Code)
	assert.Equal(t, hotspot.ErrorInvalidWEPPassphrase, mapDisconnectReason(23, hotspot.SecurityWEP).Code)

	err := mapDisconnectReason(3, hotspot.SecurityOpen)
	assert.False(t, err.Code.Known())
	assert.Equal(t, "disconnected with reason 3", err.Description)
}

func TestNetworkArgs(t *testing.T) {
	open := networkArgs(hotspot.Configuration{SSID: "Cafe"})
	assert.Equal(t, "NONE", open["key_mgmt"])
	assert.NotContains(t, open, "psk")

	wpaArgs := networkArgs(hotspot.Configuration{SSID: "Home", Security: hotspot.SecurityWPA, Passphrase: passphrase("correct horse")})
	assert.Equal(t, "correct horse", wpaArgs["psk"])
	assert.NotContains(t, wpaArgs, "key_mgmt")

	wep := networkArgs(hotspot.Configuration{SSID: "Legacy", Security: hotspot.SecurityWEP, Passphrase: passphrase("abcde")})
	assert.Equal(t, "abcde", wep["wep_key0"])
	assert.Equal(t, uint32(0), wep["wep_tx_keyidx"])
}

func changed(state string, reason ...int32) map[string]dbus.Variant {
	p := map[string]dbus.Variant{}

	if state != "" {
		p["State"] = dbus.MakeVariant(state)
	}

	if len(reason) > 0 {
		p["DisconnectReason"] = dbus.MakeVariant(reason[0])
	}

	return p
}

func TestWaitSettled(t *testing.T) {
	tests := []struct {
		name     string
		security hotspot.SecurityMode
		events   []map[string]dbus.Variant
		close    bool
		cancel   bool
		code     hotspot.ErrorCode
		settled  bool
	}{
		{
			name:    "completed",
			events:  []map[string]dbus.Variant{changed(wpa.StateAssociating), changed(wpa.StateCompleted)},
			settled: true,
		},
		{
			name:     "leaving the previous network",
			security: hotspot.SecurityWPA,
			events: []map[string]dbus.Variant{
				changed(wpa.StateDisconnected, -3),
				changed(wpa.StateScanning),
				changed(wpa.StateAssociating),
				changed(wpa.StateFourWayHandshake),
				changed(wpa.StateCompleted),
			},
			settled: true,
		},
		{
			name:     "reason reported before the state",
			security: hotspot.SecurityWPA,
			events: []map[string]dbus.Variant{
				changed("", 3),
				changed(wpa.StateDisconnected),
				changed(wpa.StateAssociated),
				changed(wpa.StateCompleted),
			},
			settled: true,
		},
		{
			name:     "four way handshake timeout",
			security: hotspot.SecurityWPA,
			events: []map[string]dbus.Variant{
				changed(wpa.StateAssociating),
				changed(wpa.StateFourWayHandshake),
				changed(wpa.StateDisconnected, 15),
			},
			code: hotspot.ErrorInvalidWPAPassphrase,
		},
		{
			name:     "local key exchange failure",
			security: hotspot.SecurityWEP,
			events: []map[string]dbus.Variant{
				changed(wpa.StateAssociating),
				changed("", -23),
				changed(wpa.StateInactive),
			},
			code: hotspot.ErrorInvalidWEPPassphrase,
		},
		{
			name:   "lost connection",
			events: []map[string]dbus.Variant{changed(wpa.StateScanning)},
			close:  true,
			code:   hotspot.ErrorInternal,
		},
		{
			name:   "cancelled",
			events: []map[string]dbus.Variant{changed(wpa.StateScanning)},
			cancel: true,
			code:   hotspot.ErrorPending,
		},
		{
			name:    "no verdict",
			events:  []map[string]dbus.Variant{changed(wpa.StateDisconnected, -3), changed(wpa.StateScanning)},
			settled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewWpaNetwork(&Config{Interface: "wlan0", SettleTimeout: 50 * time.Millisecond})

			changes := make(chan map[string]dbus.Variant, len(tt.events))
			for _, event := range tt.events {
				changes <- event
			}

			if tt.close {
				close(changes)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if tt.cancel {
				cancel()
			}

			err := n.waitSettled(ctx, &wpa.PropertiesChangedClient{Changes: changes, Cancel: func() {}}, tt.security)

			if tt.settled {
				assert.Nil(t, err)
				return
			}

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}
