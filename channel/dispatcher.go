package channel

import (
	"context"
	"net"

	"github.com/the-lightning-land/wifiiotd/connectivity"
	"github.com/the-lightning-land/wifiiotd/hotspot"
	"github.com/the-lightning-land/wifiiotd/network"
	"github.com/the-lightning-land/wifiiotd/wifidb"
)

// InvalidArguments is the error code of calls whose arguments could not be read.
const InvalidArguments = "INVALID_ARGUMENTS"

// Connector runs the operations that touch the platform.
type Connector interface {
	Connect(ctx context.Context, config hotspot.Configuration) hotspot.Outcome
	Disconnect(ctx context.Context) hotspot.Outcome
	Association(ctx context.Context) (*network.Association, error)
	RemoveByPrefix(ctx context.Context, prefix string) (bool, error)
	History(limit int) ([]*wifidb.ConnectEntry, error)
}

type Config struct {
	Connector Connector
	Reporter  connectivity.Reporter
	// Interface is the wireless interface whose address getIP reports.
	Interface string
	// Addrs looks up the addresses of an interface, defaults to the
	// addresses of the operating system.
	Addrs  func(name string) ([]net.Addr, error)
	Logger Logger
}

type handler func(ctx context.Context, args arguments) Response

// Dispatcher routes calls by method name.
type Dispatcher struct {
	connector Connector
	reporter  connectivity.Reporter
	iface     string
	addrs     func(name string) ([]net.Addr, error)
	log       Logger
	handlers  map[string]handler
}

func NewDispatcher(config *Config) *Dispatcher {
	d := &Dispatcher{
		connector: config.Connector,
		reporter:  config.Reporter,
		iface:     config.Interface,
		addrs:     config.Addrs,
	}

	if config.Logger != nil {
		d.log = config.Logger
	} else {
		d.log = noopLogger{}
	}

	if d.addrs == nil {
		d.addrs = interfaceAddrs
	}

	d.handlers = map[string]handler{
		"connect":           d.handleConnect,
		"disconnect":        d.handleDisconnect,
		"isConnected":       d.handleIsConnected,
		"isEnabled":         d.handleIsEnabled,
		"setEnabled":        d.setter("state", argBool),
		"getSSID":           d.handleGetSSID,
		"getBSSID":          d.handleGetBSSID,
		"getIP":             d.handleGetIP,
		"forceWifiUsage":    d.handleForceWifiUsage,
		"removeWifiNetwork": d.handleRemoveWifiNetwork,
		"getConnectHistory": d.handleGetConnectHistory,

		"loadWifiList":             unimplemented,
		"findAndConnect":           unimplemented,
		"getCurrentSignalStrength": unimplemented,
		"getFrequency":             unimplemented,
		"isRegisteredWifiNetwork":  unimplemented,

		"isWiFiAPEnabled":       unimplemented,
		"setWiFiAPEnabled":      d.setter("state", argBool),
		"getWiFiAPState":        unimplemented,
		"getClientList":         unimplemented,
		"getWiFiAPSSID":         unimplemented,
		"setWiFiAPSSID":         d.setter("ssid", argString),
		"isSSIDHidden":          unimplemented,
		"setSSIDHidden":         d.setter("hidden", argBool),
		"getWiFiAPPreSharedKey": unimplemented,
		"setWiFiAPPreSharedKey": d.setter("preSharedKey", argString),
	}

	return d
}

// Methods lists every method name the dispatcher knows.
func (d *Dispatcher) Methods() []string {
	methods := make([]string, 0, len(d.handlers))
	for method := range d.handlers {
		methods = append(methods, method)
	}

	return methods
}

// Dispatch answers a call. Unknown methods are not implemented.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) Response {
	h, ok := d.handlers[call.Method]
	if !ok {
		d.log.Warnf("Method %v is not implemented", call.Method)
		return Unimplemented()
	}

	args, err := parseArguments(call.Arguments)
	if err != nil {
		d.log.Warnf("Could not read arguments of %v: %v", call.Method, err)
		return Failed(InvalidArguments, "Invalid arguments", err.Error())
	}

	d.log.Debugf("Dispatching %v", call.Method)

	return h(ctx, args)
}

func unimplemented(ctx context.Context, args arguments) Response {
	return Unimplemented()
}

func interfaceAddrs(name string) ([]net.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}

	return iface.Addrs()
}
