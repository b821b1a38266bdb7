package channel

import (
	"context"
	"net"

	"github.com/the-lightning-land/wifiiotd/connectivity"
	"github.com/the-lightning-land/wifiiotd/hotspot"
)

type argKind int

const (
	argBool argKind = iota
	argString
)

func invalid(err error) Response {
	return Failed(InvalidArguments, "Invalid arguments", err.Error())
}

func (d *Dispatcher) handleConnect(ctx context.Context, args arguments) Response {
	ssid, err := args.String("ssid")
	if err != nil {
		return invalid(err)
	}

	// the bssid is accepted but the platform picks the access point itself
	if _, err := args.String("bssid"); err != nil {
		return invalid(err)
	}

	password, err := args.String("password")
	if err != nil {
		return invalid(err)
	}

	joinOnce, err := args.Bool("join_once")
	if err != nil {
		return invalid(err)
	}

	security, err := args.String("security")
	if err != nil {
		return invalid(err)
	}

	config := hotspot.Configuration{
		Passphrase: password,
	}

	if ssid != nil {
		config.SSID = *ssid
	}

	if joinOnce != nil {
		config.JoinOnce = *joinOnce
	}

	if security != nil {
		config.Security = hotspot.ParseSecurityMode(*security)
	}

	return FromOutcome(d.connector.Connect(ctx, config))
}

func (d *Dispatcher) handleDisconnect(ctx context.Context, args arguments) Response {
	return FromOutcome(d.connector.Disconnect(ctx))
}

func (d *Dispatcher) handleIsConnected(ctx context.Context, args arguments) Response {
	return Ok(d.reporter.CurrentState(ctx) == connectivity.Online)
}

func (d *Dispatcher) handleIsEnabled(ctx context.Context, args arguments) Response {
	if d.reporter.CurrentState(ctx) == connectivity.Online {
		return Ok(true)
	}

	return Ok(nil)
}

func (d *Dispatcher) handleGetSSID(ctx context.Context, args arguments) Response {
	association, err := d.connector.Association(ctx)
	if err != nil {
		d.log.Warnf("Could not get SSID: %v", err)
		return Ok(nil)
	}

	if association == nil {
		return Ok(nil)
	}

	return Ok(association.SSID)
}

func (d *Dispatcher) handleGetBSSID(ctx context.Context, args arguments) Response {
	association, err := d.connector.Association(ctx)
	if err != nil {
		d.log.Warnf("Could not get BSSID: %v", err)
		return Ok(nil)
	}

	if association == nil || association.BSSID == "" {
		return Ok(nil)
	}

	return Ok(association.BSSID)
}

func (d *Dispatcher) handleGetIP(ctx context.Context, args arguments) Response {
	addrs, err := d.addrs(d.iface)
	if err != nil {
		d.log.Warnf("Could not get addresses of %v: %v", d.iface, err)
		return Ok(nil)
	}

	for _, addr := range addrs {
		var ip net.IP

		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		}

		if ip4 := ip.To4(); ip4 != nil {
			return Ok(ip4.String())
		}
	}

	return Ok(nil)
}

func (d *Dispatcher) handleForceWifiUsage(ctx context.Context, args arguments) Response {
	useWifi, err := args.Bool("useWifi")
	if err != nil {
		return invalid(err)
	}

	if useWifi != nil && *useWifi {
		d.log.Infof("Forcing WiFi usage")
	} else {
		d.log.Infof("Not forcing WiFi usage")
	}

	return Ok(true)
}

func (d *Dispatcher) handleRemoveWifiNetwork(ctx context.Context, args arguments) Response {
	prefix, err := args.String("prefix_ssid")
	if err != nil {
		return invalid(err)
	}

	if prefix == nil {
		return Ok(nil)
	}

	removed, err := d.connector.RemoveByPrefix(ctx, *prefix)
	if err != nil {
		d.log.Errorf("Could not remove networks with prefix %v: %v", *prefix, err)
		return Failed(hotspot.ConfigurationFailed.String(), "Could not remove networks", err.Error())
	}

	if !removed {
		return Ok(nil)
	}

	return Ok(true)
}

func (d *Dispatcher) handleGetConnectHistory(ctx context.Context, args arguments) Response {
	limit, err := args.Int("limit")
	if err != nil {
		return invalid(err)
	}

	n := 0
	if limit != nil {
		n = *limit
	}

	entries, err := d.connector.History(n)
	if err != nil {
		d.log.Errorf("Could not read connect history: %v", err)
		return Failed(hotspot.UnknownError.String(), "Could not read connect history", err.Error())
	}

	if entries == nil {
		return Ok([]interface{}{})
	}

	return Ok(entries)
}

// setter answers calls that would change access point or radio settings.
// They are not implemented when the value is given and a no-op otherwise.
func (d *Dispatcher) setter(name string, kind argKind) handler {
	return func(ctx context.Context, args arguments) Response {
		var present bool

		switch kind {
		case argBool:
			v, err := args.Bool(name)
			if err != nil {
				return invalid(err)
			}
			present = v != nil
		case argString:
			v, err := args.String(name)
			if err != nil {
				return invalid(err)
			}
			present = v != nil
		}

		if !present {
			return Ok(nil)
		}

		d.log.Infof("Setting %v is not supported", name)

		return Unimplemented()
	}
}
