package wpa

import (
	"strings"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

// Network is a configured network block of an interface.
type Network struct {
	obj dbus.BusObject
}

func (n *Network) String() string {
	return string(n.obj.Path())
}

// SSID returns the ssid the network block was configured with.
func (n *Network) SSID() (string, error) {
	v, err := n.obj.GetProperty(networkName + ".Properties")
	if err != nil {
		return "", errors.Errorf("could not get network properties: %v", err)
	}

	props, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		return "", errors.Errorf("could not convert network properties: %v", v)
	}

	ssid, ok := props["ssid"]
	if !ok {
		return "", errors.Errorf("network %v has no ssid", n)
	}

	s, ok := ssid.Value().(string)
	if !ok {
		return "", errors.Errorf("could not convert ssid: %v", ssid)
	}

	// wpa_supplicant reports text ssids in quotes
	return strings.Trim(s, "\""), nil
}
