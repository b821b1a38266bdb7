package wpa

import (
	"net"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

type BSS struct {
	obj dbus.BusObject
}

func (b *BSS) String() string {
	return string(b.obj.Path())
}

type BSSProperties struct {
	SSID  string
	BSSID string
}

func (b *BSS) GetAll() (*BSSProperties, error) {
	var props map[string]dbus.Variant

	err := b.obj.Call("org.freedesktop.DBus.Properties.GetAll", 0, bssName).Store(&props)
	if err != nil {
		return nil, errors.Errorf("could not get all properties: %v", err)
	}

	bss := BSSProperties{}

	val, ok := props["SSID"]
	if !ok {
		return nil, errors.Errorf("mandatory property SSID was missing")
	}

	ssid, ok := val.Value().([]byte)
	if !ok {
		return nil, errors.Errorf("could not convert SSID to string: %v", val)
	}

	bss.SSID = string(ssid)

	val, ok = props["BSSID"]
	if !ok {
		return nil, errors.Errorf("mandatory property BSSID was missing")
	}

	bssid, ok := val.Value().([]byte)
	if !ok {
		return nil, errors.Errorf("could not convert BSSID to string: %v", val)
	}

	bss.BSSID = net.HardwareAddr(bssid).String()

	return &bss, nil
}
