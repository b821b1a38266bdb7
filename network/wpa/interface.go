package wpa

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

// Interface states reported by wpa_supplicant.
const (
	StateCompleted        = "completed"
	StateDisconnected     = "disconnected"
	StateInactive         = "inactive"
	StateScanning         = "scanning"
	StateAssociating      = "associating"
	StateAssociated       = "associated"
	StateFourWayHandshake = "4way_handshake"
	StateGroupHandshake   = "group_handshake"
)

type Interface struct {
	wpa *Wpa
	obj dbus.BusObject
}

func (i *Interface) State() (string, error) {
	v, err := i.obj.GetProperty(interfaceName + ".State")
	if err != nil {
		return "", errors.Errorf("could not get state: %v", err)
	}

	state, ok := v.Value().(string)
	if !ok {
		return "", errors.Errorf("could not convert state: %v", v)
	}

	return state, nil
}

// CurrentBSS returns the access point the interface is using, or nil.
func (i *Interface) CurrentBSS() (*BSS, error) {
	v, err := i.obj.GetProperty(interfaceName + ".CurrentBSS")
	if err != nil {
		return nil, errors.Errorf("could not get current bss: %v", err)
	}

	path, ok := v.Value().(dbus.ObjectPath)
	if !ok {
		return nil, errors.Errorf("could not convert current bss: %v", v)
	}

	if path == "/" || !path.IsValid() {
		return nil, nil
	}

	return &BSS{
		obj: i.wpa.conn.Object(busName, path),
	}, nil
}

func (i *Interface) Networks() ([]*Network, error) {
	v, err := i.obj.GetProperty(interfaceName + ".Networks")
	if err != nil {
		return nil, errors.Errorf("could not get networks: %v", err)
	}

	objectPaths, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, errors.Errorf("could not convert networks: %v", v)
	}

	var networks []*Network

	for _, objectPath := range objectPaths {
		networks = append(networks, &Network{
			obj: i.wpa.conn.Object(busName, objectPath),
		})
	}

	return networks, nil
}

// AddNetwork registers a network block. Failures keep the D-Bus error so
// callers can inspect it with ErrorName.
func (i *Interface) AddNetwork(args map[string]interface{}) (*Network, error) {
	var objPath dbus.ObjectPath

	err := i.obj.Call(interfaceName+".AddNetwork", 0, args).Store(&objPath)
	if err != nil {
		return nil, errors.WrapPrefix(err, "could not add network", 0)
	}

	return &Network{
		obj: i.wpa.conn.Object(busName, objPath),
	}, nil
}

func (i *Interface) SelectNetwork(net *Network) error {
	call := i.obj.Call(interfaceName+".SelectNetwork", 0, net.obj.Path())
	if call.Err != nil {
		return errors.WrapPrefix(call.Err, "could not select network", 0)
	}

	return nil
}

func (i *Interface) RemoveNetwork(net *Network) error {
	call := i.obj.Call(interfaceName+".RemoveNetwork", 0, net.obj.Path())
	if call.Err != nil {
		return errors.Errorf("could not remove network: %v", call.Err)
	}

	return nil
}

// SaveConfig writes the current network blocks to the configuration file
// of wpa_supplicant.
func (i *Interface) SaveConfig() error {
	call := i.obj.Call(interfaceName+".SaveConfig", 0)
	if call.Err != nil {
		return errors.Errorf("could not save config: %v", call.Err)
	}

	return nil
}

type PropertiesChangedClient struct {
	Changes <-chan map[string]dbus.Variant
	Cancel  func()
}

// PropertiesChanged streams property changes of the interface.
func (i *Interface) PropertiesChanged() (*PropertiesChangedClient, error) {
	matchOption := dbus.WithMatchObjectPath(i.obj.Path())

	call := i.wpa.conn.BusObject().AddMatchSignal(interfaceName, "PropertiesChanged", matchOption)
	if call.Err != nil {
		return nil, errors.Errorf("could not add signal: %v", call.Err)
	}

	signals, cancelSignals := i.wpa.subscribe()
	changes := make(chan map[string]dbus.Variant)
	done := make(chan struct{})

	go func() {
		defer close(changes)

		for signal := range signals {
			if signal.Name != interfaceName+".PropertiesChanged" || signal.Path != i.obj.Path() {
				continue
			}

			if len(signal.Body) == 0 {
				continue
			}

			props, ok := signal.Body[0].(map[string]dbus.Variant)
			if !ok {
				continue
			}

			select {
			case changes <- props:
			case <-done:
				return
			}
		}
	}()

	return &PropertiesChangedClient{
		Changes: changes,
		Cancel: func() {
			_ = i.wpa.conn.BusObject().RemoveMatchSignal(interfaceName, "PropertiesChanged", matchOption)

			close(done)
			cancelSignals()
		},
	}, nil
}
