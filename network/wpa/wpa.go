package wpa

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

const (
	busName       = "fi.w1.wpa_supplicant1"
	busPath       = "/fi/w1/wpa_supplicant1"
	interfaceName = "fi.w1.wpa_supplicant1.Interface"
	networkName   = "fi.w1.wpa_supplicant1.Network"
	bssName       = "fi.w1.wpa_supplicant1.BSS"
)

// Error names returned by wpa_supplicant method calls.
const (
	ErrUnknownError     = "fi.w1.wpa_supplicant1.UnknownError"
	ErrInvalidArgs      = "fi.w1.wpa_supplicant1.InvalidArgs"
	ErrInterfaceUnknown = "fi.w1.wpa_supplicant1.InterfaceUnknown"
	ErrNetworkUnknown   = "fi.w1.wpa_supplicant1.NetworkUnknown"
)

type subscribers struct {
	sync.Mutex
	nextId uint32
	chans  map[uint32]chan *dbus.Signal
}

// Wpa is a connection to wpa_supplicant on the system bus.
type Wpa struct {
	conn        *dbus.Conn
	obj         dbus.BusObject
	subscribers subscribers
}

func New() *Wpa {
	return &Wpa{
		subscribers: subscribers{
			chans: make(map[uint32]chan *dbus.Signal),
		},
	}
}

func (w *Wpa) Start() error {
	conn, err := dbus.ConnectSystemBus(dbus.WithSignalHandler(&signalHandler{wpa: w}))
	if err != nil {
		return errors.Errorf("could not connect to system bus: %v", err)
	}

	w.conn = conn
	w.obj = conn.Object(busName, busPath)

	return nil
}

func (w *Wpa) Stop() error {
	if w.conn == nil {
		return nil
	}

	err := w.conn.Close()
	if err != nil {
		return errors.Errorf("could not close system bus connection: %v", err)
	}

	w.subscribers.Lock()
	for id, ch := range w.subscribers.chans {
		close(ch)
		delete(w.subscribers.chans, id)
	}
	w.subscribers.Unlock()

	return nil
}

// GetInterface looks up the interface wpa_supplicant manages for ifname.
func (w *Wpa) GetInterface(ifname string) (*Interface, error) {
	var path dbus.ObjectPath

	err := w.obj.Call(busName+".GetInterface", 0, ifname).Store(&path)
	if err != nil {
		return nil, errors.Errorf("could not get interface: %v", err)
	}

	return &Interface{
		wpa: w,
		obj: w.conn.Object(busName, path),
	}, nil
}

// ErrorName extracts the D-Bus error name of a failed call, if any.
func ErrorName(err error) string {
	var dbusErr dbus.Error

	if errors.As(err, &dbusErr) {
		return dbusErr.Name
	}

	var dbusErrPtr *dbus.Error

	if errors.As(err, &dbusErrPtr) {
		return dbusErrPtr.Name
	}

	return ""
}
