package wpa

import "github.com/godbus/dbus/v5"

// signalHandler fans the signals of the bus connection out to subscribers.
type signalHandler struct {
	wpa *Wpa
}

var _ dbus.SignalHandler = (*signalHandler)(nil)

func (h *signalHandler) DeliverSignal(iface, name string, signal *dbus.Signal) {
	h.wpa.subscribers.Lock()
	defer h.wpa.subscribers.Unlock()

	for _, ch := range h.wpa.subscribers.chans {
		select {
		case ch <- signal:
		default:
			// drop the signal for subscribers that are not keeping up
		}
	}
}

// subscribe hands out a channel receiving every signal delivered on the
// connection until cancel is called.
func (w *Wpa) subscribe() (<-chan *dbus.Signal, func()) {
	ch := make(chan *dbus.Signal, 16)

	w.subscribers.Lock()
	id := w.subscribers.nextId
	w.subscribers.nextId++
	w.subscribers.chans[id] = ch
	w.subscribers.Unlock()

	cancel := func() {
		w.subscribers.Lock()
		defer w.subscribers.Unlock()

		if _, ok := w.subscribers.chans[id]; ok {
			delete(w.subscribers.chans, id)
			close(ch)
		}
	}

	return ch, cancel
}
