package network

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifiiotd/hotspot"
)

// check MockNetwork compliance to its interface during compile time
var _ Network = (*MockNetwork)(nil)

// MockHotspot is a network the mock can see and join.
type MockHotspot struct {
	SSID       string
	BSSID      string
	Security   hotspot.SecurityMode
	Passphrase string
}

type MockConfig struct {
	Logger      Logger
	Hotspots    []MockHotspot
	Unsupported bool
	// Delay simulates how long the platform takes to apply a configuration.
	Delay time.Duration
}

// MockNetwork simulates a platform hotspot configuration service in memory.
type MockNetwork struct {
	sync.Mutex
	log         Logger
	hotspots    map[string]MockHotspot
	unsupported bool
	delay       time.Duration
	started     bool
	current     *Association
	configured  map[string]bool
	denied      bool
	background  bool
	injected    *hotspot.PlatformError
}

func NewMockNetwork(config *MockConfig) *MockNetwork {
	n := &MockNetwork{
		hotspots:    make(map[string]MockHotspot),
		configured:  make(map[string]bool),
		unsupported: config.Unsupported,
		delay:       config.Delay,
	}

	if config.Logger != nil {
		n.log = config.Logger
	} else {
		n.log = noopLogger{}
	}

	for _, h := range config.Hotspots {
		n.hotspots[h.SSID] = h
	}

	return n
}

func (n *MockNetwork) Start() error {
	n.Lock()
	defer n.Unlock()

	n.started = true
	n.log.Infof("Started mock network with %v visible hotspots", len(n.hotspots))

	return nil
}

func (n *MockNetwork) Stop() error {
	n.Lock()
	defer n.Unlock()

	if !n.started {
		return errors.New("mock network was not started")
	}

	n.started = false

	return nil
}

func (n *MockNetwork) Supported() bool {
	return !n.unsupported
}

func (n *MockNetwork) Apply(ctx context.Context, config hotspot.Configuration) *hotspot.PlatformError {
	if n.delay > 0 {
		select {
		case <-time.After(n.delay):
		case <-ctx.Done():
			return hotspot.NewPlatformError(hotspot.ErrorPending, "configuration request was abandoned")
		}
	}

	n.Lock()
	defer n.Unlock()

	if n.injected != nil {
		err := n.injected
		n.injected = nil
		return err
	}

	if !n.started {
		return hotspot.NewPlatformError(hotspot.ErrorSystemConfiguration, "configuration service is not running")
	}

	if n.background {
		return hotspot.NewPlatformError(hotspot.ErrorApplicationIsNotInForeground, "application is not in foreground")
	}

	if n.denied {
		return hotspot.NewPlatformError(hotspot.ErrorUserDenied, "the user denied the network configuration")
	}

	if config.SSID == "" || len(config.SSID) > 32 {
		return hotspot.NewPlatformError(hotspot.ErrorInvalidSSID, "SSID must be between 1 and 32 bytes")
	}

	if err := validatePassphrase(config); err != nil {
		return err
	}

	if n.current != nil && n.current.SSID == config.SSID {
		return hotspot.NewPlatformError(hotspot.ErrorAlreadyAssociated, "already associated")
	}

	h, ok := n.hotspots[config.SSID]
	if !ok {
		// the platform accepts the configuration but never finds the network
		n.log.Debugf("Hotspot %v is not in range", config.SSID)
		return nil
	}

	if h.Security != config.Security {
		return hotspot.NewPlatformError(hotspot.ErrorInvalid, "security type does not match the network")
	}

	if h.Security != hotspot.SecurityOpen && (config.Passphrase == nil || h.Passphrase != *config.Passphrase) {
		if h.Security == hotspot.SecurityWEP {
			return hotspot.NewPlatformError(hotspot.ErrorInvalidWEPPassphrase, "invalid WEP passphrase")
		}

		return hotspot.NewPlatformError(hotspot.ErrorInvalidWPAPassphrase, "invalid WPA passphrase")
	}

	n.current = &Association{
		SSID:  h.SSID,
		BSSID: h.BSSID,
	}

	if !config.JoinOnce {
		n.configured[h.SSID] = true
	}

	n.log.Debugf("Associated with %v (%v)", h.SSID, h.BSSID)

	return nil
}

// validatePassphrase applies the format rules of the platform.
func validatePassphrase(config hotspot.Configuration) *hotspot.PlatformError {
	if config.Passphrase == nil {
		return nil
	}

	l := len(*config.Passphrase)

	switch config.Security {
	case hotspot.SecurityWPA:
		if l < 8 || l > 63 {
			return hotspot.NewPlatformError(hotspot.ErrorInvalidWPAPassphrase, "WPA passphrase must be 8 to 63 characters")
		}
	case hotspot.SecurityWEP:
		if l != 5 && l != 13 && l != 10 && l != 26 {
			return hotspot.NewPlatformError(hotspot.ErrorInvalidWEPPassphrase, "WEP key has an invalid length")
		}
	}

	return nil
}

func (n *MockNetwork) Current(ctx context.Context) (*Association, error) {
	n.Lock()
	defer n.Unlock()

	if n.current == nil {
		return nil, nil
	}

	association := *n.current

	return &association, nil
}

func (n *MockNetwork) RemoveConfiguration(ctx context.Context, ssid string) error {
	n.Lock()
	defer n.Unlock()

	delete(n.configured, ssid)

	if n.current != nil && n.current.SSID == ssid {
		n.current = nil
	}

	return nil
}

func (n *MockNetwork) ConfiguredSSIDs(ctx context.Context) ([]string, error) {
	n.Lock()
	defer n.Unlock()

	ssids := make([]string, 0, len(n.configured))
	for ssid := range n.configured {
		ssids = append(ssids, ssid)
	}

	sort.Strings(ssids)

	return ssids, nil
}

// Associate puts the mock onto a network without going through Apply,
// e.g. a network joined outside of this process.
func (n *MockNetwork) Associate(ssid string, bssid string) {
	n.Lock()
	defer n.Unlock()

	n.current = &Association{SSID: ssid, BSSID: bssid}
}

func (n *MockNetwork) SetUserDenied(denied bool) {
	n.Lock()
	defer n.Unlock()

	n.denied = denied
}

func (n *MockNetwork) SetForeground(foreground bool) {
	n.Lock()
	defer n.Unlock()

	n.background = !foreground
}

// InjectError makes the next Apply fail with the given error.
func (n *MockNetwork) InjectError(err *hotspot.PlatformError) {
	n.Lock()
	defer n.Unlock()

	n.injected = err
}
