package network

import (
	"context"

	"github.com/the-lightning-land/wifiiotd/hotspot"
)

// Association is the network the device is currently joined to.
type Association struct {
	SSID  string
	BSSID string
}

type Network interface {
	Start() error
	Stop() error
	// Supported reports whether hotspot configurations can be applied at all.
	Supported() bool
	// Apply tries to join the configured network and returns the platform
	// error, if any. A nil result does not imply being associated.
	Apply(context.Context, hotspot.Configuration) *hotspot.PlatformError
	// Current returns the association after the last change, or nil when
	// not associated with any network.
	Current(context.Context) (*Association, error)
	RemoveConfiguration(ctx context.Context, ssid string) error
	ConfiguredSSIDs(context.Context) ([]string, error)
}
