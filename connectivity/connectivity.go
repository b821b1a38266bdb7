package connectivity

import (
	"context"
	"time"

	"github.com/the-lightning-land/wifiiotd/network"
)

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	switch s {
	case Offline:
		return "OFFLINE"
	case Online:
		return "ONLINE"
	default:
		return "INVALID STATE"
	}
}

type Reporter interface {
	CurrentState(context.Context) State
	WaitForStateChange(context.Context, State) bool
}

type Config struct {
	Network      network.Network
	PollInterval time.Duration
}

// NetworkReporter is Online while the network reports an association.
type NetworkReporter struct {
	network      network.Network
	pollInterval time.Duration
}

var _ Reporter = (*NetworkReporter)(nil)

func NewReporter(config *Config) *NetworkReporter {
	r := &NetworkReporter{
		network:      config.Network,
		pollInterval: config.PollInterval,
	}

	if r.pollInterval == 0 {
		r.pollInterval = time.Second
	}

	return r
}

func (r *NetworkReporter) CurrentState(ctx context.Context) State {
	association, err := r.network.Current(ctx)
	if err != nil || association == nil {
		return Offline
	}

	return Online
}

// WaitForStateChange blocks until the state differs from the given one and
// reports false if the context ended first.
func (r *NetworkReporter) WaitForStateChange(ctx context.Context, state State) bool {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		if r.CurrentState(ctx) != state {
			return true
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return false
		}
	}
}
