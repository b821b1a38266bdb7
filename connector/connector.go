package connector

import (
	"context"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/the-lightning-land/wifiiotd/hotspot"
	"github.com/the-lightning-land/wifiiotd/network"
	"github.com/the-lightning-land/wifiiotd/wifidb"
)

// Journal receives every finished connect attempt.
type Journal interface {
	Record(entry *wifidb.ConnectEntry) error
	History(limit int) ([]*wifidb.ConnectEntry, error)
}

type Config struct {
	Network network.Network
	Journal Journal
	Logger  Logger
	// Timeout bounds a connect attempt, zero waits for the platform forever.
	Timeout time.Duration
}

// Connector turns connect and disconnect requests into exactly one outcome
// each. Attempts run one at a time since they share the wireless interface.
type Connector struct {
	network network.Network
	journal Journal
	log     Logger
	timeout time.Duration
	slot    chan struct{}
}

func New(config *Config) *Connector {
	c := &Connector{
		network: config.Network,
		journal: config.Journal,
		timeout: config.Timeout,
		slot:    make(chan struct{}, 1),
	}

	if config.Logger != nil {
		c.log = config.Logger
	} else {
		c.log = noopLogger{}
	}

	return c
}

// Connect applies the configuration and waits for its outcome. Expiry of
// ctx or of the configured timeout resolves the attempt as timed out.
func (c *Connector) Connect(ctx context.Context, config hotspot.Configuration) hotspot.Outcome {
	id := uuid.New().String()
	started := time.Now()

	outcome := c.connect(ctx, id, config)

	c.log.Infof("Attempt %v to join %v finished with %v", id, config, outcome)
	c.record(id, config, outcome, started)

	return outcome
}

func (c *Connector) connect(ctx context.Context, id string, config hotspot.Configuration) hotspot.Outcome {
	if !c.network.Supported() {
		return hotspot.Unsupported()
	}

	if err := config.Validate(); err != nil {
		return hotspot.Fail(hotspot.ConfigurationFailed, "Invalid network configuration", err.Error())
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return timedOut(config, err.Error())
	}

	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return timedOut(config, "another connect attempt is still running: "+ctx.Err().Error())
	}

	c.log.Debugf("Attempt %v applying configuration for %v", id, config)

	pending := hotspot.NewPending()

	go func() {
		// the slot is held until the platform answered, even if the caller
		// already gave up
		defer func() { <-c.slot }()

		platformErr := c.network.Apply(ctx, config)
		if platformErr != nil {
			c.log.Warnf("Attempt %v got platform error: %v", id, platformErr)
		}

		signal := hotspot.Signal{Err: platformErr}

		association, err := c.network.Current(ctx)
		if err != nil {
			c.log.Warnf("Attempt %v could not query association: %v", id, err)
		} else if association != nil {
			signal.ObservedSSID = &association.SSID
		}

		if !pending.TryResolve(hotspot.Classify(config, signal)) {
			c.log.Debugf("Attempt %v completed after it timed out", id)
		}
	}()

	select {
	case <-pending.Done():
	case <-ctx.Done():
		pending.TryResolve(timedOut(config, ctx.Err().Error()))
	}

	return pending.Outcome()
}

func timedOut(config hotspot.Configuration, reason string) hotspot.Outcome {
	return hotspot.Fail(hotspot.ConnectionTimeout, "Connection timeout",
		"Joining "+config.SSID+" did not complete: "+reason)
}

func (c *Connector) record(id string, config hotspot.Configuration, outcome hotspot.Outcome, started time.Time) {
	if c.journal == nil {
		return
	}

	entry := &wifidb.ConnectEntry{
		Id:       id,
		SSID:     config.SSID,
		Security: config.Security.String(),
		JoinOnce: config.JoinOnce,
		Code:     outcome.Code(),
		Started:  started,
		Finished: time.Now(),
	}

	if failure := outcome.Failure(); failure != nil {
		entry.Message = failure.Message
		entry.Detail = failure.Detail
	}

	if err := c.journal.Record(entry); err != nil {
		c.log.Errorf("Could not journal attempt %v: %v", id, err)
	}
}

// Disconnect forgets the network the device is associated with.
func (c *Connector) Disconnect(ctx context.Context) hotspot.Outcome {
	if !c.network.Supported() {
		return hotspot.Unsupported()
	}

	association, err := c.network.Current(ctx)
	if err != nil {
		c.log.Errorf("Could not query association: %v", err)
		return hotspot.Fail(hotspot.ConfigurationFailed, "Could not query current network", err.Error())
	}

	if association == nil {
		c.log.Infof("Not connected to a network")
		return hotspot.NotAssociated()
	}

	c.log.Infof("Trying to disconnect from %v", association.SSID)

	err = c.network.RemoveConfiguration(ctx, association.SSID)
	if err != nil {
		c.log.Errorf("Could not remove configuration of %v: %v", association.SSID, err)
		return hotspot.Fail(hotspot.ConfigurationFailed, "Could not remove network configuration", err.Error())
	}

	return hotspot.Success()
}

// Association returns the current association, nil when not associated.
func (c *Connector) Association(ctx context.Context) (*network.Association, error) {
	association, err := c.network.Current(ctx)
	if err != nil {
		return nil, errors.Errorf("could not query association: %v", err)
	}

	return association, nil
}

// RemoveByPrefix forgets every configured network whose SSID starts with
// prefix. It reports false when nothing could be attempted.
func (c *Connector) RemoveByPrefix(ctx context.Context, prefix string) (bool, error) {
	if prefix == "" {
		c.log.Warnf("No prefix SSID was given")
		return false, nil
	}

	if !c.network.Supported() {
		return false, nil
	}

	ssids, err := c.network.ConfiguredSSIDs(ctx)
	if err != nil {
		return false, errors.Errorf("could not list configured networks: %v", err)
	}

	for _, ssid := range ssids {
		if !strings.HasPrefix(ssid, prefix) {
			continue
		}

		c.log.Infof("Removing configured network %v", ssid)

		if err := c.network.RemoveConfiguration(ctx, ssid); err != nil {
			return false, errors.Errorf("could not remove %v: %v", ssid, err)
		}
	}

	return true, nil
}

// History returns the most recent journaled attempts.
func (c *Connector) History(limit int) ([]*wifidb.ConnectEntry, error) {
	if c.journal == nil {
		return nil, nil
	}

	return c.journal.History(limit)
}
