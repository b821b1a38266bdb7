package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/wifiiotd/api"
	"github.com/the-lightning-land/wifiiotd/channel"
	"github.com/the-lightning-land/wifiiotd/connectivity"
	"github.com/the-lightning-land/wifiiotd/connector"
	"github.com/the-lightning-land/wifiiotd/network"
	"github.com/the-lightning-land/wifiiotd/wifidb"
	"golang.org/x/sync/errgroup"
)

var (
	// commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

// wifiiotdMain is the true entry point for wifiiotd. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func wifiiotdMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// Load CLI configuration and defaults
	cfg, err := loadConfig(os.Args[1:])
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	// wifiiot.db journals every connect attempt, never the networks themselves
	wifiDB, err := wifidb.Open(cfg.DataDir)
	if err != nil {
		return errors.Errorf("Could not open wifiiot.db: %v", err)
	}

	log.Infof("Opened wifiiot.db")

	defer func() {
		err := wifiDB.Close()
		if err != nil {
			log.Errorf("Could not close wifiiot.db: %v", err)
		} else {
			log.Info("Closed wifiiot.db.")
		}
	}()

	// The hotspot configuration service all connect attempts go through
	var n network.Network

	switch cfg.Net {
	case "wpa":
		n = network.NewWpaNetwork(&network.Config{
			Interface: cfg.Interface,
			Logger:    log.New().WithField("system", "network"),
		})

		log.Infof("Created wpa_supplicant network on %v.", cfg.Interface)
	case "mock":
		hotspots, err := cfg.Mock.hotspots()
		if err != nil {
			return errors.Errorf("Invalid mock configuration: %v", err)
		}

		n = network.NewMockNetwork(&network.MockConfig{
			Logger:   log.New().WithField("system", "network"),
			Hotspots: hotspots,
		})

		log.Infof("Created a mock network with %v hotspots.", len(hotspots))
	default:
		return errors.Errorf("Unknown networking type %v", cfg.Net)
	}

	err = n.Start()
	if err != nil {
		return errors.Errorf("Could not start network: %v", err)
	}

	defer func() {
		err := n.Stop()
		if err != nil {
			log.Errorf("Could not properly shut down network: %v", err)
		} else {
			log.Info("Stopped network.")
		}
	}()

	reporter := connectivity.NewReporter(&connectivity.Config{
		Network: n,
	})

	c := connector.New(&connector.Config{
		Network: n,
		Journal: wifiDB,
		Logger:  log.New().WithField("system", "connector"),
		Timeout: cfg.ConnectTimeout,
	})

	log.Infof("Created connector with a timeout of %v.", cfg.ConnectTimeout)

	dispatcher := channel.NewDispatcher(&channel.Config{
		Connector: c,
		Reporter:  reporter,
		Interface: cfg.Interface,
		Logger:    log.New().WithField("system", "channel"),
	})

	a := api.New(&api.Config{
		Dispatcher: dispatcher,
		Reporter:   reporter,
		Version:    Version,
		Log:        log.New().WithField("system", "api"),
	})

	log.Infof("Created API")

	l, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return errors.Errorf("Could not listen on %v: %v", cfg.Listen, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Serving method channel on %v", l.Addr())
		return a.Serve(l)
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return a.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		state := reporter.CurrentState(ctx)
		log.Infof("Connectivity is %v", state)

		for reporter.WaitForStateChange(ctx, state) {
			state = reporter.CurrentState(ctx)
			log.Infof("Connectivity changed to %v", state)
		}

		log.Debug("Stopped watching connectivity.")

		return nil
	})

	// Handle interrupt signals correctly
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		sig := <-signals
		log.Info(sig)
		log.Info("Received an interrupt, stopping wifiiotd...")
		cancel()
	}()

	// blocks until the api is shut down
	err = g.Wait()
	if err != nil {
		return errors.Errorf("Failed running wifiiotd: %v", err)
	}

	// finish with no error
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := wifiiotdMain(); err != nil {
		log.WithError(err).Println("Failed running wifiiotd.")
		os.Exit(1)
	}
}
