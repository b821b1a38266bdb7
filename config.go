package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/the-lightning-land/wifiiotd/hotspot"
	"github.com/the-lightning-land/wifiiotd/network"
)

const (
	defaultDataDir        = "/var/lib/wifiiotd"
	defaultConfigFile     = "/etc/wifiiotd.conf"
	defaultNet            = "mock"
	defaultInterface      = "wlan0"
	defaultListen         = "localhost:9080"
	defaultConnectTimeout = 30 * time.Second
)

type mockConfig struct {
	Hotspots []string `long:"hotspot" description:"A network the mock backend can join, as ssid[:security[:passphrase]]; may be repeated"`
}

type config struct {
	ShowVersion    bool          `long:"version" description:"Display version information and exit"`
	Debug          bool          `long:"debug" description:"Start in debug mode"`
	ConfigFile     string        `long:"configfile" description:"Path to an INI configuration file"`
	DataDir        string        `long:"datadir" description:"The directory to store the connect journal in"`
	Net            string        `long:"net" description:"The network backend to use" choice:"mock" choice:"wpa"`
	Interface      string        `long:"interface" description:"The wireless interface to configure"`
	Listen         string        `long:"listen" description:"Address the method channel api listens on"`
	ConnectTimeout time.Duration `long:"connecttimeout" description:"Upper bound of a connect attempt, 0 waits forever"`

	Mock *mockConfig `group:"Mock" namespace:"mock"`
}

func defaultConfig() config {
	return config{
		ConfigFile:     defaultConfigFile,
		DataDir:        defaultDataDir,
		Net:            defaultNet,
		Interface:      defaultInterface,
		Listen:         defaultListen,
		ConnectTimeout: defaultConnectTimeout,
		Mock:           &mockConfig{},
	}
}

// loadConfig reads the command line, then the config file, then the command
// line again so flags take precedence over the file.
func loadConfig(args []string) (*config, error) {
	preCfg := defaultConfig()

	if _, err := flags.NewParser(&preCfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	cfg.ConfigFile = preCfg.ConfigFile

	if cfg.ConfigFile != "" {
		err := flags.NewIniParser(flags.NewParser(&cfg, flags.Default)).ParseFile(cfg.ConfigFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Errorf("Could not read config file %v: %v", cfg.ConfigFile, err)
		}
	}

	if _, err := flags.NewParser(&cfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}

	cfg.DataDir = filepath.Clean(cfg.DataDir)

	if cfg.ConnectTimeout < 0 {
		return nil, errors.Errorf("Connect timeout must not be negative, got %v", cfg.ConnectTimeout)
	}

	return &cfg, nil
}

// hotspots parses the networks the mock backend can see. Every hotspot gets
// a locally administered BSSID by its position.
func (c *mockConfig) hotspots() ([]network.MockHotspot, error) {
	hotspots := make([]network.MockHotspot, 0, len(c.Hotspots))

	for i, value := range c.Hotspots {
		parts := strings.SplitN(value, ":", 3)

		h := network.MockHotspot{
			SSID:  parts[0],
			BSSID: fmt.Sprintf("02:00:00:00:00:%02x", i+1),
		}

		if h.SSID == "" {
			return nil, errors.Errorf("Mock hotspot %q has no ssid", value)
		}

		if len(parts) > 1 {
			h.Security = hotspot.ParseSecurityMode(parts[1])
		}

		if len(parts) > 2 {
			h.Passphrase = parts[2]
		}

		if h.Security != hotspot.SecurityOpen && h.Passphrase == "" {
			return nil, errors.Errorf("Mock hotspot %v needs a passphrase for %v", h.SSID, h.Security)
		}

		hotspots = append(hotspots, h)
	}

	return hotspots, nil
}
