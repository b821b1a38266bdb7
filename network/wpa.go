package network

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifiiotd/hotspot"
	"github.com/the-lightning-land/wifiiotd/network/wpa"
)

// check WpaNetworks compliance to its interface during compile time
var _ Network = (*WpaNetwork)(nil)

const defaultSettleTimeout = 30 * time.Second

// IEEE 802.11 reason codes which wpa_supplicant reports after a failed
// key exchange.
const (
	reasonPrevAuthNotValid         = 2
	reasonFourWayHandshakeTimeout  = 15
	reasonGroupKeyHandshakeTimeout = 16
	reasonIEEE8021XAuthFailed      = 23
)

type Config struct {
	Interface string
	Logger    Logger
	// SettleTimeout bounds how long Apply waits for the interface to finish
	// associating.
	SettleTimeout time.Duration
}

type WpaNetwork struct {
	sync.Mutex
	log           Logger
	wpa           *wpa.Wpa
	ifname        string
	iface         *wpa.Interface
	settleTimeout time.Duration
	// networks added with JoinOnce, removed once we move on
	joinedOnce []*wpa.Network
}

func NewWpaNetwork(config *Config) *WpaNetwork {
	net := &WpaNetwork{
		ifname:        config.Interface,
		wpa:           wpa.New(),
		settleTimeout: config.SettleTimeout,
	}

	if net.settleTimeout == 0 {
		net.settleTimeout = defaultSettleTimeout
	}

	if config.Logger != nil {
		net.log = config.Logger
	} else {
		net.log = noopLogger{}
	}

	return net
}

func (n *WpaNetwork) Start() error {
	err := n.wpa.Start()
	if err != nil {
		return errors.Errorf("could not start wpa: %v", err)
	}

	iface, err := n.wpa.GetInterface(n.ifname)
	if err != nil {
		_ = n.wpa.Stop()
		return errors.Errorf("could not find interface %v: %v", n.ifname, err)
	}

	n.iface = iface

	return nil
}

func (n *WpaNetwork) Stop() error {
	n.Lock()
	n.forgetJoinedOnce()
	n.Unlock()

	err := n.wpa.Stop()
	if err != nil {
		return errors.Errorf("could not stop wpa: %v", err)
	}

	return nil
}

func (n *WpaNetwork) Supported() bool {
	return n.iface != nil
}

func (n *WpaNetwork) Apply(ctx context.Context, config hotspot.Configuration) *hotspot.PlatformError {
	n.Lock()
	defer n.Unlock()

	if n.iface == nil {
		return hotspot.NewPlatformError(hotspot.ErrorSystemConfiguration, "wpa_supplicant interface is not available")
	}

	if config.SSID == "" || len(config.SSID) > 32 {
		return hotspot.NewPlatformError(hotspot.ErrorInvalidSSID, "SSID must be between 1 and 32 bytes")
	}

	current, err := n.current()
	if err != nil {
		n.log.Warnf("Could not check current association: %v", err)
	} else if current != nil && current.SSID == config.SSID {
		return hotspot.NewPlatformError(hotspot.ErrorAlreadyAssociated, fmt.Sprintf("already associated with %v", config.SSID))
	}

	n.forgetJoinedOnce()

	changes, err := n.iface.PropertiesChanged()
	if err != nil {
		return hotspot.NewPlatformError(hotspot.ErrorInternal, err.Error())
	}
	defer changes.Cancel()

	network, err := n.iface.AddNetwork(networkArgs(config))
	if err != nil {
		return mapCallError(err, config.Security)
	}

	n.log.Debugf("Added network %v for %v", network, config)

	err = n.iface.SelectNetwork(network)
	if err != nil {
		_ = n.iface.RemoveNetwork(network)
		return mapCallError(err, config.Security)
	}

	platformErr := n.waitSettled(ctx, changes, config.Security)
	if platformErr != nil {
		_ = n.iface.RemoveNetwork(network)
		return platformErr
	}

	if config.JoinOnce {
		n.joinedOnce = append(n.joinedOnce, network)
		return nil
	}

	if err := n.iface.SaveConfig(); err != nil {
		n.log.Warnf("Could not persist network %v: %v", config.SSID, err)
	}

	return nil
}

// waitSettled follows the interface state until it either completed an
// association with the selected network or gave up on it. Disconnects
// before the interface started on the selected network belong to the
// network it left.
func (n *WpaNetwork) waitSettled(ctx context.Context, changes *wpa.PropertiesChangedClient, security hotspot.SecurityMode) *hotspot.PlatformError {
	timeout := time.NewTimer(n.settleTimeout)
	defer timeout.Stop()

	var reason int32
	joining := false

	for {
		select {
		case props, ok := <-changes.Changes:
			if !ok {
				return hotspot.NewPlatformError(hotspot.ErrorInternal, "lost connection to wpa_supplicant")
			}

			state := ""
			if v, ok := props["State"]; ok {
				state, _ = v.Value().(string)
				n.log.Debugf("Interface %v is %v", n.ifname, state)
			}

			switch state {
			case wpa.StateScanning, wpa.StateAssociating, wpa.StateAssociated,
				wpa.StateFourWayHandshake, wpa.StateGroupHandshake:
				joining = true
				reason = 0
			}

			if v, ok := props["DisconnectReason"]; ok {
				if r, ok := v.Value().(int32); ok {
					reason = r
				}
			}

			switch state {
			case wpa.StateCompleted:
				return nil
			case wpa.StateDisconnected, wpa.StateInactive:
				if !joining || reason == 0 {
					continue
				}

				// locally generated reasons are negative, only a failed
				// key exchange among them is a verdict on the network
				if reason < 0 && !keyExchangeFailed(-reason) {
					continue
				}

				return mapDisconnectReason(reason, security)
			}
		case <-timeout.C:
			// the platform gave no verdict, let the association decide
			return nil
		case <-ctx.Done():
			return hotspot.NewPlatformError(hotspot.ErrorPending, "configuration request is still pending")
		}
	}
}

func (n *WpaNetwork) Current(ctx context.Context) (*Association, error) {
	n.Lock()
	defer n.Unlock()

	return n.current()
}

func (n *WpaNetwork) current() (*Association, error) {
	if n.iface == nil {
		return nil, errors.New("wpa network was not started")
	}

	state, err := n.iface.State()
	if err != nil {
		return nil, err
	}

	if state != wpa.StateCompleted {
		return nil, nil
	}

	bss, err := n.iface.CurrentBSS()
	if err != nil {
		return nil, err
	}

	if bss == nil {
		return nil, nil
	}

	props, err := bss.GetAll()
	if err != nil {
		return nil, errors.Errorf("could not read bss %v: %v", bss, err)
	}

	return &Association{
		SSID:  props.SSID,
		BSSID: props.BSSID,
	}, nil
}

func (n *WpaNetwork) RemoveConfiguration(ctx context.Context, ssid string) error {
	n.Lock()
	defer n.Unlock()

	if n.iface == nil {
		return errors.New("wpa network was not started")
	}

	networks, err := n.iface.Networks()
	if err != nil {
		return err
	}

	removed := 0

	for _, network := range networks {
		networkSsid, err := network.SSID()
		if err != nil {
			n.log.Warnf("Skipping network: %v", err)
			continue
		}

		if networkSsid != ssid {
			continue
		}

		if err := n.iface.RemoveNetwork(network); err != nil {
			return err
		}

		removed++
	}

	if removed == 0 {
		return nil
	}

	return n.iface.SaveConfig()
}

func (n *WpaNetwork) ConfiguredSSIDs(ctx context.Context) ([]string, error) {
	n.Lock()
	defer n.Unlock()

	if n.iface == nil {
		return nil, errors.New("wpa network was not started")
	}

	networks, err := n.iface.Networks()
	if err != nil {
		return nil, err
	}

	var ssids []string

	for _, network := range networks {
		ssid, err := network.SSID()
		if err != nil {
			n.log.Warnf("Skipping network: %v", err)
			continue
		}

		ssids = append(ssids, ssid)
	}

	return ssids, nil
}

// forgetJoinedOnce removes networks that were only meant for a single join.
func (n *WpaNetwork) forgetJoinedOnce() {
	if n.iface == nil {
		return
	}

	for _, network := range n.joinedOnce {
		if err := n.iface.RemoveNetwork(network); err != nil {
			n.log.Warnf("Could not remove join once network %v: %v", network, err)
		}
	}

	n.joinedOnce = nil
}

// networkArgs builds the wpa_supplicant network block of a configuration.
func networkArgs(config hotspot.Configuration) map[string]interface{} {
	args := map[string]interface{}{
		"ssid":      config.SSID,
		"scan_ssid": uint32(1),
	}

	passphrase := ""
	if config.Passphrase != nil {
		passphrase = *config.Passphrase
	}

	switch config.Security {
	case hotspot.SecurityWPA:
		args["psk"] = passphrase
	case hotspot.SecurityWEP:
		args["key_mgmt"] = "NONE"
		args["wep_key0"] = passphrase
		args["wep_tx_keyidx"] = uint32(0)
	default:
		args["key_mgmt"] = "NONE"
	}

	return args
}

// mapCallError translates a failed wpa_supplicant call into the hotspot
// error vocabulary.
func mapCallError(err error, security hotspot.SecurityMode) *hotspot.PlatformError {
	var code hotspot.ErrorCode

	switch wpa.ErrorName(err) {
	case wpa.ErrInvalidArgs:
		// the ssid was checked up front, so rejected arguments are the key
		switch security {
		case hotspot.SecurityWPA:
			code = hotspot.ErrorInvalidWPAPassphrase
		case hotspot.SecurityWEP:
			code = hotspot.ErrorInvalidWEPPassphrase
		default:
			code = hotspot.ErrorInvalid
		}
	case wpa.ErrNetworkUnknown:
		code = hotspot.ErrorInvalid
	case wpa.ErrInterfaceUnknown:
		code = hotspot.ErrorSystemConfiguration
	case "org.freedesktop.DBus.Error.AccessDenied":
		code = hotspot.ErrorUserDenied
	case wpa.ErrUnknownError:
		code = hotspot.ErrorUnknown
	default:
		code = hotspot.ErrorInternalError
	}

	return hotspot.NewPlatformError(code, strings.TrimSpace(err.Error()))
}

func mapDisconnectReason(reason int32, security hotspot.SecurityMode) *hotspot.PlatformError {
	if reason < 0 {
		reason = -reason
	}

	if keyExchangeFailed(reason) {
		if security == hotspot.SecurityWEP {
			return hotspot.NewPlatformError(hotspot.ErrorInvalidWEPPassphrase, fmt.Sprintf("key exchange failed with reason %d", reason))
		}

		return hotspot.NewPlatformError(hotspot.ErrorInvalidWPAPassphrase, fmt.Sprintf("key exchange failed with reason %d", reason))
	}

	return hotspot.NewPlatformError(hotspot.ErrorCode(1000+int(reason)), fmt.Sprintf("disconnected with reason %d", reason))
}

func keyExchangeFailed(reason int32) bool {
	switch reason {
	case reasonPrevAuthNotValid, reasonFourWayHandshakeTimeout, reasonGroupKeyHandshakeTimeout, reasonIEEE8021XAuthFailed:
		return true
	default:
		return false
	}
}
