package hotspot

import (
	"strings"

	"github.com/go-errors/errors"
)

type SecurityMode int

const (
	SecurityOpen SecurityMode = iota
	SecurityWEP
	SecurityWPA
)

func (s SecurityMode) String() string {
	switch s {
	case SecurityOpen:
		return "OPEN"
	case SecurityWEP:
		return "WEP"
	case SecurityWPA:
		return "WPA"
	default:
		return "INVALID SECURITY"
	}
}

// ParseSecurityMode reads the security argument sent by clients.
// Anything other than WEP or WPA is treated as an open network.
func ParseSecurityMode(s string) SecurityMode {
	switch strings.ToUpper(s) {
	case "WPA":
		return SecurityWPA
	case "WEP":
		return SecurityWEP
	default:
		return SecurityOpen
	}
}

// Configuration describes a single request to join a network. It lives for
// exactly one connect attempt.
type Configuration struct {
	SSID       string
	Passphrase *string
	Security   SecurityMode
	// JoinOnce networks are not remembered by the platform after use.
	JoinOnce bool
}

func (c Configuration) String() string {
	return c.SSID + " (" + c.Security.String() + ")"
}

// Validate checks what the platform would otherwise reject as an invalid
// configuration before anything is applied.
func (c Configuration) Validate() error {
	if c.SSID == "" {
		return errors.New("ssid must not be empty")
	}

	if c.Security != SecurityOpen && c.Passphrase == nil {
		return errors.Errorf("%v network %v requires a passphrase", c.Security, c.SSID)
	}

	return nil
}
