package hotspot

import "fmt"

// ErrorCode is the vocabulary of hotspot configuration errors reported by
// the platform. Backends translate their native errors into these codes.
type ErrorCode int

const (
	ErrorInvalid ErrorCode = iota + 1
	ErrorInvalidSSID
	ErrorInvalidWPAPassphrase
	ErrorInvalidWEPPassphrase
	ErrorUserDenied
	ErrorInternal
	ErrorPending
	ErrorSystemConfiguration
	ErrorUnknown
	ErrorJoinOnceNotSupported
	ErrorAlreadyAssociated
	ErrorApplicationIsNotInForeground
	ErrorInternalError
)

var errorCodeNames = map[ErrorCode]string{
	ErrorInvalid:                      "invalid",
	ErrorInvalidSSID:                  "invalid ssid",
	ErrorInvalidWPAPassphrase:         "invalid wpa passphrase",
	ErrorInvalidWEPPassphrase:         "invalid wep passphrase",
	ErrorUserDenied:                   "user denied",
	ErrorInternal:                     "internal",
	ErrorPending:                      "pending",
	ErrorSystemConfiguration:          "system configuration",
	ErrorUnknown:                      "unknown",
	ErrorJoinOnceNotSupported:         "join once not supported",
	ErrorAlreadyAssociated:            "already associated",
	ErrorApplicationIsNotInForeground: "application is not in foreground",
	ErrorInternalError:                "internal error",
}

// Known reports whether the code belongs to the fixed vocabulary.
func (c ErrorCode) Known() bool {
	_, ok := errorCodeNames[c]
	return ok
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}

	return fmt.Sprintf("unrecognized code %d", int(c))
}

// PlatformError is the optional error handed back by the configuration
// apply step.
type PlatformError struct {
	Code        ErrorCode
	Description string
}

func NewPlatformError(code ErrorCode, description string) *PlatformError {
	return &PlatformError{
		Code:        code,
		Description: description,
	}
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("hotspot configuration error %d (%v): %s", int(e.Code), e.Code, e.Description)
}

// Signal is everything known once an attempt completed: the platform error,
// if any, and the SSID associated after the attempt, if any.
type Signal struct {
	Err          *PlatformError
	ObservedSSID *string
}
