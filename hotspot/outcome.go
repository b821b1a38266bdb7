package hotspot

import "fmt"

// FailureKind identifies why a connect or disconnect request failed. The
// string value is the code delivered to clients.
type FailureKind string

const (
	ConfigurationFailed  FailureKind = "CONFIGURATION_FAILED"
	InvalidSSID          FailureKind = "INVALID_SSID"
	AuthenticationFailed FailureKind = "AUTHENTICATION_FAILED"
	PermissionDenied     FailureKind = "PERMISSION_DENIED"
	ConnectionTimeout    FailureKind = "CONNECTION_TIMEOUT"
	UnknownError         FailureKind = "UNKNOWN_ERROR"
	NetworkUnavailable   FailureKind = "NETWORK_UNAVAILABLE"
	NetworkNotFound      FailureKind = "NETWORK_NOT_FOUND"
	NotConnected         FailureKind = "NOT_CONNECTED"
)

func (k FailureKind) String() string {
	return string(k)
}

// Failure is a terminal, typed failure. It doubles as an error so callers can
// propagate it through regular error returns.
type Failure struct {
	Kind    FailureKind
	Message string
	Detail  string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("%v: %v", f.Kind, f.Message)
	}

	return fmt.Sprintf("%v: %v (%v)", f.Kind, f.Message, f.Detail)
}

// Outcome is the single terminal result of an attempt. The zero value is
// not a valid outcome; use Success or Fail.
type Outcome struct {
	success bool
	failure *Failure
}

func Success() Outcome {
	return Outcome{success: true}
}

func Fail(kind FailureKind, message string, detail string) Outcome {
	return Outcome{
		failure: &Failure{
			Kind:    kind,
			Message: message,
			Detail:  detail,
		},
	}
}

func (o Outcome) Succeeded() bool {
	return o.success
}

// Failure returns the failure, or nil for a successful outcome.
func (o Outcome) Failure() *Failure {
	return o.failure
}

// Err returns the failure as an error, or nil on success.
func (o Outcome) Err() error {
	if o.failure == nil {
		return nil
	}

	return o.failure
}

// Code returns the client facing identifier of the outcome.
func (o Outcome) Code() string {
	if o.success {
		return "SUCCESS"
	}

	if o.failure == nil {
		return "UNRESOLVED"
	}

	return o.failure.Kind.String()
}

func (o Outcome) String() string {
	if o.failure != nil {
		return o.failure.Error()
	}

	return o.Code()
}

// Unsupported is reported without consulting the classifier when the
// platform cannot apply hotspot configurations at all.
func Unsupported() Outcome {
	return Fail(ConfigurationFailed,
		"platform version unsupported",
		"hotspot configuration is not available on this platform")
}

// NotAssociated is the answer to a disconnect request while not associated
// with any network.
func NotAssociated() Outcome {
	return Fail(NotConnected,
		"Not connected to any WiFi network",
		"Cannot disconnect - device is not connected to any WiFi network")
}
