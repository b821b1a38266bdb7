package hotspot

import (
	"fmt"
	"strings"
)

type failureEntry struct {
	kind    FailureKind
	message string
}

// failureTable maps every known platform code to its failure. Codes missing
// here which are still known (ErrorAlreadyAssociated) are handled explicitly.
var failureTable = map[ErrorCode]failureEntry{
	ErrorInvalid:                      {ConfigurationFailed, "Invalid network configuration"},
	ErrorInvalidSSID:                  {InvalidSSID, "Invalid SSID"},
	ErrorInvalidWPAPassphrase:         {AuthenticationFailed, "Invalid WPA passphrase"},
	ErrorInvalidWEPPassphrase:         {AuthenticationFailed, "Invalid WEP passphrase"},
	ErrorUserDenied:                   {PermissionDenied, "User denied network access"},
	ErrorInternal:                     {ConfigurationFailed, "Internal configuration error"},
	ErrorPending:                      {ConnectionTimeout, "Connection request is pending"},
	ErrorSystemConfiguration:          {ConfigurationFailed, "System configuration error"},
	ErrorUnknown:                      {UnknownError, "Unknown configuration error"},
	ErrorJoinOnceNotSupported:         {ConfigurationFailed, "Join once not supported"},
	ErrorApplicationIsNotInForeground: {PermissionDenied, "Application is not in foreground"},
	ErrorInternalError:                {ConfigurationFailed, "Internal system error"},
}

// descriptionRule is matched against the lowercased platform description
// of an unrecognized code. Order matters, the first rule that matches wins.
type descriptionRule struct {
	substrings []string
	success    bool
	kind       FailureKind
	message    string
}

var descriptionRules = []descriptionRule{
	{substrings: []string{"already associated"}, success: true},
	{substrings: []string{"password", "passphrase"}, kind: AuthenticationFailed, message: "Authentication failed - incorrect password"},
	{substrings: []string{"timeout", "timed out"}, kind: ConnectionTimeout, message: "Connection timeout"},
	{substrings: []string{"denied"}, kind: PermissionDenied, message: "Permission denied"},
}

// Classify maps the result of a single connect attempt to its outcome.
//
// A reported platform error always decides the outcome: known codes through
// the fixed table, unrecognized ones through their description. Without an
// error the attempt succeeded only if the device is now associated with
// exactly the requested SSID.
func Classify(config Configuration, signal Signal) Outcome {
	if signal.Err != nil {
		return classifyError(signal.Err)
	}

	if signal.ObservedSSID == nil {
		return Fail(NetworkNotFound,
			"WiFi network not found after connection attempt",
			fmt.Sprintf("Unable to verify connection to SSID: %s", config.SSID))
	}

	if *signal.ObservedSSID != config.SSID {
		return Fail(NetworkUnavailable,
			"Connected to different network",
			fmt.Sprintf("Expected: %s, Connected to: %s", config.SSID, *signal.ObservedSSID))
	}

	return Success()
}

func classifyError(err *PlatformError) Outcome {
	// the platform reports an existing association with the target as an
	// error, the caller still ends up where it wanted to be
	if err.Code == ErrorAlreadyAssociated {
		return Success()
	}

	if entry, ok := failureTable[err.Code]; ok {
		return Fail(entry.kind, entry.message, err.Description)
	}

	return classifyDescription(err.Description)
}

func classifyDescription(description string) Outcome {
	lower := strings.ToLower(description)

	for _, rule := range descriptionRules {
		if !containsAny(lower, rule.substrings) {
			continue
		}

		if rule.success {
			return Success()
		}

		return Fail(rule.kind, rule.message, description)
	}

	return Fail(UnknownError, "Connection failed", description)
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}
