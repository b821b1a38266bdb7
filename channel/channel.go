package channel

import (
	"encoding/json"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifiiotd/hotspot"
)

// Call is a request sent over the method channel.
type Call struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Error is the structured failure delivered to the client.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Response carries exactly one of a result, an error or the not implemented
// marker. A nil result is a valid answer.
type Response struct {
	Result         interface{}
	Error          *Error
	NotImplemented bool
}

type envelope struct {
	Result         *json.RawMessage `json:"result,omitempty"`
	Error          *Error           `json:"error,omitempty"`
	NotImplemented bool             `json:"not_implemented,omitempty"`
}

var null = json.RawMessage("null")

func Ok(v interface{}) Response {
	return Response{Result: v}
}

func Failed(code string, message string, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

func Unimplemented() Response {
	return Response{NotImplemented: true}
}

// FromOutcome delivers success as true and a failure as its error triple.
// An attempt that ended without an outcome is an unknown error.
func FromOutcome(outcome hotspot.Outcome) Response {
	if outcome.Succeeded() {
		return Ok(true)
	}

	failure := outcome.Failure()
	if failure == nil {
		return Failed(hotspot.UnknownError.String(), "Connection failed", "attempt ended without an outcome")
	}

	return Failed(failure.Kind.String(), failure.Message, failure.Detail)
}

func (r Response) MarshalJSON() ([]byte, error) {
	e := envelope{}

	switch {
	case r.NotImplemented:
		e.NotImplemented = true
	case r.Error != nil:
		e.Error = r.Error
	default:
		raw := null
		if r.Result != nil {
			payload, err := json.Marshal(r.Result)
			if err != nil {
				return nil, errors.Errorf("could not marshal result: %v", err)
			}
			raw = payload
		}
		e.Result = &raw
	}

	return json.Marshal(&e)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["not_implemented"]; ok {
		var notImplemented bool
		if err := json.Unmarshal(raw, &notImplemented); err != nil {
			return errors.Errorf("could not unmarshal marker: %v", err)
		}
		if notImplemented {
			*r = Unimplemented()
			return nil
		}
	}

	if raw, ok := fields["error"]; ok {
		e := &Error{}
		if err := json.Unmarshal(raw, e); err != nil {
			return errors.Errorf("could not unmarshal error: %v", err)
		}
		*r = Response{Error: e}
		return nil
	}

	raw, ok := fields["result"]
	if !ok {
		return errors.New("response carries neither result nor error")
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return errors.Errorf("could not unmarshal result: %v", err)
	}

	*r = Ok(v)

	return nil
}
