package channel

import (
	"encoding/json"

	"github.com/go-errors/errors"
)

// arguments are the named values of a call. Every accessor returns nil for
// an argument that is missing or explicitly null.
type arguments map[string]json.RawMessage

func parseArguments(raw json.RawMessage) (arguments, error) {
	args := arguments{}

	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}

	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, errors.Errorf("arguments must be an object: %v", err)
	}

	return args, nil
}

func (a arguments) String(name string) (*string, error) {
	raw, ok := a[name]
	if !ok {
		return nil, nil
	}

	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Errorf("argument %v must be a string: %v", name, err)
	}

	return s, nil
}

func (a arguments) Bool(name string) (*bool, error) {
	raw, ok := a[name]
	if !ok {
		return nil, nil
	}

	var b *bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, errors.Errorf("argument %v must be a boolean: %v", name, err)
	}

	return b, nil
}

func (a arguments) Int(name string) (*int, error) {
	raw, ok := a[name]
	if !ok {
		return nil, nil
	}

	var i *int
	if err := json.Unmarshal(raw, &i); err != nil {
		return nil, errors.Errorf("argument %v must be a number: %v", name, err)
	}

	return i, nil
}
