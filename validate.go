package procedure

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validator parses and checks the raw input of a call. Its result replaces the
// input for every link after it. A failure is reported to the caller as
// INPUT_VALIDATION_ERROR wrapping the validator's error.
type Validator interface {
	Validate(raw any) (any, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(raw any) (any, error)

// Validate implements the Validator interface.
func (f ValidatorFunc) Validate(raw any) (any, error) { return f(raw) }

// ErrMissingInput is reported by JSON when a call carries no input.
var ErrMissingInput = errors.New("input is required")

// validatable is the interface for payload validation.
// Compatible with github.com/go-ozzo/ozzo-validation/v4.
type validatable interface {
	Validate() error
}

// JSON returns a Validator that decodes the raw input into a T and then runs
// its Validate method, if it has one.
//
// Raw input may already be a T, Fields from a Guard, or JSON as
// json.RawMessage, []byte or string. Any other value (for example a map built by an in-process caller) is
// re-encoded as JSON and decoded into T.
//
//	type GreetInput struct {
//	    Name string `json:"name"`
//	}
//
//	func (in GreetInput) Validate() error {
//	    if in.Name == "" {
//	        return errors.New("name is required")
//	    }
//	    return nil
//	}
//
//	greet := procedure.Query().Input(procedure.JSON[GreetInput]()).Handle(...)
func JSON[T any]() Validator {
	return ValidatorFunc(func(raw any) (any, error) {
		var data T
		switch v := raw.(type) {
		case nil:
			return nil, ErrMissingInput
		case T:
			data = v
		case Fields:
			if err := json.Unmarshal(v.raw, &data); err != nil {
				return nil, fmt.Errorf("decode input: %w", err)
			}
		case json.RawMessage:
			if err := json.Unmarshal(v, &data); err != nil {
				return nil, fmt.Errorf("decode input: %w", err)
			}
		case []byte:
			if err := json.Unmarshal(v, &data); err != nil {
				return nil, fmt.Errorf("decode input: %w", err)
			}
		case string:
			if err := json.Unmarshal([]byte(v), &data); err != nil {
				return nil, fmt.Errorf("decode input: %w", err)
			}
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode input: %w", err)
			}
			if err := json.Unmarshal(b, &data); err != nil {
				return nil, fmt.Errorf("decode input: %w", err)
			}
		}

		if v, ok := any(data).(validatable); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		} else if v, ok := any(&data).(validatable); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		}
		return data, nil
	})
}

// Guard returns a Validator that checks the JSON input against d and passes
// it on as Fields. It rejects input that is not JSON. Use it to refuse
// malformed input cheaply before anything decodes it; a JSON validator after
// it decodes the checked bytes directly.
//
//	procedure.Mutation().
//	    Input(procedure.Guard(procedure.HasFields("id", "name"))).
//	    Input(procedure.JSON[Thing]())
func Guard(d Discriminator) Validator {
	return ValidatorFunc(func(raw any) (any, error) {
		f, ok := raw.(Fields)
		if !ok {
			b, err := rawBytes(raw)
			if err != nil {
				return nil, err
			}
			if f, err = ParseFields(b); err != nil {
				return nil, err
			}
		}
		if !d.Match(f) {
			return nil, ErrGuardRejected
		}
		return f, nil
	})
}

// ErrGuardRejected is reported by Guard when the input does not match.
var ErrGuardRejected = errors.New("input does not have the required shape")

func rawBytes(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case nil:
		return nil, ErrMissingInput
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode input: %w", err)
		}
		return b, nil
	}
}
