package procedure

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when the input is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// Fields is a JSON input that was checked once and is read by path without
// decoding it. Paths use gjson syntax ("user.name", "items.0.id").
//
// Guard passes its input on as Fields, so links after it can read single
// fields cheaply and JSON decodes the same bytes without another copy.
type Fields struct {
	raw []byte
}

// ParseFields checks that raw is a single JSON value. It does not copy raw.
func ParseFields(raw []byte) (Fields, error) {
	if !gjson.ValidBytes(raw) {
		return Fields{}, ErrInvalidJSON
	}
	return Fields{raw: raw}, nil
}

// Raw returns the document as it was parsed.
func (f Fields) Raw() json.RawMessage { return f.raw }

// MarshalJSON returns the document unchanged.
func (f Fields) MarshalJSON() ([]byte, error) {
	if len(f.raw) == 0 {
		return []byte("null"), nil
	}
	return f.raw, nil
}

// Get returns the value at path. Exists on the result is false when the path
// is absent.
func (f Fields) Get(path string) gjson.Result {
	return gjson.GetBytes(f.raw, path)
}

// Has reports whether path exists.
func (f Fields) Has(path string) bool {
	return f.Get(path).Exists()
}

// String returns the string at path. It reports false for a missing path and
// for values of any other JSON type.
func (f Fields) String(path string) (string, bool) {
	r := f.Get(path)
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}
