package procedure

import "fmt"

// Kind is the category a procedure is declared as and invoked as. A procedure
// is only reachable through its own declared kind.
type Kind uint8

const (
	// KindQuery reads state.
	KindQuery Kind = iota + 1

	// KindMutation changes state.
	KindMutation

	// KindSubscription produces a stream. The core treats it as an ordinary call
	// kind; streaming semantics belong to the transport.
	KindSubscription
)

var kindNames = [...]string{
	KindQuery:        "query",
	KindMutation:     "mutation",
	KindSubscription: "subscription",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k >= KindQuery && k <= KindSubscription }

// ParseKind parses the name of a kind as produced by String.
func ParseKind(s string) (Kind, error) {
	for k := KindQuery; k <= KindSubscription; k++ {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown procedure kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid procedure kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
