package fiber

import (
	"encoding/json"
	"fmt"
)

// Move is one decision in a path: an opaque value plus optional metadata.
// The value is the edge label in the tree; metadata is informational only
// and never participates in equality or child lookup.
type Move struct {
	Value    any            `json:"value"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewMove creates a Move with no metadata.
func NewMove(value any) Move {
	return Move{Value: value}
}

// MoveFromText builds a Move from a textual segment, as found in query
// strings and CLI arguments. The segment is decoded as JSON when possible
// (numbers, quoted strings, booleans); anything else is a plain string.
func MoveFromText(seg string) Move {
	var v any
	if err := json.Unmarshal([]byte(seg), &v); err != nil {
		v = seg
	}
	return Move{Value: v}
}

// Key returns the canonical encoding of the move's value, used as the
// child-map key. Two moves label the same edge iff their keys are equal.
// Values that cannot be represented in JSON are a contract violation.
func (m Move) Key() (string, error) {
	b, err := json.Marshal(m.Value)
	if err != nil {
		return "", fmt.Errorf("encode move value: %w", ErrSerialization)
	}
	return string(b), nil
}

// Int extracts the move value as an integer. JSON decoding turns numbers
// into float64, so both int and float64 representations are accepted.
// Used by depth-indexed queries that assume integer move encodings.
func (m Move) Int() (int, bool) {
	switch v := m.Value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	}
	return 0, false
}

// String renders the move value for display.
func (m Move) String() string {
	b, err := json.Marshal(m.Value)
	if err != nil {
		return fmt.Sprintf("%v", m.Value)
	}
	return string(b)
}
