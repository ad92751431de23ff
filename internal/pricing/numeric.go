package pricing

import (
	"bytes"
	"encoding/json"
)

// Numeric is a number that may have arrived malformed on the wire.
// Decoding never fails: anything other than a JSON number yields Valid == false.
type Numeric struct {
	Value float64
	Valid bool
}

// Num returns a valid Numeric.
func Num(v float64) Numeric {
	return Numeric{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	*n = Numeric{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*n = Numeric{Value: v, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler. Invalid values encode as null.
func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}
