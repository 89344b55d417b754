package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ValueKind discriminates the FieldValue union.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
	KindDate
	KindPhotoList
)

// FieldValue is a tagged union holding one collected answer. Exactly one of
// the payload fields is meaningful, selected by Kind, so the validation and
// reconciliation engines can switch exhaustively instead of type-asserting.
type FieldValue struct {
	Kind   ValueKind
	Str    string
	Num    float64
	Bool   bool
	Photos []string
}

// StringValue builds a string field value.
func StringValue(s string) FieldValue { return FieldValue{Kind: KindString, Str: s} }

// NumberValue builds a numeric field value.
func NumberValue(n float64) FieldValue { return FieldValue{Kind: KindNumber, Num: n} }

// BoolValue builds a boolean field value.
func BoolValue(b bool) FieldValue { return FieldValue{Kind: KindBool, Bool: b} }

// DateValue builds a date field value from its ISO string form.
func DateValue(s string) FieldValue { return FieldValue{Kind: KindDate, Str: s} }

// PhotoListValue builds an ordered photo URL list value. A nil slice is
// normalized to an empty list so a field with no photos is present-but-empty,
// never absent.
func PhotoListValue(urls []string) FieldValue {
	if urls == nil {
		urls = []string{}
	}
	return FieldValue{Kind: KindPhotoList, Photos: urls}
}

// IsBlank reports whether the value counts as missing for required-field
// validation: empty or whitespace-only strings are blank; numeric zero and
// boolean false are not.
func (v FieldValue) IsBlank() bool {
	switch v.Kind {
	case KindString, KindDate:
		return strings.TrimSpace(v.Str) == ""
	case KindNumber, KindBool:
		return false
	case KindPhotoList:
		// Photo presence is established by reconciliation, not here.
		return false
	}
	return true
}

// Equal reports deep equality of two field values.
func (v FieldValue) Equal(other FieldValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindString, KindDate:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	case KindBool:
		return v.Bool == other.Bool
	case KindPhotoList:
		if len(v.Photos) != len(other.Photos) {
			return false
		}
		for i := range v.Photos {
			if v.Photos[i] != other.Photos[i] {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON writes the value in its natural JSON form: string, number,
// boolean, or array of URL strings.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString, KindDate:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindPhotoList:
		if v.Photos == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.Photos)
	}
	return nil, fmt.Errorf("unknown field value kind %d", v.Kind)
}

// UnmarshalJSON reconstructs the union from the natural JSON form. Strings
// matching an ISO date or timestamp come back as KindDate so a persisted
// record round-trips without losing the discriminator.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*v = StringValue("")
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if isISODate(s) {
			*v = DateValue(s)
		} else {
			*v = StringValue(s)
		}
		return nil
	case '[':
		var urls []string
		if err := json.Unmarshal(trimmed, &urls); err != nil {
			return err
		}
		*v = PhotoListValue(urls)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*v = NumberValue(n)
		return nil
	}
}

func isISODate(s string) bool {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return true
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	return false
}

// ValueMap is an insertion-ordered mapping of field name to FieldValue.
// The zero value is ready to use.
type ValueMap struct {
	keys []string
	vals map[string]FieldValue
}

// NewValueMap creates an empty value map.
func NewValueMap() ValueMap {
	return ValueMap{vals: make(map[string]FieldValue)}
}

// Get returns the value for name and whether it is present.
func (m *ValueMap) Get(name string) (FieldValue, bool) {
	v, ok := m.vals[name]
	return v, ok
}

// Set stores the value, appending the key on first insertion so iteration
// order matches insertion order.
func (m *ValueMap) Set(name string, value FieldValue) {
	if m.vals == nil {
		m.vals = make(map[string]FieldValue)
	}
	if _, exists := m.vals[name]; !exists {
		m.keys = append(m.keys, name)
	}
	m.vals[name] = value
}

// Len returns the number of entries.
func (m *ValueMap) Len() int {
	return len(m.keys)
}

// Keys returns the field names in insertion order.
func (m *ValueMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Clone returns an independent copy of the map.
func (m *ValueMap) Clone() ValueMap {
	clone := NewValueMap()
	for _, k := range m.keys {
		clone.Set(k, m.vals[k])
	}
	return clone
}

// Equal reports whether both maps hold the same entries in the same order.
func (m *ValueMap) Equal(other ValueMap) bool {
	if len(m.keys) != len(other.keys) {
		return false
	}
	for i, k := range m.keys {
		if other.keys[i] != k {
			return false
		}
		if !m.vals[k].Equal(other.vals[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes a JSON object with keys in insertion order.
func (m ValueMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order.
func (m *ValueMap) UnmarshalJSON(data []byte) error {
	*m = NewValueMap()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object for value map")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string key in value map")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var value FieldValue
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}
		m.Set(key, value)
	}

	// Consume closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
