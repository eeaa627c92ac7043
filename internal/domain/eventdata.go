package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ScalarKind tags which arm of the Scalar union is populated.
type ScalarKind int

const (
	KindString ScalarKind = iota
	KindNumber
	KindBool
)

// Scalar is a loosely typed event value: a string, a number, or a boolean.
// Numbers keep their textual form (json.Number) so "3.50" survives a round
// trip without float rewriting.
type Scalar struct {
	Kind ScalarKind
	Str  string
	Num  json.Number
	Bool bool
}

func StringValue(s string) Scalar { return Scalar{Kind: KindString, Str: s} }

func BoolValue(b bool) Scalar { return Scalar{Kind: KindBool, Bool: b} }

func NumberValue(n json.Number) Scalar { return Scalar{Kind: KindNumber, Num: n} }

func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case KindString:
		return json.Marshal(s.Str)
	case KindNumber:
		if s.Num == "" {
			return []byte("0"), nil
		}
		return []byte(s.Num), nil
	case KindBool:
		return json.Marshal(s.Bool)
	}
	return nil, fmt.Errorf("unknown scalar kind %d", s.Kind)
}

// Value returns the scalar as the matching native Go value, for callers that
// want an any (preview rendering, tests).
func (s Scalar) Value() any {
	switch s.Kind {
	case KindNumber:
		return s.Num
	case KindBool:
		return s.Bool
	default:
		return s.Str
	}
}

// EventData is an ordered mapping of string keys to scalar values. Key order
// follows insertion (and, when decoded, the order of the source document).
// It round-trips through JSON without reordering, which is why it cannot be
// a plain map.
type EventData struct {
	keys   []string
	values map[string]Scalar
}

func NewEventData() *EventData {
	return &EventData{values: make(map[string]Scalar)}
}

// Set inserts or overwrites a key. Overwriting keeps the key's original
// position.
func (d *EventData) Set(key string, v Scalar) {
	if d.values == nil {
		d.values = make(map[string]Scalar)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *EventData) Get(key string) (Scalar, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *EventData) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order. The slice is shared; callers must
// not mutate it.
func (d *EventData) Keys() []string {
	if d == nil {
		return nil
	}
	return d.keys
}

func (d *EventData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := d.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object of scalar values, preserving key
// order. Nested objects, arrays, and nulls are rejected: the data model is
// deliberately flat.
func (d *EventData) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("data must be a JSON object")
	}

	d.keys = nil
	d.values = make(map[string]Scalar)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := valTok.(type) {
		case string:
			d.Set(key, StringValue(v))
		case json.Number:
			d.Set(key, NumberValue(v))
		case bool:
			d.Set(key, BoolValue(v))
		case nil:
			return fmt.Errorf("key %q: null values are not supported", key)
		case json.Delim:
			return fmt.Errorf("key %q: nested values are not supported", key)
		default:
			return fmt.Errorf("key %q: unsupported value type %T", key, v)
		}
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
