package xmltree

import (
	"bytes"
	"encoding/json"
)

type Kind uint8

const (
	Null Kind = iota
	Scalar
	Sequence
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return "null"
	}
}

// Value is the converted form of an element: nothing, a text scalar, a
// sequence of repeated siblings, or an ordered mapping.
type Value struct {
	kind  Kind
	text  string
	items []Value
	m     *Map
}

func NullValue() Value { return Value{} }

func ScalarValue(text string) Value { return Value{kind: Scalar, text: text} }

func SequenceValue(items ...Value) Value { return Value{kind: Sequence, items: items} }

func MappingValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: Mapping, m: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

// Text returns the scalar text. ok is false for any other kind.
func (v Value) Text() (string, bool) {
	if v.kind != Scalar {
		return "", false
	}
	return v.text, true
}

// Map returns the underlying mapping, or nil when v is not a mapping.
func (v Value) Map() *Map {
	if v.kind != Mapping {
		return nil
	}
	return v.m
}

// Items flattens the single-versus-repeated ambiguity: a sequence yields its
// items, null yields nothing and any other value yields itself.
func (v Value) Items() []Value {
	switch v.kind {
	case Null:
		return nil
	case Sequence:
		return v.items
	default:
		return []Value{v}
	}
}

// Get looks up a key of a mapping value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Mapping {
		return Value{}, false
	}
	return v.m.Get(key)
}

// Lookup follows a path of mapping keys.
func (v Value) Lookup(path ...string) (Value, bool) {
	current := v
	for _, key := range path {
		next, ok := current.Get(key)
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// Attr returns the text of the attribute key "@name", or "" when missing.
func (v Value) Attr(name string) string {
	attr, ok := v.Get(AttrPrefix + name)
	if !ok {
		return ""
	}
	text, _ := attr.Text()
	return text
}

// Field returns the attribute "@name" if present, else the child "name"
// when that child is a scalar.
func (v Value) Field(name string) string {
	if text := v.Attr(name); text != "" {
		return text
	}
	child, ok := v.Get(name)
	if !ok {
		return ""
	}
	text, _ := child.Text()
	return text
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Scalar:
		return json.Marshal(v.text)
	case Sequence:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	case Mapping:
		return v.m.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// Map is a string keyed mapping which remembers insertion order.
type Map struct {
	keys   []string
	values map[string]Value
}

func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key. Existing keys keep their position.
func (m *Map) Set(key string, value Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')

		encodedValue, err := m.values[key].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
