package xmltree

import "strings"

const (
	AttrPrefix = "@"
	TextKey    = "#text"
	TailKey    = "#tail"
)

type Options struct {
	// KeepNamespace keys children as "{space}local" instead of "local".
	KeepNamespace bool
	// KeepWhitespace disables trimming of text and tail content.
	KeepWhitespace bool
}

// Convert turns an element into a Value using the default options.
func Convert(e *Element) Value {
	return Options{}.Convert(e)
}

// ToMapping wraps the converted root under its own tag, {tag: value}.
func ToMapping(e *Element) *Map {
	return Options{}.ToMapping(e)
}

func (o Options) ToMapping(e *Element) *Map {
	m := NewMap()
	if e == nil {
		return m
	}
	m.Set(o.tag(e), o.Convert(e))
	return m
}

func (o Options) Convert(e *Element) Value {
	if e == nil {
		return NullValue()
	}

	m := NewMap()
	for _, attr := range e.Attrs {
		m.Set(AttrPrefix+attrName(attr), ScalarValue(attr.Value))
	}

	for _, child := range e.Children {
		value := o.Convert(child)
		key := o.tag(child)

		existing, ok := m.Get(key)
		switch {
		case !ok:
			m.Set(key, value)
		case existing.Kind() == Sequence:
			existing.items = append(existing.items, value)
			m.Set(key, existing)
		default:
			m.Set(key, SequenceValue(existing, value))
		}
	}

	text, tail := e.Text, e.Tail
	if !o.KeepWhitespace {
		text = strings.TrimSpace(text)
		tail = strings.TrimSpace(tail)
	}

	if tail != "" {
		m.Set(TailKey, ScalarValue(tail))
	}

	if m.Len() == 0 {
		if text == "" {
			return NullValue()
		}
		return ScalarValue(text)
	}

	if text != "" {
		m.Set(TextKey, ScalarValue(text))
	}
	return MappingValue(m)
}

func (o Options) tag(e *Element) string {
	if o.KeepNamespace && e.Name.Space != "" {
		return "{" + e.Name.Space + "}" + e.Name.Local
	}
	return e.Name.Local
}

func attrName(attr Attr) string {
	if attr.Name.Space == "" {
		return attr.Name.Local
	}
	return "{" + attr.Name.Space + "}" + attr.Name.Local
}
