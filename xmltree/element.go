package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrEmptyDocument = errors.New("document has no root element")
	ErrUnclosedTag   = errors.New("document ends inside an element")
)

type Attr struct {
	Name  xml.Name
	Value string
}

// Element is a parsed markup node. Text holds character data before the
// first child, Tail holds character data following the element's end tag
// up to the next sibling.
type Element struct {
	Name     xml.Name
	Attrs    []Attr
	Children []*Element
	Text     string
	Tail     string
}

// Parse reads a whole document and returns its root element.
func Parse(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)

	var (
		root  *Element
		stack []*Element
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			elem := &Element{Name: t.Name}
			for _, attr := range t.Attr {
				if isNamespaceDecl(attr.Name) {
					continue
				}
				elem.Attrs = append(elem.Attrs, Attr{Name: attr.Name, Value: attr.Value})
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("failed to parse document: multiple root elements")
				}
				root = elem
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, elem)
			}
			stack = append(stack, elem)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			current := stack[len(stack)-1]
			if n := len(current.Children); n > 0 {
				current.Children[n-1].Tail += string(t)
			} else {
				current.Text += string(t)
			}
		}
	}

	if len(stack) > 0 {
		return nil, ErrUnclosedTag
	}
	if root == nil {
		return nil, ErrEmptyDocument
	}

	return root, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(doc string) (*Element, error) {
	return Parse(strings.NewReader(doc))
}

func isNamespaceDecl(name xml.Name) bool {
	return name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns")
}
