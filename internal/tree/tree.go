package tree

// UnknownType is the resolved name of an element whose construct has no name.
const UnknownType = "Unknown"

// Node is a node of the logical tree. The inspector understands two shapes:
// TextNode and ElementNode. Any other value, nil included, holds nothing to
// scan.
type Node interface{}

// TextNode is a node carrying plain text.
type TextNode interface {
	Text() string
}

// ElementNode is a composite node.
type ElementNode interface {
	Type() Type
	Attrs() []Attr
	Children() []Node
}

// Type identifies an element. Primitive types are host elements named by a
// string (a tag); the rest are named or anonymous constructs.
type Type struct {
	Name      string
	Primitive bool
}

// Resolved returns the label used as a result origin.
func (t Type) Resolved() string {
	if t.Name == "" {
		return UnknownType
	}
	return t.Name
}

// Attr is one attribute. Keys are unique within an element and order is
// significant; only string values are scanned.
type Attr struct {
	Key   string
	Value any
}

// Text is a plain text node.
type Text string

func (t Text) Text() string { return string(t) }

// Element is the in-memory composite node.
type Element struct {
	Kind    Type
	Props   []Attr
	Content []Node
}

func (e *Element) Type() Type       { return e.Kind }
func (e *Element) Attrs() []Attr    { return e.Props }
func (e *Element) Children() []Node { return e.Content }

// Primitive returns a host element named tag.
func Primitive(tag string, props []Attr, children ...Node) *Element {
	return &Element{Kind: Type{Name: tag, Primitive: true}, Props: props, Content: children}
}

// Component returns a named construct; an empty name makes it anonymous.
func Component(name string, props []Attr, children ...Node) *Element {
	return &Element{Kind: Type{Name: name}, Props: props, Content: children}
}
