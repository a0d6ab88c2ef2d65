package tree

// OutputNode is the mutable counterpart of a logical node. Child i of an
// output node mirrors child i of the logical node at the same path. Only text
// content is ever rewritten.
type OutputNode interface {
	IsText() bool
	Text() string
	SetText(s string)
	// ChildAt returns nil when i is out of range.
	ChildAt(i int) OutputNode
}

// OutText is an in-memory mirrored text node.
type OutText struct {
	Value string
}

func (t *OutText) IsText() bool           { return true }
func (t *OutText) Text() string           { return t.Value }
func (t *OutText) SetText(s string)       { t.Value = s }
func (t *OutText) ChildAt(int) OutputNode { return nil }

// OutElement is an in-memory mirrored element.
type OutElement struct {
	Children []OutputNode
}

func (e *OutElement) IsText() bool   { return false }
func (e *OutElement) Text() string   { return "" }
func (e *OutElement) SetText(string) {}

func (e *OutElement) ChildAt(i int) OutputNode {
	if i < 0 || i >= len(e.Children) {
		return nil
	}
	return e.Children[i]
}

// Mirror builds an in-memory output structure shaped like n. Nodes that are
// neither text nor elements get a nil slot so positions stay aligned.
func Mirror(n Node) OutputNode {
	switch v := n.(type) {
	case TextNode:
		return &OutText{Value: v.Text()}
	case ElementNode:
		kids := v.Children()
		out := &OutElement{Children: make([]OutputNode, len(kids))}
		for i, c := range kids {
			out.Children[i] = Mirror(c)
		}
		return out
	default:
		return nil
	}
}
