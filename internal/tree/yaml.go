package tree

import (
	"errors"
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// DecodeYAML reads a tree from a YAML document.
//
// A scalar is a text node. A mapping is an element with the keys:
//
//	type:      host element name (primitive)
//	component: construct name; omitted or empty means anonymous
//	props:     attribute mapping, order preserved
//	children:  a single node or a sequence of nodes
//
// A sequence at the top level is read as an anonymous element holding the items.
//
// Aliases are expanded in place. An alias that refers to an anchor it is nested
// in is an error, and so is a document that expands to more than MaxYAMLNodes
// nodes.
func DecodeYAML(b []byte) (Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if root.Kind == 0 {
		return nil, nil
	}
	d := &decoder{active: make(map[*yaml.Node]bool)}
	return d.node(&root)
}

// MaxYAMLNodes bounds the number of tree nodes one document may expand to.
const MaxYAMLNodes = 100_000

// ErrTooManyNodes is returned when alias expansion exceeds MaxYAMLNodes.
var ErrTooManyNodes = errors.New("tree: document expands to too many nodes")

type decoder struct {
	// active holds the anchors whose expansion is in progress.
	active map[*yaml.Node]bool
	nodes  int
}

func (d *decoder) count(n *yaml.Node) error {
	d.nodes++
	if d.nodes > MaxYAMLNodes {
		return fmt.Errorf("line %d: %w (limit %d)", n.Line, ErrTooManyNodes, MaxYAMLNodes)
	}
	return nil
}

func (d *decoder) node(n *yaml.Node) (Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.node(n.Content[0])
	case yaml.AliasNode:
		return d.alias(n)
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil, nil
		}
		if err := d.count(n); err != nil {
			return nil, err
		}
		return Text(n.Value), nil
	case yaml.SequenceNode:
		if err := d.count(n); err != nil {
			return nil, err
		}
		kids, err := d.children(n)
		if err != nil {
			return nil, err
		}
		return Component("", nil, kids...), nil
	case yaml.MappingNode:
		if err := d.count(n); err != nil {
			return nil, err
		}
		return d.element(n)
	}
	return nil, fmt.Errorf("tree: line %d: unsupported node", n.Line)
}

func (d *decoder) alias(n *yaml.Node) (Node, error) {
	target := n.Alias
	if target == nil {
		return nil, fmt.Errorf("tree: line %d: unknown alias %q", n.Line, n.Value)
	}
	if d.active[target] {
		return nil, fmt.Errorf("tree: line %d: recursive alias %q", n.Line, n.Value)
	}
	d.active[target] = true
	defer delete(d.active, target)
	return d.node(target)
}

func (d *decoder) element(n *yaml.Node) (Node, error) {
	if n.Anchor != "" {
		// The anchored mapping itself is being decoded; aliases inside it
		// point back here.
		d.active[n] = true
		defer delete(d.active, n)
	}
	el := &Element{}
	var typ, comp *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch k.Value {
		case "type":
			typ = v
		case "component":
			comp = v
		case "props":
			props, err := decodeProps(v)
			if err != nil {
				return nil, err
			}
			el.Props = props
		case "children":
			kids, err := d.children(v)
			if err != nil {
				return nil, err
			}
			el.Content = kids
		default:
			return nil, fmt.Errorf("tree: line %d: unknown key %q", k.Line, k.Value)
		}
	}
	switch {
	case typ != nil && comp != nil:
		return nil, fmt.Errorf("tree: line %d: element has both type and component", n.Line)
	case typ != nil:
		if typ.Kind != yaml.ScalarNode || typ.Value == "" {
			return nil, fmt.Errorf("tree: line %d: type must be a non-empty string", typ.Line)
		}
		el.Kind = Type{Name: typ.Value, Primitive: true}
	case comp != nil:
		if comp.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("tree: line %d: component must be a string", comp.Line)
		}
		el.Kind = Type{Name: comp.Value}
	}
	return el, nil
}

func (d *decoder) children(v *yaml.Node) ([]Node, error) {
	if v.Kind != yaml.SequenceNode {
		c, err := d.node(v)
		if err != nil || c == nil {
			return nil, err
		}
		return []Node{c}, nil
	}
	out := make([]Node, 0, len(v.Content))
	if v.Anchor != "" {
		d.active[v] = true
		defer delete(d.active, v)
	}
	for _, item := range v.Content {
		c, err := d.node(item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func decodeProps(v *yaml.Node) ([]Attr, error) {
	if v.Kind == yaml.ScalarNode && v.ShortTag() == "!!null" {
		return nil, nil
	}
	if v.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("tree: line %d: props must be a mapping", v.Line)
	}
	seen := make(map[string]bool, len(v.Content)/2)
	out := make([]Attr, 0, len(v.Content)/2)
	for i := 0; i+1 < len(v.Content); i += 2 {
		k, val := v.Content[i], v.Content[i+1]
		if seen[k.Value] {
			return nil, fmt.Errorf("tree: line %d: duplicate prop %q", k.Line, k.Value)
		}
		seen[k.Value] = true
		var value any
		if err := val.Decode(&value); err != nil {
			return nil, fmt.Errorf("tree: line %d: prop %q: %w", val.Line, k.Value, err)
		}
		out = append(out, Attr{Key: k.Value, Value: value})
	}
	return out, nil
}
