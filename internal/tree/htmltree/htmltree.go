// Package htmltree exposes an HTML document as a logical tree plus a live
// mirrored structure over the same DOM, so masking rewrites the document in
// place.
package htmltree

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/onboardbase/securelog/internal/tree"
	"golang.org/x/net/html"
)

// DefaultSelector picks the container scanned when none is given.
const DefaultSelector = "body"

// ErrNoContainer is returned when the selector matches nothing.
var ErrNoContainer = errors.New("container not found")

// Document is a parsed HTML document with one selected container.
type Document struct {
	doc       *goquery.Document
	container *html.Node
}

// Parse reads HTML from r and selects the first element matching selector.
func Parse(r io.Reader, selector string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if strings.TrimSpace(selector) == "" {
		selector = DefaultSelector
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoContainer, selector)
	}
	return &Document{doc: doc, container: sel.Get(0)}, nil
}

// Root returns a snapshot of the container as a logical tree.
func (d *Document) Root() tree.Node {
	return convert(d.container)
}

// Mirror returns the container as a mirrored structure backed by the DOM.
func (d *Document) Mirror() tree.OutputNode {
	return &outNode{n: d.container}
}

// Render writes the whole document, including any masking applied through
// the mirror.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.doc.Get(0))
}

// HTML returns the container's outer HTML.
func (d *Document) HTML() (string, error) {
	return goquery.OuterHtml(d.doc.FindNodes(d.container))
}

// kept reports whether n takes a position in both trees. Comments, doctypes
// and raw nodes are invisible to the scan.
func kept(n *html.Node) bool {
	return n.Type == html.TextNode || n.Type == html.ElementNode
}

func convert(n *html.Node) tree.Node {
	switch n.Type {
	case html.TextNode:
		return tree.Text(n.Data)
	case html.ElementNode:
		var kids []tree.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if kept(c) {
				kids = append(kids, convert(c))
			}
		}
		return tree.Primitive(n.Data, attrs(n), kids...)
	}
	return nil
}

// attrs keeps document order and drops repeated keys after the first.
func attrs(n *html.Node) []tree.Attr {
	if len(n.Attr) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(n.Attr))
	out := make([]tree.Attr, 0, len(n.Attr))
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tree.Attr{Key: key, Value: a.Val})
	}
	return out
}

type outNode struct {
	n    *html.Node
	kids []*html.Node
	read bool
}

func (o *outNode) IsText() bool { return o.n.Type == html.TextNode }

func (o *outNode) Text() string {
	if !o.IsText() {
		return ""
	}
	return o.n.Data
}

func (o *outNode) SetText(s string) {
	if o.IsText() {
		o.n.Data = s
	}
}

func (o *outNode) ChildAt(i int) tree.OutputNode {
	if !o.read {
		for c := o.n.FirstChild; c != nil; c = c.NextSibling {
			if kept(c) {
				o.kids = append(o.kids, c)
			}
		}
		o.read = true
	}
	if i < 0 || i >= len(o.kids) {
		return nil
	}
	return &outNode{n: o.kids[i]}
}
