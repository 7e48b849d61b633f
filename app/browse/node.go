package browse

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type selectionNode struct {
	sel *goquery.Selection
}

var _ Node = selectionNode{}

// Parse builds a Node tree from raw markup. Used by tests and by anything that
// already holds page bytes.
func Parse(markup string) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	return selectionNode{sel: doc.Selection}, nil
}

func (n selectionNode) Find(pattern string) []Node {
	var out []Node
	n.sel.Find(pattern).Each(func(_ int, s *goquery.Selection) {
		out = append(out, selectionNode{sel: s})
	})
	return out
}

func (n selectionNode) Text() string {
	return strings.TrimSpace(n.sel.Text())
}

func (n selectionNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n selectionNode) Tag() string {
	return goquery.NodeName(n.sel)
}

func (n selectionNode) Parent() (Node, bool) {
	p := n.sel.Parent()
	if p.Length() == 0 {
		return nil, false
	}
	return selectionNode{sel: p}, true
}

func (n selectionNode) Children() []Node {
	var out []Node
	n.sel.Children().Each(func(_ int, s *goquery.Selection) {
		out = append(out, selectionNode{sel: s})
	})
	return out
}
