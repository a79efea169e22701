package editor

import (
	"unicode/utf8"

	"github.com/starford/stencil/internal/document"
)

// Point is a caret position. On a text node Offset counts runes; on an
// element it counts children.
type Point struct {
	Key    document.Key `json:"key"`
	Offset int          `json:"offset"`
}

// Selection is an anchor/focus range.
type Selection struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// Caret returns a collapsed selection at p.
func Caret(p Point) Selection { return Selection{Anchor: p, Focus: p} }

func (s Selection) IsCollapsed() bool { return s.Anchor == s.Focus }

// IsZero reports whether no selection has been placed.
func (s Selection) IsZero() bool { return s == Selection{} }

// startPoint descends to the first leaf of n.
func startPoint(n *document.Node) Point {
	for n.ChildCount() > 0 {
		first := n.FirstChild()
		if !first.Kind().IsContainer() && !document.IsText(first) {
			break
		}
		n = first
	}
	return Point{Key: n.Key(), Offset: 0}
}

// endPoint descends to the last leaf of n.
func endPoint(n *document.Node) Point {
	for n.ChildCount() > 0 {
		last := n.LastChild()
		if !last.Kind().IsContainer() && !document.IsText(last) {
			break
		}
		n = last
	}
	if document.IsText(n) {
		a, _ := document.AttrsOf[document.TextAttrs](n)
		return Point{Key: n.Key(), Offset: utf8.RuneCountInString(a.Text)}
	}
	return Point{Key: n.Key(), Offset: n.ChildCount()}
}
