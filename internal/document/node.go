package document

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Key identifies a node within one tree.
type Key string

// KeyMinter hands out keys that are unique within the tree being built.
type KeyMinter interface {
	NewKey() Key
}

// Sequence is a KeyMinter producing prefix1, prefix2, ...
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewKey() Key {
	return Key(fmt.Sprintf("%s%d", s.prefix, s.n.Add(1)))
}

// Node is one node of the document tree.
type Node struct {
	key      Key
	kind     Kind
	attrs    Attrs
	parent   *Node
	children []*Node
}

// New creates a detached node of kind k with a fresh key. Passing nil attrs
// selects the kind's zero record. It panics when attrs do not belong to k.
func New(m KeyMinter, k Kind, attrs Attrs) *Node {
	if attrs == nil {
		attrs = defaultAttrs(k)
	}
	if !attrsFit(k, attrs) {
		panic(fmt.Sprintf("document: %T is not an attribute record of %s", attrs, k))
	}
	return &Node{key: m.NewKey(), kind: k, attrs: attrs}
}

func (n *Node) Key() Key        { return n.key }
func (n *Node) Kind() Kind      { return n.kind }
func (n *Node) Attrs() Attrs    { return n.attrs }
func (n *Node) Parent() *Node   { return n.parent }
func (n *Node) ChildCount() int { return len(n.children) }

// SetAttrs replaces the attribute record. It panics on a record of the wrong kind.
func (n *Node) SetAttrs(a Attrs) {
	if !attrsFit(n.kind, a) {
		panic(fmt.Sprintf("document: %T is not an attribute record of %s", a, n.kind))
	}
	n.attrs = a
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

func (n *Node) FirstChild() *Node { return n.Child(0) }
func (n *Node) LastChild() *Node  { return n.Child(len(n.children) - 1) }

// Index returns the position of n among its siblings, or -1 when detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

func (n *Node) PrevSibling() *Node {
	if i := n.Index(); i > 0 {
		return n.parent.children[i-1]
	}
	return nil
}

func (n *Node) NextSibling() *Node {
	if i := n.Index(); i >= 0 {
		return n.parent.Child(i + 1)
	}
	return nil
}

// NextSiblings returns every sibling after n, in order.
func (n *Node) NextSiblings() []*Node {
	i := n.Index()
	if i < 0 {
		return nil
	}
	out := make([]*Node, len(n.parent.children)-i-1)
	copy(out, n.parent.children[i+1:])
	return out
}

// Append moves children to the end of n, detaching them from any previous parent.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		n.insertAt(len(n.children), c)
	}
	return n
}

// Prepend moves c to the front of n.
func (n *Node) Prepend(c *Node) *Node {
	n.insertAt(0, c)
	return n
}

// InsertBefore places x immediately before n.
func (n *Node) InsertBefore(x *Node) {
	n.mustParent().insertAt(n.Index(), x)
}

// InsertAfter places x immediately after n.
func (n *Node) InsertAfter(x *Node) {
	n.mustParent().insertAt(n.Index()+1, x)
}

// Remove detaches n from its parent. Removing a detached node is a no-op.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	i := n.Index()
	p.children = append(p.children[:i], p.children[i+1:]...)
	n.parent = nil
}

// Replace puts x where n was and detaches n.
func (n *Node) Replace(x *Node) {
	n.InsertBefore(x)
	n.Remove()
}

// Clear detaches every child.
func (n *Node) Clear() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

func (n *Node) insertAt(i int, c *Node) {
	if !n.kind.IsContainer() {
		panic(fmt.Sprintf("document: %s cannot hold children", n.kind))
	}
	for p := n; p != nil; p = p.parent {
		if p == c {
			panic("document: node inserted into its own subtree")
		}
	}
	if c.parent == n && c.Index() < i {
		i--
	}
	c.Remove()
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
	c.parent = n
}

func (n *Node) mustParent() *Node {
	if n.parent == nil {
		panic(fmt.Sprintf("document: %s %s is not attached", n.kind, n.key))
	}
	return n.parent
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}

// Find returns the node with key k in the subtree rooted at n.
func (n *Node) Find(k Key) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if found != nil {
			return false
		}
		if x.key == k {
			found = x
			return false
		}
		return true
	})
	return found
}

// Ancestor returns the nearest node, n included, whose kind is k.
func (n *Node) Ancestor(k Kind) *Node {
	for p := n; p != nil; p = p.parent {
		if p.kind == k {
			return p
		}
	}
	return nil
}

// Clone deep-copies the subtree, keeping keys. The copy is detached.
func (n *Node) Clone() *Node {
	c := &Node{key: n.key, kind: n.kind, attrs: n.attrs}
	if len(n.children) > 0 {
		c.children = make([]*Node, len(n.children))
		for i, ch := range n.children {
			cc := ch.Clone()
			cc.parent = c
			c.children[i] = cc
		}
	}
	return c
}

// TextContent returns the plain text of the subtree. Line breaks become "\n"
// and sibling blocks are separated by "\n".
func (n *Node) TextContent() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	switch n.kind {
	case KindText:
		b.WriteString(n.attrs.(TextAttrs).Text)
		return
	case KindLineBreak:
		b.WriteByte('\n')
		return
	case KindMention:
		b.WriteString(n.attrs.(MentionAttrs).DisplayName)
		return
	case KindVariable:
		a := n.attrs.(VariableAttrs)
		if a.Title != "" {
			b.WriteString(a.Title)
		} else {
			b.WriteString(a.APIName)
		}
		return
	case KindImage, KindVideo, KindFile:
		b.WriteString(n.attrs.(AttachmentAttrs).Name)
		return
	}
	for i, c := range n.children {
		if i > 0 && c.kind.IsBlock() {
			b.WriteByte('\n')
		}
		c.writeText(b)
	}
}

// IsEmpty reports whether the subtree holds no content: only blocks and
// empty text nodes.
func (n *Node) IsEmpty() bool {
	empty := true
	n.Walk(func(x *Node) bool {
		switch {
		case x.kind == KindText:
			if x.attrs.(TextAttrs).Text != "" {
				empty = false
			}
		case x.kind.IsInline():
			empty = false
		}
		return empty
	})
	return empty
}
