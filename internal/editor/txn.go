package editor

import (
	"sort"

	"github.com/starford/stencil/internal/document"
)

// Txn is the write scope of one Update. It is the only source of node keys.
type Txn struct {
	root      *document.Node
	selection Selection
	keys      document.KeyMinter
	tags      map[string]struct{}
}

// NewKey implements document.KeyMinter.
func (tx *Txn) NewKey() document.Key { return tx.keys.NewKey() }

func (tx *Txn) Root() *document.Node { return tx.root }

// NodeByKey looks a node up in the working tree.
func (tx *Txn) NodeByKey(k document.Key) *document.Node {
	if k == "" {
		return nil
	}
	return tx.root.Find(k)
}

func (tx *Txn) Selection() Selection { return tx.selection }

func (tx *Txn) SetSelection(s Selection) { tx.selection = s }

// SelectStart collapses the selection at the start of n.
func (tx *Txn) SelectStart(n *document.Node) { tx.selection = Caret(startPoint(n)) }

// SelectEnd collapses the selection at the end of n.
func (tx *Txn) SelectEnd(n *document.Node) { tx.selection = Caret(endPoint(n)) }

// AnchorNode returns the node holding the selection anchor.
func (tx *Txn) AnchorNode() *document.Node { return tx.NodeByKey(tx.selection.Anchor.Key) }

// AnchorBlock returns the top-level block that contains the anchor.
func (tx *Txn) AnchorBlock() *document.Node {
	n := tx.AnchorNode()
	for n != nil && n.Parent() != nil && n.Parent() != tx.root {
		n = n.Parent()
	}
	if n == tx.root {
		return nil
	}
	return n
}

func (tx *Txn) HasTag(tag string) bool {
	_, ok := tx.tags[tag]
	return ok
}

func (tx *Txn) AddTag(tag string) { tx.tags[tag] = struct{}{} }

// Tags returns the update tags in sorted order.
func (tx *Txn) Tags() []string {
	out := make([]string, 0, len(tx.tags))
	for t := range tx.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// fixSelection moves a selection that points at removed nodes to the end of
// the document.
func (tx *Txn) fixSelection() {
	if tx.NodeByKey(tx.selection.Anchor.Key) != nil && tx.NodeByKey(tx.selection.Focus.Key) != nil {
		return
	}
	tx.SelectEnd(tx.root)
}
