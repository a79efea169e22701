// Package checklist keeps the checklist structure of a document valid across
// conversion, Enter, Backspace and paste.
package checklist

import (
	"github.com/google/uuid"

	"github.com/starford/stencil/internal/document"
	"github.com/starford/stencil/internal/editor"
)

// NewID mints a listId or itemId.
func NewID() string { return uuid.NewString() }

// ConvertBlockToChecklist turns block into a checklist item. The item joins a
// checklist directly before or after the block, or a new checklist takes the
// block's place. It returns nil for checklist nodes and anything that is not
// a paragraph-like block.
func ConvertBlockToChecklist(tx *editor.Txn, block *document.Node) *document.Node {
	if block == nil || block.Parent() == nil || block.Parent().Ancestor(document.KindChecklistItem) != nil {
		return nil
	}
	switch block.Kind() {
	case document.KindParagraph, document.KindHeading, document.KindQuote:
	default:
		return nil
	}

	var (
		prev = block.PrevSibling()
		next = block.NextSibling()
		list *document.Node
	)
	switch {
	case document.IsChecklistList(prev):
		list = prev
	case document.IsChecklistList(next):
		list = next
	}

	listID := NewID()
	if list != nil {
		listID = document.ListID(list)
	}
	item := document.New(tx, document.KindChecklistItem, document.ChecklistItemAttrs{
		BlockAttrs: document.BlockAttrsOf(block),
		ListID:     listID,
		ItemID:     NewID(),
	})
	moveContent(tx, block, item)

	switch {
	case list == prev && list != nil:
		list.Append(item)
		block.Remove()
	case list != nil:
		list.Prepend(item)
		block.Remove()
	default:
		list = document.NewChecklistList(tx, listID)
		block.Replace(list)
		list.Append(item)
	}
	return item
}

// moveContent moves the children of block into item. Runs of inline children
// are wrapped in a paragraph and block children are moved as they are. The
// item always ends up with a paragraph.
func moveContent(m document.KeyMinter, block, item *document.Node) {
	var p *document.Node
	hasParagraph := false
	for _, c := range block.Children() {
		if !c.Kind().IsInline() {
			p = nil
			hasParagraph = hasParagraph || document.IsParagraph(c)
			item.Append(c)
			continue
		}
		if p == nil {
			p = document.NewParagraph(m)
			item.Append(p)
			hasParagraph = true
		}
		p.Append(c)
	}
	if !hasParagraph {
		item.Append(document.NewParagraph(m))
	}
}

// emptyItemAtCaret returns the checklist item holding a collapsed caret when
// that item has no content.
func emptyItemAtCaret(tx *editor.Txn) *document.Node {
	sel := tx.Selection()
	if !sel.IsCollapsed() {
		return nil
	}
	anchor := tx.AnchorNode()
	if anchor == nil {
		return nil
	}
	item := anchor.Ancestor(document.KindChecklistItem)
	if item == nil || !item.IsEmpty() || !document.IsChecklistList(item.Parent()) {
		return nil
	}
	return item
}

// InsertParagraphFromEmptyChecklist leaves a checklist on Enter in an empty
// item: a paragraph follows the list, later items move to a new list after
// that paragraph, and the empty item is removed. It declines unless the
// caret is collapsed in an empty item.
func InsertParagraphFromEmptyChecklist(tx *editor.Txn) bool {
	item := emptyItemAtCaret(tx)
	if item == nil {
		return false
	}
	list := item.Parent()
	following := item.NextSiblings()

	p := document.NewParagraph(tx)
	list.InsertAfter(p)
	if len(following) > 0 {
		split := document.NewChecklistList(tx, NewID())
		for _, f := range following {
			document.SetListID(f, document.ListID(split))
			split.Append(f)
		}
		p.InsertAfter(split)
	}

	item.Remove()
	if list.ChildCount() == 0 {
		list.Remove()
	}
	tx.SelectStart(p)
	return true
}

// BackspaceOnEmptyChecklist removes an empty item on Backspace. The caret
// moves to the end of the previous item, or when the item was first, to the
// start of what is left of the list or to the end of the list's previous
// sibling (or its parent) once the list is gone.
func BackspaceOnEmptyChecklist(tx *editor.Txn) bool {
	item := emptyItemAtCaret(tx)
	if item == nil {
		return false
	}
	if prev := item.PrevSibling(); prev != nil {
		item.Remove()
		tx.SelectEnd(prev)
		return true
	}

	list := item.Parent()
	item.Remove()
	if list.ChildCount() > 0 {
		tx.SelectStart(list)
		return true
	}
	prev, parent := list.PrevSibling(), list.Parent()
	list.Remove()
	if prev != nil {
		tx.SelectEnd(prev)
	} else {
		tx.SelectEnd(parent)
	}
	return true
}
