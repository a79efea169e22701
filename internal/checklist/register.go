package checklist

import (
	"github.com/starford/stencil/internal/document"
	"github.com/starford/stencil/internal/editor"
)

// Register binds the checklist commands and the repair transform to e. The
// returned func removes them again.
func Register(e *editor.Engine) func() {
	unregister := []func(){
		e.RegisterCommand(editor.CommandEnter, editor.PriorityLow, func(tx *editor.Txn, _ any) bool {
			return InsertParagraphFromEmptyChecklist(tx)
		}),
		e.RegisterCommand(editor.CommandBackspace, editor.PriorityLow, func(tx *editor.Txn, _ any) bool {
			return BackspaceOnEmptyChecklist(tx)
		}),
		e.RegisterCommand(editor.CommandInsertChecklist, editor.PriorityEditor, func(tx *editor.Txn, _ any) bool {
			item := ConvertBlockToChecklist(tx, tx.AnchorBlock())
			if item == nil {
				return false
			}
			tx.SelectEnd(item)
			return true
		}),
		e.RegisterCommand(editor.CommandPaste, editor.PriorityEditor, func(tx *editor.Txn, payload any) bool {
			records, ok := payload.([]document.Record)
			if !ok || len(records) == 0 {
				return false
			}
			nodes, err := document.DeserializeAll(records, tx)
			if err != nil {
				return false
			}
			return Paste(tx, nodes)
		}),
		e.RegisterTransform(func(tx *editor.Txn) {
			Normalize(tx, tx.Root())
		}),
	}
	return func() {
		for _, u := range unregister {
			u()
		}
	}
}

// Paste inserts clipboard blocks after the block holding the caret, once
// duplicate paragraphs are dropped and the checklists have new ids. Inline
// nodes are wrapped into a paragraph.
func Paste(tx *editor.Txn, nodes []*document.Node) bool {
	nodes = RemoveDuplicateClipboardParagraphs(nodes)
	AssignNewChecklistIds(nodes)
	if len(nodes) == 0 {
		return false
	}

	var blocks []*document.Node
	var loose *document.Node
	for _, n := range nodes {
		if n.Kind().IsInline() {
			if loose == nil {
				loose = document.NewParagraph(tx)
				blocks = append(blocks, loose)
			}
			loose.Append(n)
			continue
		}
		loose = nil
		if n.Kind() == document.KindRoot {
			blocks = append(blocks, n.Children()...)
			continue
		}
		blocks = append(blocks, n)
	}

	anchor := tx.AnchorBlock()
	for _, b := range blocks {
		if anchor == nil {
			tx.Root().Append(b)
		} else {
			anchor.InsertAfter(b)
		}
		anchor = b
	}
	tx.SelectEnd(anchor)
	return true
}
