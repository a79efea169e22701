package checklist

import (
	"strings"

	"github.com/starford/stencil/internal/document"
)

// normalize trims s and collapses internal whitespace runs to one space.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// signature is the value-equality key of a checklist: its items' texts in order.
func signature(list *document.Node) string {
	texts := make([]string, 0, list.ChildCount())
	for _, item := range list.Children() {
		texts = append(texts, normalize(item.TextContent()))
	}
	return strings.Join(texts, "\x1f")
}

// RemoveDuplicateClipboardParagraphs drops the plain paragraphs that a copied
// checklist carries alongside its items, then keeps only the first of any
// identical checklists. Order of the survivors is preserved.
func RemoveDuplicateClipboardParagraphs(nodes []*document.Node) []*document.Node {
	itemTexts := make(map[string]bool)
	for _, n := range nodes {
		n.Walk(func(x *document.Node) bool {
			if document.IsChecklistItem(x) {
				if t := normalize(x.TextContent()); t != "" {
					itemTexts[t] = true
				}
				return false
			}
			return true
		})
	}

	kept := make([]*document.Node, 0, len(nodes))
	for _, n := range nodes {
		if document.IsParagraph(n) {
			t := normalize(n.TextContent())
			afterList := len(kept) > 0 && document.IsChecklistList(kept[len(kept)-1])
			if (t == "" && afterList && plainText(n)) || (t != "" && itemTexts[t]) {
				continue
			}
		}
		kept = append(kept, n)
	}

	seen := make(map[string]bool)
	out := kept[:0]
	for _, n := range kept {
		if document.IsChecklistList(n) {
			sig := signature(n)
			if seen[sig] {
				continue
			}
			seen[sig] = true
		}
		out = append(out, n)
	}
	return out
}

// plainText reports whether every inline leaf under p is text or a line break.
func plainText(p *document.Node) bool {
	plain := true
	p.Walk(func(x *document.Node) bool {
		if x != p && x.ChildCount() == 0 && !document.IsText(x) && x.Kind() != document.KindLineBreak {
			plain = false
		}
		return plain
	})
	return plain
}

// AssignNewChecklistIds gives every checklist in nodes a fresh listId and
// every item a fresh itemId. Items outside a checklist get a listId of their own.
func AssignNewChecklistIds(nodes []*document.Node) {
	for _, n := range nodes {
		n.Walk(func(x *document.Node) bool {
			switch {
			case document.IsChecklistList(x):
				listID := NewID()
				document.SetListID(x, listID)
				for _, item := range x.Children() {
					if document.IsChecklistItem(item) {
						setIDs(item, listID)
					}
				}
			case document.IsChecklistItem(x) && !document.IsChecklistList(x.Parent()):
				setIDs(x, NewID())
			}
			return true
		})
	}
}

func setIDs(item *document.Node, listID string) {
	a, _ := document.AttrsOf[document.ChecklistItemAttrs](item)
	a.ListID = listID
	a.ItemID = NewID()
	item.SetAttrs(a)
}
