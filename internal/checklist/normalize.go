package checklist

import (
	"strconv"

	"github.com/starford/stencil/internal/document"
)

// Normalize repairs checklist structure under root:
//   - items outside a checklist are wrapped into one (consecutive items of the
//     same listId share it, and an item directly after a checklist with its
//     listId joins that checklist)
//   - non-item children of a checklist become items
//   - items take their checklist's listId and duplicate itemIds are re-minted
//   - items without a paragraph get an empty one, stray inline content is
//     wrapped into a paragraph
//   - empty checklists are removed and the root never ends up empty
func Normalize(m document.KeyMinter, root *document.Node) {
	wrapStrayItems(m, root)
	root.Walk(func(n *document.Node) bool {
		if document.IsChecklistList(n) {
			repairList(m, n)
			return false
		}
		return true
	})
	if root.ChildCount() == 0 {
		root.Append(document.NewParagraph(m))
	}
}

func wrapStrayItems(m document.KeyMinter, parent *document.Node) {
	for _, c := range parent.Children() {
		if document.IsChecklistList(c) || !c.Kind().IsContainer() {
			continue
		}
		if !document.IsChecklistItem(c) {
			wrapStrayItems(m, c)
			continue
		}
		listID := document.ListID(c)
		if prev := c.PrevSibling(); document.IsChecklistList(prev) && document.ListID(prev) == listID {
			prev.Append(c)
			continue
		}
		list := document.NewChecklistList(m, listID)
		c.Replace(list)
		list.Append(c)
	}
}

func repairList(m document.KeyMinter, list *document.Node) {
	listID := document.ListID(list)
	if listID == "" {
		listID = NewID()
		document.SetListID(list, listID)
	}
	taken := make(map[string]bool)
	for _, c := range list.Children() {
		if document.IsChecklistItem(c) {
			a, _ := document.AttrsOf[document.ChecklistItemAttrs](c)
			taken[a.ItemID] = true
		}
	}
	seen := make(map[string]bool)
	for i, c := range list.Children() {
		item := c
		if !document.IsChecklistItem(c) {
			item = document.New(m, document.KindChecklistItem, document.ChecklistItemAttrs{BlockAttrs: document.BlockAttrsOf(c)})
			c.Replace(item)
			if c.Kind().IsInline() {
				item.Append(c)
			} else {
				item.Append(c.Children()...)
			}
		}
		a, _ := document.AttrsOf[document.ChecklistItemAttrs](item)
		a.ListID = listID
		switch {
		case a.ItemID == "":
			a.ItemID = NewID()
		case seen[a.ItemID]:
			a.ItemID = remint(a.ItemID, i, taken)
		}
		taken[a.ItemID] = true
		seen[a.ItemID] = true
		item.SetAttrs(a)
		repairItem(m, item)
	}
	if list.ChildCount() == 0 {
		list.Remove()
	}
}

// remint derives a replacement for a duplicate itemId from its position, so
// decoding the same text twice yields the same ids.
func remint(id string, pos int, taken map[string]bool) string {
	for n := pos; ; n++ {
		if c := id + "-" + strconv.Itoa(n); !taken[c] {
			return c
		}
	}
}

func repairItem(m document.KeyMinter, item *document.Node) {
	var (
		hasParagraph bool
		loose        *document.Node
	)
	for _, c := range item.Children() {
		switch {
		case c.Kind().IsInline():
			if loose == nil {
				loose = document.NewParagraph(m)
				c.InsertBefore(loose)
			}
			loose.Append(c)
			hasParagraph = true
		case document.IsParagraph(c):
			hasParagraph = true
			loose = nil
		case c.Kind() == document.KindChecklistList || c.Kind() == document.KindChecklistItem:
			// Checklists do not nest; lift the content into paragraphs.
			p := document.NewParagraph(m, document.NewText(m, c.TextContent(), 0))
			c.Replace(p)
			hasParagraph = true
			loose = nil
		default:
			loose = nil
		}
	}
	if !hasParagraph {
		item.Append(document.NewParagraph(m))
	}
}
