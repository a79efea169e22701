package editor

import (
	"github.com/starford/stencil/internal/document"
)

// VariablePayload is the argument of CommandInsertVariable. Title and
// Subtitle come from the catalog at the time of insertion.
type VariablePayload struct {
	APIName  string `json:"api_name"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// Upload is one result of the upload transport.
type Upload struct {
	ID   int64  `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// LinkPayload is the argument of CommandToggleLink. An empty URL removes the link.
type LinkPayload struct {
	URL string `json:"url"`
}

func registerInlineCommands(e *Engine) {
	e.RegisterCommand(CommandInsertVariable, PriorityEditor, func(tx *Txn, payload any) bool {
		p, ok := payload.(VariablePayload)
		if !ok || p.APIName == "" {
			return false
		}
		return InsertInline(tx, document.NewVariable(tx, p.APIName, p.Title, p.Subtitle))
	})
	e.RegisterCommand(CommandInsertAttachment, PriorityEditor, func(tx *Txn, payload any) bool {
		uploads, ok := payload.([]Upload)
		if !ok || len(uploads) == 0 {
			return false
		}
		for _, u := range uploads {
			kind := document.AttachmentKindFor(u.Name)
			if kind == document.KindFile {
				kind = document.AttachmentKindFor(u.URL)
			}
			if !InsertInline(tx, document.NewAttachment(tx, kind, document.Int64(u.ID), u.URL, u.Name)) {
				return false
			}
		}
		return true
	})
	e.RegisterCommand(CommandToggleLink, PriorityEditor, func(tx *Txn, payload any) bool {
		p, ok := payload.(LinkPayload)
		if !ok {
			return false
		}
		return ToggleLink(tx, p.URL)
	})
}

func hostsInline(n *document.Node) bool {
	switch n.Kind() {
	case document.KindParagraph, document.KindHeading, document.KindQuote,
		document.KindListItem, document.KindLink:
		return true
	}
	return false
}

// InsertInline places n at the caret and moves the caret after it. A
// non-collapsed selection inserts at the anchor.
func InsertInline(tx *Txn, n *document.Node) bool {
	at := tx.Selection().Anchor
	target := tx.NodeByKey(at.Key)
	if target == nil {
		return false
	}
	if !document.IsText(target) && !hostsInline(target) {
		at = endPoint(target)
		target = tx.NodeByKey(at.Key)
		if !document.IsText(target) && !hostsInline(target) {
			p := document.NewParagraph(tx)
			tx.Root().Append(p)
			target, at = p, Point{Key: p.Key(), Offset: 0}
		}
	}

	if document.IsText(target) {
		before, after := splitText(tx, target, at.Offset)
		switch {
		case before == nil:
			after.InsertBefore(n)
		default:
			before.InsertAfter(n)
		}
	} else {
		i := min(max(at.Offset, 0), target.ChildCount())
		if i == target.ChildCount() {
			target.Append(n)
		} else {
			target.Child(i).InsertBefore(n)
		}
	}
	tx.SetSelection(Caret(Point{Key: n.Parent().Key(), Offset: n.Index() + 1}))
	return true
}

// splitText splits t at a rune offset. Either result is nil when the offset
// falls on that edge; otherwise t keeps the first half.
func splitText(tx *Txn, t *document.Node, offset int) (before, after *document.Node) {
	a, _ := document.AttrsOf[document.TextAttrs](t)
	runes := []rune(a.Text)
	switch {
	case offset <= 0:
		return nil, t
	case offset >= len(runes):
		return t, nil
	}
	t.SetAttrs(document.TextAttrs{Text: string(runes[:offset]), Format: a.Format})
	rest := document.NewText(tx, string(runes[offset:]), a.Format)
	t.InsertAfter(rest)
	return t, rest
}

// ToggleLink sets, changes or removes the link around the selection.
func ToggleLink(tx *Txn, url string) bool {
	sel := tx.Selection()
	anchor := tx.AnchorNode()
	if anchor == nil {
		return false
	}
	if link := anchor.Ancestor(document.KindLink); link != nil {
		if url == "" {
			for _, c := range link.Children() {
				link.InsertBefore(c)
			}
			link.Remove()
			return true
		}
		link.SetAttrs(document.LinkAttrs{URL: url})
		return true
	}
	if url == "" || !document.IsText(anchor) {
		return false
	}

	target := anchor
	if !sel.IsCollapsed() && sel.Focus.Key == sel.Anchor.Key {
		from, to := sel.Anchor.Offset, sel.Focus.Offset
		if from > to {
			from, to = to, from
		}
		_, mid := splitText(tx, anchor, from)
		if mid == nil {
			return false
		}
		splitText(tx, mid, to-from)
		target = mid
	}
	link := document.NewLink(tx, url)
	target.Replace(link)
	link.Append(target)
	tx.SelectEnd(link)
	return true
}
