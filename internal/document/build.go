package document

// Constructors for each kind. Every constructor mints the node's key from m.

func NewRoot(m KeyMinter) *Node { return New(m, KindRoot, nil) }

func NewParagraph(m KeyMinter, children ...*Node) *Node {
	return New(m, KindParagraph, nil).Append(children...)
}

func NewHeading(m KeyMinter, level int, children ...*Node) *Node {
	return New(m, KindHeading, HeadingAttrs{Level: level}).Append(children...)
}

func NewQuote(m KeyMinter, children ...*Node) *Node {
	return New(m, KindQuote, nil).Append(children...)
}

func NewList(m KeyMinter, ordered bool, start int) *Node {
	return New(m, KindList, ListAttrs{Ordered: ordered, Start: start})
}

func NewListItem(m KeyMinter, children ...*Node) *Node {
	return New(m, KindListItem, nil).Append(children...)
}

func NewChecklistList(m KeyMinter, listID string) *Node {
	return New(m, KindChecklistList, ChecklistListAttrs{ListID: listID})
}

// NewChecklistItem creates an item holding one paragraph with the given inline children.
func NewChecklistItem(m KeyMinter, listID, itemID string, inline ...*Node) *Node {
	item := New(m, KindChecklistItem, ChecklistItemAttrs{ListID: listID, ItemID: itemID})
	return item.Append(NewParagraph(m, inline...))
}

func NewText(m KeyMinter, text string, format Format) *Node {
	return New(m, KindText, TextAttrs{Text: text, Format: format})
}

func NewLineBreak(m KeyMinter) *Node { return New(m, KindLineBreak, nil) }

func NewLink(m KeyMinter, url string, children ...*Node) *Node {
	return New(m, KindLink, LinkAttrs{URL: url}).Append(children...)
}

func NewMention(m KeyMinter, userID *int64, displayName string) *Node {
	return New(m, KindMention, MentionAttrs{UserID: userID, DisplayName: displayName})
}

func NewVariable(m KeyMinter, apiName, title, subtitle string) *Node {
	return New(m, KindVariable, VariableAttrs{APIName: apiName, Title: title, Subtitle: subtitle})
}

// NewAttachment creates an image, video or file node.
func NewAttachment(m KeyMinter, k Kind, id *int64, url, name string) *Node {
	if !k.IsAttachment() {
		panic("document: " + k.String() + " is not an attachment kind")
	}
	return New(m, k, AttachmentAttrs{ID: id, URL: url, Name: name})
}

// Type guards.

func IsParagraph(n *Node) bool     { return n != nil && n.kind == KindParagraph }
func IsChecklistList(n *Node) bool { return n != nil && n.kind == KindChecklistList }
func IsChecklistItem(n *Node) bool { return n != nil && n.kind == KindChecklistItem }
func IsText(n *Node) bool          { return n != nil && n.kind == KindText }
func IsLink(n *Node) bool          { return n != nil && n.kind == KindLink }
func IsMention(n *Node) bool       { return n != nil && n.kind == KindMention }
func IsVariable(n *Node) bool      { return n != nil && n.kind == KindVariable }
func IsAttachment(n *Node) bool    { return n != nil && n.kind.IsAttachment() }

// ListID returns the listId of a checklist list or item.
func ListID(n *Node) string {
	switch a := n.attrs.(type) {
	case ChecklistListAttrs:
		return a.ListID
	case ChecklistItemAttrs:
		return a.ListID
	}
	return ""
}

// SetListID rewrites the listId of a checklist list or item.
func SetListID(n *Node, id string) {
	switch a := n.attrs.(type) {
	case ChecklistListAttrs:
		a.ListID = id
		n.attrs = a
	case ChecklistItemAttrs:
		a.ListID = id
		n.attrs = a
	}
}

// BlockAttrsOf returns the format/indent of paragraph-like blocks.
func BlockAttrsOf(n *Node) BlockAttrs {
	switch a := n.attrs.(type) {
	case BlockAttrs:
		return a
	case HeadingAttrs:
		return a.BlockAttrs
	case ChecklistItemAttrs:
		return a.BlockAttrs
	}
	return BlockAttrs{}
}

// NormalizeText merges adjacent text siblings with the same format and drops
// empty text nodes, recursively.
func NormalizeText(n *Node) {
	var prev *Node
	for _, c := range n.Children() {
		if c.kind != KindText {
			prev = nil
			if c.kind.IsContainer() {
				NormalizeText(c)
			}
			continue
		}
		a := c.attrs.(TextAttrs)
		if a.Text == "" {
			c.Remove()
			continue
		}
		if prev != nil {
			pa := prev.attrs.(TextAttrs)
			if pa.Format == a.Format {
				pa.Text += a.Text
				prev.attrs = pa
				c.Remove()
				continue
			}
		}
		prev = c
	}
}
