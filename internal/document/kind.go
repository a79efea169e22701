// Package document defines the rich-document tree: a keyed, ordered node tree
// whose node kinds form a closed set, each carrying its own attribute record.
package document

// Kind is the tag of a node in the document tree.
type Kind uint8

const (
	KindRoot Kind = iota
	KindParagraph
	KindHeading
	KindQuote
	KindList
	KindListItem
	KindChecklistList
	KindChecklistItem
	KindText
	KindLineBreak
	KindLink
	KindMention
	KindVariable
	KindImage
	KindVideo
	KindFile
)

var kindNames = [...]string{
	KindRoot:          "root",
	KindParagraph:     "paragraph",
	KindHeading:       "heading",
	KindQuote:         "quote",
	KindList:          "list",
	KindListItem:      "listitem",
	KindChecklistList: "checklist",
	KindChecklistItem: "checklist-item",
	KindText:          "text",
	KindLineBreak:     "linebreak",
	KindLink:          "link",
	KindMention:       "mention",
	KindVariable:      "variable",
	KindImage:         "image",
	KindVideo:         "video",
	KindFile:          "file",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// IsBlock reports whether nodes of this kind sit directly under the root or
// another block container.
func (k Kind) IsBlock() bool {
	switch k {
	case KindParagraph, KindHeading, KindQuote, KindList, KindListItem,
		KindChecklistList, KindChecklistItem:
		return true
	}
	return false
}

// IsInline reports whether nodes of this kind live inside a block.
func (k Kind) IsInline() bool {
	switch k {
	case KindText, KindLineBreak, KindLink, KindMention, KindVariable,
		KindImage, KindVideo, KindFile:
		return true
	}
	return false
}

// IsContainer reports whether nodes of this kind may have children.
func (k Kind) IsContainer() bool {
	return k == KindRoot || k == KindLink || k.IsBlock()
}

// IsAttachment reports whether the kind is one of the three attachment leaves.
func (k Kind) IsAttachment() bool {
	return k == KindImage || k == KindVideo || k == KindFile
}
