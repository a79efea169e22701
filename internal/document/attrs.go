package document

import "reflect"

// Attrs is the kind-specific attribute record of a node. The set of
// implementations is closed to this package.
type Attrs interface {
	attrs()
}

// NoAttrs is carried by kinds without attributes (root, list item, line break).
type NoAttrs struct{}

// BlockAttrs are shared by paragraph-like blocks.
type BlockAttrs struct {
	FormatType string
	Indent     int
}

type HeadingAttrs struct {
	BlockAttrs
	Level int
}

type ListAttrs struct {
	Ordered bool
	Start   int
}

type ChecklistListAttrs struct {
	ListID string
}

type ChecklistItemAttrs struct {
	BlockAttrs
	ListID string
	ItemID string
}

// Format is a bit set of inline text marks.
type Format uint8

const (
	FormatBold Format = 1 << iota
	FormatItalic
	FormatUnderline
	FormatCode
)

// Has reports whether every bit of f2 is set in f.
func (f Format) Has(f2 Format) bool { return f&f2 == f2 }

type TextAttrs struct {
	Text   string
	Format Format
}

type LinkAttrs struct {
	URL string
}

// MentionAttrs. UserID is nil for mentions that were never resolved.
type MentionAttrs struct {
	UserID      *int64
	DisplayName string
}

// VariableAttrs. Title and Subtitle are presentational and always come from
// the variable catalog at decode time.
type VariableAttrs struct {
	APIName  string
	Title    string
	Subtitle string
}

// AttachmentAttrs is shared by image, video and file nodes. ID is nil until
// the upload has been recorded.
type AttachmentAttrs struct {
	ID   *int64
	URL  string
	Name string
}

func (NoAttrs) attrs()            {}
func (BlockAttrs) attrs()         {}
func (HeadingAttrs) attrs()       {}
func (ListAttrs) attrs()          {}
func (ChecklistListAttrs) attrs() {}
func (ChecklistItemAttrs) attrs() {}
func (TextAttrs) attrs()          {}
func (LinkAttrs) attrs()          {}
func (MentionAttrs) attrs()       {}
func (VariableAttrs) attrs()      {}
func (AttachmentAttrs) attrs()    {}

// AttrsOf returns the attribute record of n when it has type T.
func AttrsOf[T Attrs](n *Node) (T, bool) {
	var zero T
	if n == nil {
		return zero, false
	}
	a, ok := n.attrs.(T)
	return a, ok
}

// defaultAttrs returns the zero attribute record for a kind.
func defaultAttrs(k Kind) Attrs {
	switch k {
	case KindParagraph, KindQuote:
		return BlockAttrs{}
	case KindHeading:
		return HeadingAttrs{Level: 1}
	case KindList:
		return ListAttrs{Start: 1}
	case KindChecklistList:
		return ChecklistListAttrs{}
	case KindChecklistItem:
		return ChecklistItemAttrs{}
	case KindText:
		return TextAttrs{}
	case KindLink:
		return LinkAttrs{}
	case KindMention:
		return MentionAttrs{}
	case KindVariable:
		return VariableAttrs{}
	case KindImage, KindVideo, KindFile:
		return AttachmentAttrs{}
	}
	return NoAttrs{}
}

// attrsFit reports whether a matches the record type expected for k.
func attrsFit(k Kind, a Attrs) bool {
	return a != nil && reflect.TypeOf(defaultAttrs(k)) == reflect.TypeOf(a)
}

// Int64 returns a pointer to v, for optional numeric ids.
func Int64(v int64) *int64 { return &v }
