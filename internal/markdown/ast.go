package markdown

import (
	"strconv"

	"github.com/yuin/goldmark/ast"

	"github.com/starford/stencil/internal/document"
)

// goldmark AST nodes produced by the custom grammar rules.

var (
	KindChecklistItem = ast.NewNodeKind("ChecklistItem")
	KindMention       = ast.NewNodeKind("Mention")
	KindVariable      = ast.NewNodeKind("Variable")
	KindUnderline     = ast.NewNodeKind("Underline")
	KindAttachment    = ast.NewNodeKind("Attachment")
)

// ChecklistItem is one [clist:listId|itemId]...[/clist] block.
type ChecklistItem struct {
	ast.BaseBlock
	ListID string
	ItemID string

	closed bool
}

func (n *ChecklistItem) Kind() ast.NodeKind { return KindChecklistItem }

func (n *ChecklistItem) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"ListID": n.ListID, "ItemID": n.ItemID}, nil)
}

// Mention is a [displayName|userId] token.
type Mention struct {
	ast.BaseInline
	DisplayName string
	UserID      int64
}

func (n *Mention) Kind() ast.NodeKind { return KindMention }

func (n *Mention) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"DisplayName": n.DisplayName,
		"UserID":      strconv.FormatInt(n.UserID, 10),
	}, nil)
}

// Variable is a {{apiName}} token. Resolved is false when the catalog does
// not know the name; such nodes are dropped from the document tree.
type Variable struct {
	ast.BaseInline
	APIName  string
	Title    string
	Subtitle string
	Resolved bool
}

func (n *Variable) Kind() ast.NodeKind { return KindVariable }

func (n *Variable) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"APIName":  n.APIName,
		"Resolved": strconv.FormatBool(n.Resolved),
	}, nil)
}

// Underline wraps ++underlined++ text.
type Underline struct {
	ast.BaseInline
}

func (n *Underline) Kind() ast.NodeKind { return KindUnderline }

func (n *Underline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Attachment replaces a link or image that resolved to an uploaded entity.
type Attachment struct {
	ast.BaseInline
	EntityKind document.Kind
	ID         *int64
	URL        string
	Name       string
}

func (n *Attachment) Kind() ast.NodeKind { return KindAttachment }

func (n *Attachment) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"EntityKind": n.EntityKind.String(),
		"URL":        n.URL,
		"Name":       n.Name,
	}, nil)
}
