package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/stencil/internal/catalog"
	"github.com/starford/stencil/internal/document"
)

// Parse decodes wire text into top-level blocks. Checklist items come back
// as loose ChecklistItem nodes in input order; grouping them into lists is
// left to the caller. Variables are resolved against cat, and unknown ones
// are dropped. A nil cat resolves nothing.
func (c *Codec) Parse(src string, cat catalog.Catalog, m document.KeyMinter) (nodes []*document.Node, err error) {
	if i := invalidUTF8(src); i >= 0 {
		return nil, &DecodeError{Offset: i, Err: fmt.Errorf("invalid UTF-8")}
	}
	if cat == nil {
		cat = catalog.Empty{}
	}
	defer func() {
		if r := recover(); r != nil {
			nodes, err = nil, &DecodeError{Offset: -1, Err: fmt.Errorf("%v", r)}
		}
	}()

	source := splitAfterClose([]byte(strings.ReplaceAll(src, "\r\n", "\n")))
	pc := parser.NewContext()
	pc.Set(catalogKey, cat)
	doc := c.md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	b := &builder{source: source, m: m}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		nodes = append(nodes, b.block(n)...)
	}
	for _, n := range nodes {
		document.NormalizeText(n)
	}
	return nodes, nil
}

func invalidUTF8(s string) int {
	if utf8.ValidString(s) {
		return -1
	}
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return i
			}
		}
	}
	return -1
}

type builder struct {
	source []byte
	m      document.KeyMinter
}

func (b *builder) block(n ast.Node) []*document.Node {
	switch v := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return []*document.Node{document.NewParagraph(b.m, b.inlines(v, 0)...)}
	case *ast.Heading:
		return []*document.Node{document.NewHeading(b.m, v.Level, b.inlines(v, 0)...)}
	case *ast.Blockquote:
		return []*document.Node{document.NewQuote(b.m, b.flatten(v)...)}
	case *ast.List:
		return []*document.Node{b.list(v)}
	case *ChecklistItem:
		return []*document.Node{document.NewChecklistItem(b.m, v.ListID, v.ItemID, b.inlines(v, 0)...)}
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		return []*document.Node{document.NewParagraph(b.m, b.rawLines(v)...)}
	case *ast.ThematicBreak:
		return []*document.Node{document.NewParagraph(b.m, document.NewText(b.m, "---", 0))}
	}
	if n.HasChildren() {
		var out []*document.Node
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, b.block(c)...)
		}
		return out
	}
	return nil
}

func (b *builder) list(l *ast.List) *document.Node {
	list := document.NewList(b.m, l.IsOrdered(), l.Start)
	for it := l.FirstChild(); it != nil; it = it.NextSibling() {
		item := document.NewListItem(b.m)
		var inline []ast.Node
		for c := it.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				item.Append(b.joinBlocks(inline)...)
				inline = nil
				item.Append(b.list(sub))
				continue
			}
			inline = append(inline, c)
		}
		item.Append(b.joinBlocks(inline)...)
		list.Append(item)
	}
	return list
}

// flatten renders the blocks below n as one inline run separated by breaks.
func (b *builder) flatten(n ast.Node) []*document.Node {
	var blocks []ast.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		blocks = append(blocks, c)
	}
	return b.joinBlocks(blocks)
}

func (b *builder) joinBlocks(blocks []ast.Node) []*document.Node {
	var out []*document.Node
	for i, n := range blocks {
		if i > 0 {
			out = append(out, document.NewLineBreak(b.m))
		}
		for _, d := range b.block(n) {
			out = append(out, b.inlineOf(d)...)
		}
	}
	return out
}

// inlineOf unwraps the inline content of a decoded block.
func (b *builder) inlineOf(n *document.Node) []*document.Node {
	if n.Kind().IsInline() {
		return []*document.Node{n}
	}
	var out []*document.Node
	for i, c := range n.Children() {
		if i > 0 && c.Kind().IsBlock() {
			out = append(out, document.NewLineBreak(b.m))
		}
		out = append(out, b.inlineOf(c)...)
	}
	return out
}

func (b *builder) rawLines(n ast.Node) []*document.Node {
	var format document.Format
	if _, ok := n.(*ast.HTMLBlock); !ok {
		format = document.FormatCode
	}
	var out []*document.Node
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(b.source)), "\n")
		if i > 0 {
			out = append(out, document.NewLineBreak(b.m))
		}
		out = append(out, document.NewText(b.m, line, format))
	}
	if h, ok := n.(*ast.HTMLBlock); ok && h.HasClosure() {
		seg := h.ClosureLine
		out = append(out, document.NewLineBreak(b.m),
			document.NewText(b.m, strings.TrimRight(string(seg.Value(b.source)), "\n"), 0))
	}
	return out
}

func (b *builder) inlines(n ast.Node, f document.Format) []*document.Node {
	var out []*document.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, b.inline(c, f)...)
	}
	return out
}

func (b *builder) inline(n ast.Node, f document.Format) []*document.Node {
	switch v := n.(type) {
	case *ast.Text:
		value := v.Segment.Value(b.source)
		if !v.IsRaw() {
			value = util.UnescapePunctuations(value)
		}
		out := []*document.Node{document.NewText(b.m, string(value), f)}
		if v.SoftLineBreak() || v.HardLineBreak() {
			out = append(out, document.NewLineBreak(b.m))
		}
		return out
	case *ast.String:
		return []*document.Node{document.NewText(b.m, string(v.Value), f)}
	case *ast.CodeSpan:
		var buf bytes.Buffer
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				value := t.Segment.Value(b.source)
				if bytes.HasSuffix(value, []byte("\n")) {
					value = append(value[:len(value)-1:len(value)-1], ' ')
				}
				buf.Write(value)
			}
		}
		return []*document.Node{document.NewText(b.m, buf.String(), f|document.FormatCode)}
	case *ast.Emphasis:
		if v.Level >= 2 {
			return b.inlines(v, f|document.FormatBold)
		}
		return b.inlines(v, f|document.FormatItalic)
	case *Underline:
		return b.inlines(v, f|document.FormatUnderline)
	case *ast.Link:
		url := string(util.UnescapePunctuations(v.Destination))
		return []*document.Node{document.NewLink(b.m, url, b.inlines(v, f)...)}
	case *ast.Image:
		url := string(util.UnescapePunctuations(v.Destination))
		return []*document.Node{document.NewLink(b.m, url, b.inlines(v, f)...)}
	case *ast.AutoLink:
		url := string(v.URL(b.source))
		if v.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			url = "mailto:" + url
		}
		return []*document.Node{document.NewLink(b.m, url, document.NewText(b.m, string(v.Label(b.source)), f))}
	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			buf.Write(seg.Value(b.source))
		}
		return []*document.Node{document.NewText(b.m, buf.String(), f)}
	case *Mention:
		return []*document.Node{document.NewMention(b.m, document.Int64(v.UserID), v.DisplayName)}
	case *Variable:
		if !v.Resolved {
			return nil
		}
		return []*document.Node{document.NewVariable(b.m, v.APIName, v.Title, v.Subtitle)}
	case *Attachment:
		return []*document.Node{document.NewAttachment(b.m, v.EntityKind, v.ID, v.URL, v.Name)}
	}
	return b.inlines(n, f)
}
