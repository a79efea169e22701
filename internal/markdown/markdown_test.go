package markdown

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/stencil/internal/catalog"
	"github.com/starford/stencil/internal/document"
)

var clients = catalog.Map{"client_name": {Title: "Client", Subtitle: "s"}}

func parse(t *testing.T, src string, cat catalog.Catalog) []*document.Node {
	t.Helper()
	nodes, err := Default().Parse(src, cat, document.NewSequence("t"))
	require.NoError(t, err)
	return nodes
}

func TestParse_ChecklistItems(t *testing.T) {
	nodes := parse(t, "[clist:aaa|bbb]First check[/clist]\n[clist:aaa|ccc]\n*Second check*\n[/clist]", nil)
	require.Len(t, nodes, 2)

	first, ok := document.AttrsOf[document.ChecklistItemAttrs](nodes[0])
	require.True(t, ok)
	assert.Equal(t, "aaa", first.ListID)
	assert.Equal(t, "bbb", first.ItemID)
	assert.Equal(t, "First check", nodes[0].TextContent())

	second, ok := document.AttrsOf[document.ChecklistItemAttrs](nodes[1])
	require.True(t, ok)
	assert.Equal(t, "ccc", second.ItemID)
	para := nodes[1].FirstChild()
	require.True(t, document.IsParagraph(para))
	require.Equal(t, 1, para.ChildCount())
	text, _ := document.AttrsOf[document.TextAttrs](para.FirstChild())
	assert.Equal(t, "Second check", text.Text)
	assert.True(t, text.Format.Has(document.FormatItalic))
}

func TestParse_ChecklistKeepsInnerNewlines(t *testing.T) {
	nodes := parse(t, "[clist:l|i]line one\nline two[/clist]\nafter", nil)
	require.Len(t, nodes, 2)
	para := nodes[0].FirstChild()
	kinds := []document.Kind{}
	for _, c := range para.Children() {
		kinds = append(kinds, c.Kind())
	}
	assert.Equal(t, []document.Kind{document.KindText, document.KindLineBreak, document.KindText}, kinds)
	assert.Equal(t, "line one\nline two", nodes[0].TextContent())
	assert.Equal(t, "after", nodes[1].TextContent())
}

func TestParse_ContentAfterChecklistClose(t *testing.T) {
	itemIDs := func(nodes []*document.Node) []string {
		var ids []string
		for _, n := range nodes {
			if a, ok := document.AttrsOf[document.ChecklistItemAttrs](n); ok {
				ids = append(ids, a.ItemID)
			}
		}
		return ids
	}

	nodes := parse(t, "[clist:a|b]one[/clist][clist:a|c]two[/clist]", nil)
	require.Len(t, nodes, 2)
	assert.Equal(t, []string{"b", "c"}, itemIDs(nodes))
	assert.Equal(t, "two", nodes[1].TextContent())

	nodes = parse(t, "[clist:a|b]one[/clist] tail text", nil)
	require.Len(t, nodes, 2)
	assert.Equal(t, "one", nodes[0].TextContent())
	assert.True(t, document.IsParagraph(nodes[1]))
	assert.Equal(t, "tail text", nodes[1].TextContent())

	nodes = parse(t, "[clist:a|b]one\ntwo[/clist] more\n[clist:a|c]x[/clist]", nil)
	assert.Equal(t, []string{"b", "c"}, itemIDs(nodes))
	require.Len(t, nodes, 3)
	assert.Equal(t, "more", nodes[1].TextContent())
}

func TestSplitAfterClose_LeavesFencedCode(t *testing.T) {
	src := "```\n[clist:a|b]one[/clist] tail\n```\n[clist:a|c]x[/clist]y"
	assert.Equal(t, "```\n[clist:a|b]one[/clist] tail\n```\n[clist:a|c]x[/clist]\ny",
		string(splitAfterClose([]byte(src))))
	assert.Equal(t, "plain\n", string(splitAfterClose([]byte("plain\n"))))
}

func TestParse_ChecklistInterruptsParagraph(t *testing.T) {
	nodes := parse(t, "intro\n[clist:l|i]task[/clist]", nil)
	require.Len(t, nodes, 2)
	assert.True(t, document.IsParagraph(nodes[0]))
	assert.True(t, document.IsChecklistItem(nodes[1]))
}

func TestParse_Variable(t *testing.T) {
	nodes := parse(t, "{{client_name}}[variable_name:ignored]", clients)
	require.Len(t, nodes, 1)
	require.Equal(t, 1, nodes[0].ChildCount())
	v, ok := document.AttrsOf[document.VariableAttrs](nodes[0].FirstChild())
	require.True(t, ok)
	assert.Equal(t, document.VariableAttrs{APIName: "client_name", Title: "Client", Subtitle: "s"}, v)

	nodes = parse(t, "{{client_name}}[variable_name:ignored]", catalog.Map{})
	require.Len(t, nodes, 1)
	assert.Equal(t, 0, nodes[0].ChildCount())
}

func TestParse_UnknownVariableIsConsumed(t *testing.T) {
	nodes := parse(t, "Hi {{missing}} there", clients)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Hi  there", nodes[0].TextContent())
}

func TestParse_Mention(t *testing.T) {
	for _, src := range []string{"[John|42]", "[@John|42]"} {
		nodes := parse(t, src, nil)
		require.Len(t, nodes, 1, src)
		m, ok := document.AttrsOf[document.MentionAttrs](nodes[0].FirstChild())
		require.True(t, ok, src)
		assert.Equal(t, "John", m.DisplayName)
		require.NotNil(t, m.UserID)
		assert.Equal(t, int64(42), *m.UserID)
	}
}

func TestParse_PipeLinkIsNotMention(t *testing.T) {
	nodes := parse(t, "[a|1](https://example.com)", nil)
	require.Len(t, nodes, 1)
	link := nodes[0].FirstChild()
	require.True(t, document.IsLink(link))
	assert.Equal(t, "a|1", link.TextContent())
}

func TestParse_Formatting(t *testing.T) {
	nodes := parse(t, "++under++ and **bold** *it* `co*de`", nil)
	require.Len(t, nodes, 1)
	var got []document.TextAttrs
	for _, c := range nodes[0].Children() {
		a, ok := document.AttrsOf[document.TextAttrs](c)
		require.True(t, ok)
		got = append(got, a)
	}
	assert.Equal(t, []document.TextAttrs{
		{Text: "under", Format: document.FormatUnderline},
		{Text: " and "},
		{Text: "bold", Format: document.FormatBold},
		{Text: " "},
		{Text: "it", Format: document.FormatItalic},
		{Text: " "},
		{Text: "co*de", Format: document.FormatCode},
	}, got)
}

func TestParse_Attachments(t *testing.T) {
	src := `![diagram](https://bucket.s3.amazonaws.com/d.png) ` +
		`[ ](https://x.com/doc.pdf "attachment_id:5 entityType:File") ` +
		`![alt](https://example.com/p.png)`
	nodes := parse(t, src, nil)
	require.Len(t, nodes, 1)

	var attachments []*document.Node
	var links []*document.Node
	for _, c := range nodes[0].Children() {
		switch {
		case document.IsAttachment(c):
			attachments = append(attachments, c)
		case document.IsLink(c):
			links = append(links, c)
		}
	}
	require.Len(t, attachments, 2)
	assert.Equal(t, document.KindImage, attachments[0].Kind())
	img, _ := document.AttrsOf[document.AttachmentAttrs](attachments[0])
	assert.Equal(t, document.AttachmentAttrs{URL: "https://bucket.s3.amazonaws.com/d.png", Name: "diagram"}, img)

	assert.Equal(t, document.KindFile, attachments[1].Kind())
	file, _ := document.AttrsOf[document.AttachmentAttrs](attachments[1])
	assert.Equal(t, document.AttachmentAttrs{ID: document.Int64(5), URL: "https://x.com/doc.pdf", Name: "doc.pdf"}, file)

	require.Len(t, links, 1)
	assert.Equal(t, "alt", links[0].TextContent())
}

func TestResolveTarget_Precedence(t *testing.T) {
	c := Default()
	tests := []struct {
		name  string
		dest  string
		title string
		image bool
		want  document.Kind
	}{
		{"explicit image", "https://x.com/a.pdf", "entityType:Image", true, document.KindImage},
		{"image needs bang", "https://x.com/a.png", "entityType:Image", false, document.KindFile},
		{"explicit video", "https://x.com/a", "entityType:video", false, document.KindVideo},
		{"unknown type inferred", "https://x.com/a.mp4", "entityType:Audio", false, document.KindVideo},
		{"explicit link", "https://x.com/a.png", "entityType:Link", true, document.KindLink},
		{"storage host inferred", "https://bucket.storage.googleapis.com/a.mov", "", false, document.KindVideo},
		{"plain link", "https://example.com/a.png", "", true, document.KindLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.resolveTarget(tt.dest, tt.title, tt.image).kind)
		})
	}

	target := c.resolveTarget("https://x.com/a.pdf", "attachment_id:12 entityType:File", false)
	require.NotNil(t, target.id)
	assert.Equal(t, int64(12), *target.id)
}

func TestParse_InvalidUTF8(t *testing.T) {
	_, err := Default().Parse("a\xffb", nil, document.NewSequence("t"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Offset)
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(Options{VariablePattern: "("})
	assert.Error(t, err)
}

func TestEncode_EmptyChecklistItemIsDropped(t *testing.T) {
	m := document.NewSequence("e")
	root := document.NewRoot(m)
	root.Append(document.NewChecklistList(m, "l1").Append(
		document.NewChecklistItem(m, "l1", "x1"),
		document.NewChecklistItem(m, "l1", "x2", document.NewText(m, "kept", 0)),
	))
	out := Default().Encode(root)
	assert.False(t, regexp.MustCompile(`\[clist:l1\|x1\]`).MatchString(out))
	assert.Equal(t, "[clist:l1|x2]kept[/clist]", out)

	only := document.NewRoot(m)
	only.Append(document.NewChecklistList(m, "l1").Append(document.NewChecklistItem(m, "l1", "x1")))
	assert.NotContains(t, Default().Encode(only), "clist")
}

func TestEncode_Tokens(t *testing.T) {
	m := document.NewSequence("e")
	root := document.NewRoot(m)
	root.Append(
		document.NewParagraph(m,
			document.NewMention(m, document.Int64(42), "John"),
			document.NewText(m, " ", 0),
			document.NewVariable(m, "client_name", "Client", "s"),
		),
		document.NewParagraph(m,
			document.NewAttachment(m, document.KindImage, document.Int64(7), "https://cdn.example.com/a.png", "a.png"),
		),
		document.NewParagraph(m,
			document.NewLink(m, "https://cdn.example.com/a.png", document.NewText(m, "site", 0)),
		),
		document.NewParagraph(m,
			document.NewAttachment(m, document.KindVideo, nil, "https://cdn.example.com/v.mp4", "v.mp4"),
		),
	)
	assert.Equal(t,
		"[John|42] {{client_name}}\n\n"+
			`![a.png](https://cdn.example.com/a.png "attachment_id:7 entityType:Image")`+"\n\n"+
			"[site](https://cdn.example.com/a.png)\n\n"+
			`[ ](https://cdn.example.com/v.mp4 "entityType:Video")`,
		Default().Encode(root))
}

func TestEncode_Marks(t *testing.T) {
	m := document.NewSequence("e")
	p := document.NewParagraph(m,
		document.NewText(m, "Hello ", 0),
		document.NewText(m, "bold ", document.FormatBold),
		document.NewText(m, "both", document.FormatBold|document.FormatItalic),
		document.NewText(m, " it", document.FormatItalic),
	)
	assert.Equal(t, "Hello **bold *both*** *it*", Default().Encode(p))
}

func TestEncode_Escaping(t *testing.T) {
	m := document.NewSequence("e")
	tests := []struct {
		text string
		want string
	}{
		{"# not heading", `\# not heading`},
		{"1. not a list", `1\. not a list`},
		{"- dash", `\- dash`},
		{"a *star* [x] {{v}} <b> a+b", `a \*star\* \[x\] \{\{v\}\} \<b> a\+b`},
		{"client_name _lead", `client_name \_lead`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		p := document.NewParagraph(m, document.NewText(m, tt.text, 0))
		out := Default().Encode(p)
		assert.Equal(t, tt.want, out, tt.text)

		nodes := parse(t, out, nil)
		require.Len(t, nodes, 1, out)
		assert.Equal(t, tt.text, nodes[0].TextContent(), out)
	}
}

func TestEncode_ParenAfterMention(t *testing.T) {
	m := document.NewSequence("e")
	p := document.NewParagraph(m,
		document.NewMention(m, document.Int64(1), "Ann"),
		document.NewText(m, "(team)", 0),
	)
	out := Default().Encode(p)
	assert.Equal(t, `[Ann|1]\(team)`, out)

	nodes := parse(t, out, nil)
	require.Len(t, nodes, 1)
	assert.True(t, document.IsMention(nodes[0].FirstChild()))
	assert.Equal(t, "Ann(team)", nodes[0].TextContent())
}

func TestEncode_EscapedCloseTokenStaysInItem(t *testing.T) {
	m := document.NewSequence("e")
	item := document.NewChecklistItem(m, "l", "i", document.NewText(m, "see [/clist] here", 0))
	out := Default().Encode(item)
	nodes := parse(t, out, nil)
	require.Len(t, nodes, 1, out)
	assert.Equal(t, "see [/clist] here", nodes[0].TextContent())
}

func TestEncode_CodeSpanFence(t *testing.T) {
	assert.Equal(t, "`a`", codeSpan("a"))
	assert.Equal(t, "``a`b``", codeSpan("a`b"))
	assert.Equal(t, "`` `a ``", codeSpan("`a"))
}

func records(nodes []*document.Node) []document.Record {
	return document.SerializeAll(nodes)
}

func TestRoundTrip_InlineContent(t *testing.T) {
	m := document.NewSequence("r")
	p := document.NewParagraph(m,
		document.NewText(m, "Hello ", 0),
		document.NewText(m, "bold", document.FormatBold),
		document.NewText(m, " and ", 0),
		document.NewText(m, "it", document.FormatItalic),
		document.NewText(m, " ", 0),
		document.NewText(m, "under", document.FormatUnderline),
		document.NewText(m, ", call ", 0),
		document.NewMention(m, document.Int64(42), "John"),
		document.NewText(m, " about ", 0),
		document.NewVariable(m, "client_name", "Client", "s"),
		document.NewText(m, " ", 0),
		document.NewLink(m, "https://example.com/x?a=1", document.NewText(m, "site", 0)),
		document.NewText(m, " ", 0),
		document.NewText(m, "x*y", document.FormatCode),
	)
	out := Default().Encode(p)
	assert.Equal(t, "Hello **bold** and *it* ++under++, call [John|42] about {{client_name}} [site](https://example.com/x?a=1) `x*y`", out)

	nodes := parse(t, out, clients)
	assert.Equal(t, records([]*document.Node{p}), records(nodes))
}

func TestRoundTrip_Blocks(t *testing.T) {
	m := document.NewSequence("r")
	blocks := []*document.Node{
		document.NewHeading(m, 2, document.NewText(m, "Title", 0)),
		document.NewParagraph(m,
			document.NewText(m, "line one", 0),
			document.NewLineBreak(m),
			document.NewText(m, "line two", 0),
		),
		document.NewQuote(m, document.NewText(m, "quoted", 0)),
		document.NewList(m, true, 1).Append(
			document.NewListItem(m, document.NewText(m, "first", 0)),
			document.NewListItem(m, document.NewText(m, "second", 0)),
		),
		document.NewList(m, false, 0).Append(
			document.NewListItem(m, document.NewText(m, "a", 0)),
		),
		document.NewChecklistItem(m, "l1", "i1",
			document.NewText(m, "task ", 0),
			document.NewText(m, "now", document.FormatBold),
		),
	}
	out := Default().EncodeNodes(blocks)
	assert.Equal(t, "## Title\n\nline one\nline two\n\n> quoted\n\n1. first\n2. second\n\n- a\n\n[clist:l1|i1]task **now**[/clist]", out)

	nodes := parse(t, out, nil)
	assert.Equal(t, records(blocks), records(nodes))
}

func TestRoundTrip_TildeFenceIsEscaped(t *testing.T) {
	m := document.NewSequence("r")
	blocks := []*document.Node{
		document.NewParagraph(m, document.NewText(m, "~~~", 0)),
		document.NewChecklistItem(m, "l", "i", document.NewText(m, "task", 0)),
		document.NewParagraph(m,
			document.NewText(m, "after", 0),
			document.NewLineBreak(m),
			document.NewText(m, "~~~~ x", 0),
		),
	}
	out := Default().EncodeNodes(blocks)
	assert.Equal(t, "\\~~~\n\n[clist:l|i]task[/clist]\n\nafter\n\\~~~~ x", out)

	nodes := parse(t, out, nil)
	assert.Equal(t, records(blocks), records(nodes))
}

func TestCanonicalize(t *testing.T) {
	in := "{{a}}[variable_name:A] [[@Bob|3]]\n[clist:l|i][/clist]"
	assert.Equal(t, "{{a}} [Bob|3]", Canonicalize(in))
	assert.Equal(t, "[Bob|3]", Canonicalize("[@Bob|3]"))
	assert.Equal(t, Canonicalize(in), Canonicalize(Canonicalize(in)))
}
