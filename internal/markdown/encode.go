package markdown

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/stencil/internal/document"
)

// Encode renders the children of root as wire text. Top-level blocks are
// separated by a blank line, items of one checklist by a single newline.
// Empty blocks and empty checklist items produce nothing. The result is a
// pure function of the tree.
func (c *Codec) Encode(root *document.Node) string {
	if root == nil {
		return ""
	}
	if root.Kind() != document.KindRoot {
		return c.EncodeNodes([]*document.Node{root})
	}
	return c.EncodeNodes(root.Children())
}

// EncodeNodes renders a sequence of top-level nodes. Consecutive inline
// nodes are treated as one paragraph.
func (c *Codec) EncodeNodes(nodes []*document.Node) string {
	var chunks []string
	var loose []*document.Node
	flush := func() {
		if len(loose) > 0 {
			if s := encodeInline(loose); strings.TrimSpace(s) != "" {
				chunks = append(chunks, s)
			}
			loose = nil
		}
	}
	for _, n := range nodes {
		if n.Kind().IsInline() {
			loose = append(loose, n)
			continue
		}
		flush()
		if s := encodeBlock(n); s != "" {
			chunks = append(chunks, s)
		}
	}
	flush()
	return strings.Join(chunks, "\n\n")
}

func encodeBlock(n *document.Node) string {
	switch n.Kind() {
	case document.KindParagraph:
		return trimBlank(encodeInline(n.Children()))
	case document.KindHeading:
		line := strings.TrimSpace(strings.ReplaceAll(encodeInline(n.Children()), "\n", " "))
		if line == "" {
			return ""
		}
		if strings.HasSuffix(line, "#") && !strings.HasSuffix(line, `\#`) {
			line = line[:len(line)-1] + `\#`
		}
		level := 1
		if a, ok := document.AttrsOf[document.HeadingAttrs](n); ok && a.Level >= 1 && a.Level <= 6 {
			level = a.Level
		}
		return strings.Repeat("#", level) + " " + line
	case document.KindQuote:
		body := trimBlank(encodeContent(n))
		if body == "" {
			return ""
		}
		return prefixLines(body, "> ", "> ")
	case document.KindList:
		return encodeList(n)
	case document.KindChecklistList:
		var items []string
		for _, it := range n.Children() {
			if s := encodeBlock(it); s != "" {
				items = append(items, s)
			}
		}
		return strings.Join(items, "\n")
	case document.KindChecklistItem:
		return encodeChecklistItem(n)
	case document.KindListItem:
		return trimBlank(encodeContent(n))
	}
	return trimBlank(encodeContent(n))
}

// encodeContent renders a container whose children may be inline runs or
// blocks, one per line.
func encodeContent(n *document.Node) string {
	var lines []string
	var run []*document.Node
	flush := func() {
		if len(run) > 0 {
			lines = append(lines, encodeInline(run))
			run = nil
		}
	}
	for _, c := range n.Children() {
		if c.Kind().IsInline() {
			run = append(run, c)
			continue
		}
		flush()
		if c.Kind() == document.KindParagraph {
			lines = append(lines, trimBlank(encodeInline(c.Children())))
			continue
		}
		if s := encodeBlock(c); s != "" {
			lines = append(lines, s)
		}
	}
	flush()
	return strings.Join(lines, "\n")
}

var idSanitizer = regexp.MustCompile(`[^\w-]+`)

func sanitizeID(id string) string {
	id = idSanitizer.ReplaceAllString(id, "")
	if id == "" {
		return "_"
	}
	return id
}

func encodeChecklistItem(n *document.Node) string {
	if n.IsEmpty() {
		return ""
	}
	body := trimBlank(encodeContent(n))
	if body == "" {
		return ""
	}
	a, _ := document.AttrsOf[document.ChecklistItemAttrs](n)
	return "[clist:" + sanitizeID(a.ListID) + "|" + sanitizeID(a.ItemID) + "]" + body + "[/clist]"
}

func encodeList(n *document.Node) string {
	a, _ := document.AttrsOf[document.ListAttrs](n)
	num := a.Start
	if num < 1 {
		num = 1
	}
	var lines []string
	for _, it := range n.Children() {
		marker := "- "
		if a.Ordered {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		body := encodeListItem(it)
		lines = append(lines, prefixLines(body, marker, strings.Repeat(" ", len(marker))))
	}
	return strings.Join(lines, "\n")
}

func encodeListItem(n *document.Node) string {
	if n.Kind() != document.KindListItem {
		return encodeBlock(n)
	}
	var parts []string
	var run []*document.Node
	flush := func() {
		if s := trimBlank(encodeInline(run)); s != "" {
			parts = append(parts, s)
		}
		run = nil
	}
	for _, c := range n.Children() {
		switch {
		case c.Kind().IsInline():
			run = append(run, c)
		case c.Kind() == document.KindParagraph:
			flush()
			run = c.Children()
			flush()
		default:
			flush()
			if s := encodeBlock(c); s != "" {
				parts = append(parts, s)
			}
		}
	}
	flush()
	return strings.Join(parts, "\n")
}

func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		p := rest
		if i == 0 {
			p = first
		}
		if l == "" {
			lines[i] = strings.TrimRight(p, " ")
			continue
		}
		lines[i] = p + l
	}
	return strings.Join(lines, "\n")
}

// trimBlank drops leading and trailing blank lines.
func trimBlank(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r == '\n' || r == ' ' || r == '\t' })
}

type mark struct {
	format document.Format
	delim  string
}

// Opening order of nested marks. Italic uses a single asterisk.
var marks = []mark{
	{document.FormatBold, "**"},
	{document.FormatItalic, "*"},
	{document.FormatUnderline, "++"},
}

// inlineWriter renders inline nodes. Whitespace at the edge of a formatted
// run is moved outside the delimiters so they stay flanking.
type inlineWriter struct {
	b       strings.Builder
	open    []mark
	pending string

	lineStart    bool
	digitsOnly   bool
	afterMention bool
}

func encodeInline(nodes []*document.Node) string {
	w := &inlineWriter{lineStart: true}
	w.nodes(nodes)
	w.closeAll()
	return w.b.String()
}

func (w *inlineWriter) nodes(nodes []*document.Node) {
	for _, n := range nodes {
		w.node(n)
	}
}

func (w *inlineWriter) node(n *document.Node) {
	switch n.Kind() {
	case document.KindText:
		a := n.Attrs().(document.TextAttrs)
		for i, part := range strings.Split(a.Text, "\n") {
			if i > 0 {
				w.newline()
			}
			w.text(part, a.Format)
		}
	case document.KindLineBreak:
		w.newline()
	case document.KindMention:
		a := n.Attrs().(document.MentionAttrs)
		w.closeAll()
		name := strings.TrimSpace(strings.Map(func(r rune) rune {
			switch r {
			case '[', ']', '|', '\n', '\r':
				return -1
			}
			return r
		}, a.DisplayName))
		name = strings.TrimLeft(name, "@")
		if a.UserID == nil || *a.UserID < 0 || name == "" {
			w.text("@"+a.DisplayName, 0)
			return
		}
		w.raw("[" + name + "|" + strconv.FormatInt(*a.UserID, 10) + "]")
		w.afterMention = true
	case document.KindVariable:
		a := n.Attrs().(document.VariableAttrs)
		w.closeAll()
		w.raw("{{" + a.APIName + "}}")
	case document.KindImage, document.KindVideo, document.KindFile:
		w.closeAll()
		w.raw(encodeAttachment(n))
	case document.KindLink:
		a := n.Attrs().(document.LinkAttrs)
		w.closeAll()
		w.raw("[")
		w.nodes(n.Children())
		w.closeAll()
		w.pending = ""
		w.raw("](" + linkDestination(a.URL) + ")")
	default:
		w.nodes(n.Children())
	}
}

func encodeAttachment(n *document.Node) string {
	a := n.Attrs().(document.AttachmentAttrs)
	var typ string
	switch n.Kind() {
	case document.KindImage:
		typ = "Image"
	case document.KindVideo:
		typ = "Video"
	default:
		typ = "File"
	}
	title := "entityType:" + typ
	if a.ID != nil {
		title = "attachment_id:" + strconv.FormatInt(*a.ID, 10) + " " + title
	}
	dest := linkDestination(a.URL) + ` "` + title + `"`
	if n.Kind() == document.KindImage {
		return "![" + escapeText(strings.ReplaceAll(a.Name, "\n", " ")) + "](" + dest + ")"
	}
	return "[ ](" + dest + ")"
}

// linkDestination escapes a URL for use inside (...), switching to the
// angle-bracket form when it holds spaces or parentheses.
func linkDestination(url string) string {
	url = strings.NewReplacer("\n", "", "\r", "").Replace(url)
	if url == "" {
		return "<>"
	}
	if strings.ContainsAny(url, " ()<>") {
		return "<" + strings.NewReplacer(`\`, `\\`, "<", `\<`, ">", `\>`).Replace(url) + ">"
	}
	return strings.ReplaceAll(url, `\`, `\\`)
}

func (w *inlineWriter) newline() {
	w.closeAll()
	w.pending = ""
	w.b.WriteByte('\n')
	w.lineStart = true
	w.digitsOnly = false
	w.afterMention = false
}

// raw writes already-escaped output.
func (w *inlineWriter) raw(s string) {
	w.flushPending()
	w.b.WriteString(s)
	w.lineStart = false
	w.digitsOnly = false
	w.afterMention = false
}

func (w *inlineWriter) flushPending() {
	if !w.lineStart {
		w.b.WriteString(w.pending)
	}
	w.pending = ""
}

func (w *inlineWriter) closeAll() {
	w.closeTo(0)
}

func (w *inlineWriter) closeTo(depth int) {
	for len(w.open) > depth {
		m := w.open[len(w.open)-1]
		w.open = w.open[:len(w.open)-1]
		w.b.WriteString(m.delim)
	}
}

func (w *inlineWriter) text(s string, f document.Format) {
	core := strings.TrimLeftFunc(s, unicode.IsSpace)
	w.pending += s[:len(s)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail := core[len(trimmed):]
	if trimmed == "" {
		w.pending += trail
		return
	}

	// Keep the longest prefix of open marks that f still wants.
	keep := 0
	for keep < len(w.open) && f.Has(w.open[keep].format) {
		keep++
	}
	w.closeTo(keep)
	w.flushPending()
	for _, m := range marks {
		if f.Has(m.format) && !w.isOpen(m.format) {
			w.b.WriteString(m.delim)
			w.open = append(w.open, m)
		}
	}

	if f.Has(document.FormatCode) {
		w.b.WriteString(codeSpan(trimmed))
		w.lineStart, w.digitsOnly, w.afterMention = false, false, false
	} else {
		w.escaped(trimmed)
	}
	w.pending = trail
}

func (w *inlineWriter) isOpen(f document.Format) bool {
	for _, m := range w.open {
		if m.format == f {
			return true
		}
	}
	return false
}

// escaped writes s with every character that could start a token or
// markdown construct escaped.
func (w *inlineWriter) escaped(s string) {
	if w.afterMention && strings.HasPrefix(s, "(") {
		w.b.WriteByte('\\')
	}
	w.afterMention = false
	for i, r := range s {
		switch {
		case w.lineStart && strings.ContainsRune("#>-=~", r):
			w.b.WriteByte('\\')
		case w.digitsOnly && (r == '.' || r == ')'):
			w.b.WriteByte('\\')
		case needsEscape(s, i, r):
			w.b.WriteByte('\\')
		}
		w.b.WriteRune(r)
		switch {
		case w.lineStart && r >= '0' && r <= '9':
			w.digitsOnly = true
		case w.digitsOnly && r >= '0' && r <= '9':
		default:
			w.digitsOnly = false
		}
		w.lineStart = false
	}
}

// escapeText escapes s for a context that never starts a line.
func escapeText(s string) string {
	var b strings.Builder
	for i, r := range s {
		if needsEscape(s, i, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func needsEscape(s string, i int, r rune) bool {
	switch r {
	case '\\', '*', '[', ']', '{', '}', '<', '+', '`':
		return true
	case '_':
		before, _ := utf8.DecodeLastRuneInString(s[:i])
		after, _ := utf8.DecodeRuneInString(s[i+1:])
		return !(isAlnum(before) && isAlnum(after))
	}
	return false
}

func isAlnum(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// codeSpan wraps s in a backtick fence longer than any backtick run inside.
func codeSpan(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	fence := strings.Repeat("`", longest+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") ||
		(strings.HasPrefix(s, " ") && strings.HasSuffix(s, " ")) {
		s = " " + s + " "
	}
	return fence + s + fence
}
