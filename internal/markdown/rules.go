package markdown

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/stencil/internal/catalog"
)

// Every rule has a pure match function that only reports whether, and how
// far, the input at the cursor matches. Parsers call it and then advance;
// callers probing silently call it and discard the result.

var (
	checklistOpenRe = regexp.MustCompile(`^\[clist:([\w-]+)\|([\w-]+)\]`)
	checklistClose  = []byte("[/clist]")
	mentionRe       = regexp.MustCompile(`^\[@?([^\[\]|\n]+)\|(\d+)\]`)
)

type checklistOpen struct {
	listID, itemID string
	length         int
}

func matchChecklistOpen(line []byte) (checklistOpen, bool) {
	m := checklistOpenRe.FindSubmatch(line)
	if m == nil {
		return checklistOpen{}, false
	}
	return checklistOpen{listID: string(m[1]), itemID: string(m[2]), length: len(m[0])}, true
}

type mentionMatch struct {
	name   string
	id     int64
	length int
}

func matchMention(line []byte) (mentionMatch, bool) {
	m := mentionRe.FindSubmatch(line)
	if m == nil {
		return mentionMatch{}, false
	}
	// [text|1](url) is a link whose text happens to contain a pipe.
	if len(line) > len(m[0]) && line[len(m[0])] == '(' {
		return mentionMatch{}, false
	}
	name := strings.TrimSpace(string(m[1]))
	id, err := strconv.ParseInt(string(m[2]), 10, 64)
	if name == "" || err != nil {
		return mentionMatch{}, false
	}
	return mentionMatch{name: name, id: id, length: len(m[0])}, true
}

type variableMatch struct {
	apiName string
	length  int
}

func (c *Codec) matchVariable(line []byte) (variableMatch, bool) {
	m := c.variable.FindSubmatch(line)
	if m == nil {
		return variableMatch{}, false
	}
	return variableMatch{apiName: string(m[1]), length: len(m[0])}, true
}

var catalogKey = parser.NewContextKey()

func catalogFrom(pc parser.Context) catalog.Catalog {
	if c, ok := pc.Get(catalogKey).(catalog.Catalog); ok && c != nil {
		return c
	}
	return catalog.Empty{}
}

// variableParser resolves {{apiName}} against the catalog of the current
// parse. Unknown names still consume their span.
type variableParser struct {
	codec *Codec
}

func (p *variableParser) Trigger() []byte { return []byte{'{'} }

func (p *variableParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	m, ok := p.codec.matchVariable(line)
	if !ok {
		return nil
	}
	block.Advance(m.length)
	node := &Variable{APIName: m.apiName}
	if v, found := catalogFrom(pc).Lookup(m.apiName); found {
		node.Title, node.Subtitle, node.Resolved = v.Title, v.Subtitle, true
	}
	return node
}

// mentionParser runs ahead of the link parser so that [name|id] never
// becomes a link label.
type mentionParser struct{}

func (p *mentionParser) Trigger() []byte { return []byte{'['} }

func (p *mentionParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	m, ok := matchMention(line)
	if !ok {
		return nil
	}
	block.Advance(m.length)
	return &Mention{DisplayName: m.name, UserID: m.id}
}

type underlineDelimiterProcessor struct{}

func (p *underlineDelimiterProcessor) IsDelimiter(b byte) bool { return b == '+' }

func (p *underlineDelimiterProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *underlineDelimiterProcessor) OnMatch(consumes int) ast.Node { return &Underline{} }

var defaultUnderlineDelimiterProcessor = &underlineDelimiterProcessor{}

// underlineParser handles ++text++.
type underlineParser struct{}

func (p *underlineParser) Trigger() []byte { return []byte{'+'} }

func (p *underlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 2, defaultUnderlineDelimiterProcessor)
	if node == nil || node.OriginalLength > 2 || before == '+' {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

// checklistParser opens on a [clist:listId|itemId] line and collects lines
// until the one holding [/clist]. Newlines inside the item are kept.
type checklistParser struct{}

func (p *checklistParser) Trigger() []byte { return []byte{'['} }

func (p *checklistParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 {
		return nil, parser.NoChildren
	}
	m, ok := matchChecklistOpen(line[pos:])
	if !ok {
		return nil, parser.NoChildren
	}
	node := &ChecklistItem{ListID: m.listID, ItemID: m.itemID}
	start := pos + m.length
	rest := line[start:]
	if i := indexClose(rest); i >= 0 {
		if i > 0 {
			node.Lines().Append(text.NewSegment(segment.Start+start, segment.Start+start+i))
		}
		node.closed = true
		reader.Advance(segment.Len() - trailingNewline(line))
		return node, parser.NoChildren
	}
	if !util.IsBlank(rest) {
		node.Lines().Append(text.NewSegment(segment.Start+start, segment.Stop))
	}
	reader.Advance(segment.Len() - trailingNewline(line))
	return node, parser.NoChildren
}

func (p *checklistParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	item := node.(*ChecklistItem)
	if item.closed {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	if i := indexClose(line); i >= 0 {
		if !util.IsBlank(line[:i]) {
			item.Lines().Append(text.NewSegment(segment.Start, segment.Start+i))
		}
		item.closed = true
		reader.Advance(segment.Len() - trailingNewline(line))
		return parser.Close
	}
	item.Lines().Append(segment)
	reader.Advance(segment.Len() - trailingNewline(line))
	return parser.Continue | parser.NoChildren
}

func (p *checklistParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	lines := node.Lines()
	if lines.Len() == 0 {
		return
	}
	source := reader.Source()
	first := lines.At(0)
	lines.Set(0, first.TrimLeftSpace(source))
	last := lines.At(lines.Len() - 1)
	lines.Set(lines.Len()-1, last.TrimRightSpace(source))
}

func (p *checklistParser) CanInterruptParagraph() bool { return true }

func (p *checklistParser) CanAcceptIndentedLine() bool { return false }

// splitAfterClose moves whatever follows a checklist item's [/clist] on the
// same line onto a line of its own, so the host grammar parses it instead
// of it being skipped with the rest of the item's last line. Fenced code is
// left alone.
func splitAfterClose(src []byte) []byte {
	var (
		out    bytes.Buffer
		inItem bool
		fence  []byte
	)
	out.Grow(len(src))
	for len(src) > 0 {
		line := src
		if i := bytes.IndexByte(src, '\n'); i >= 0 {
			line = src[:i+1]
		}
		src = src[len(line):]

		for {
			if fence != nil {
				if closesFence(line, fence) {
					fence = nil
				}
				out.Write(line)
				break
			}
			cut := -1
			if inItem {
				if i := indexClose(line); i >= 0 {
					cut = i + len(checklistClose)
				}
			} else {
				pos := blockIndent(line)
				if pos < 0 {
					out.Write(line)
					break
				}
				if f := openFence(line[pos:]); f != nil {
					fence = f
					out.Write(line)
					break
				}
				m, ok := matchChecklistOpen(line[pos:])
				if !ok {
					out.Write(line)
					break
				}
				inItem = true
				start := pos + m.length
				if i := indexClose(line[start:]); i >= 0 {
					cut = start + i + len(checklistClose)
				}
			}
			if cut < 0 {
				out.Write(line)
				break
			}
			inItem = false
			rest := line[cut:]
			if util.IsBlank(rest) {
				out.Write(line)
				break
			}
			out.Write(line[:cut])
			out.WriteByte('\n')
			line = bytes.TrimLeft(rest, " \t")
		}
	}
	return out.Bytes()
}

// blockIndent returns the offset of the first non-space byte of line when
// it is indented by at most three spaces, and -1 otherwise.
func blockIndent(line []byte) int {
	for i := 0; i < len(line) && i <= 3; i++ {
		if line[i] != ' ' {
			return i
		}
	}
	return -1
}

// openFence returns the fence run opening a fenced code block, or nil.
func openFence(line []byte) []byte {
	if len(line) == 0 || (line[0] != '`' && line[0] != '~') {
		return nil
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	if n < 3 {
		return nil
	}
	return line[:n]
}

func closesFence(line, fence []byte) bool {
	pos := blockIndent(line)
	if pos < 0 {
		return false
	}
	run := openFence(line[pos:])
	return run != nil && run[0] == fence[0] && len(run) >= len(fence) &&
		util.IsBlank(line[pos+len(run):])
}

// indexClose finds the first [/clist] that is not backslash-escaped.
func indexClose(line []byte) int {
	offset := 0
	for {
		i := bytes.Index(line[offset:], checklistClose)
		if i < 0 {
			return -1
		}
		i += offset
		slashes := 0
		for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
			slashes++
		}
		if slashes%2 == 0 {
			return i
		}
		offset = i + 1
	}
}

func trailingNewline(line []byte) int {
	if len(line) > 0 && line[len(line)-1] == '\n' {
		return 1
	}
	return 0
}
