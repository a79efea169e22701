package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/stencil/internal/document"
)

var (
	attachmentIDRe = regexp.MustCompile(`(?i)attachment_id:(\d+)`)
	entityTypeRe   = regexp.MustCompile(`(?i)entityType:([A-Za-z]+)`)
)

// linkTarget is what a markdown link or image resolves to.
type linkTarget struct {
	kind document.Kind // KindLink or an attachment kind
	id   *int64
}

// resolveTarget applies the entity-type precedence: an explicit Image, File
// or Video wins; an explicit Link stays a link; any other explicit type is
// inferred from the URL; without a type, storage URLs are inferred and the
// rest are plain links. Image needs the leading "!".
func (c *Codec) resolveTarget(dest, title string, image bool) linkTarget {
	var t linkTarget
	if m := attachmentIDRe.FindStringSubmatch(title); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			t.id = document.Int64(id)
		}
	}

	explicit := ""
	if m := entityTypeRe.FindStringSubmatch(title); m != nil {
		explicit = strings.ToLower(m[1])
	}
	switch explicit {
	case "image":
		t.kind = document.KindImage
	case "file":
		t.kind = document.KindFile
	case "video":
		t.kind = document.KindVideo
	case "link":
		t.kind = document.KindLink
	case "":
		if c.storage.MatchString(dest) {
			t.kind = document.AttachmentKindFor(dest)
		} else {
			t.kind = document.KindLink
		}
	default:
		t.kind = document.AttachmentKindFor(dest)
	}

	if t.kind == document.KindImage && !image {
		t.kind = document.KindFile
	}
	return t
}

// attachmentTransformer rewrites links and images that resolve to an
// attachment into Attachment nodes.
type attachmentTransformer struct {
	codec *Codec
}

func (t *attachmentTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var targets []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Link, *ast.Image:
			targets = append(targets, n)
		}
		return ast.WalkContinue, nil
	})

	for _, n := range targets {
		var dest, title []byte
		image := false
		switch v := n.(type) {
		case *ast.Link:
			dest, title = v.Destination, v.Title
		case *ast.Image:
			dest, title, image = v.Destination, v.Title, true
		}
		url := string(util.UnescapePunctuations(dest))
		target := t.codec.resolveTarget(url, string(util.UnescapePunctuations(title)), image)
		if target.kind == document.KindLink {
			continue
		}

		name := ""
		if target.kind == document.KindImage {
			name = strings.TrimSpace(plainText(n, source))
		}
		if name == "" {
			name = document.AttachmentName(url)
		}
		a := &Attachment{EntityKind: target.kind, ID: target.id, URL: url, Name: name}
		if parent := n.Parent(); parent != nil {
			parent.ReplaceChild(parent, n, a)
		}
	}
}

// plainText concatenates the text segments below n.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			value := v.Segment.Value(source)
			if !v.IsRaw() {
				value = util.UnescapePunctuations(value)
			}
			b.Write(value)
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
