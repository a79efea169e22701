// Package parser splits a stored template into front matter and wire text and
// extracts what the index needs from the decoded tree: title, checklist
// items and references.
package parser

import (
	"bytes"
	"fmt"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/catalog"
	"github.com/starford/stencil/internal/convert"
	"github.com/starford/stencil/internal/document"
	"github.com/starford/stencil/internal/markdown"
	"github.com/starford/stencil/internal/models"
)

// Result holds the output of parsing a stored template.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Description string
	Tags        []string
	// Text is the plain text of the body, used for full-text search.
	Text      string
	Checklist []models.ChecklistItem
	Refs      []models.Reference
	Tree      *document.Node
}

// Parse decodes data with codec (nil selects the default). Variables are
// resolved through a passthrough catalog so that every placeholder is
// reported, whether or not it is currently defined.
func Parse(codec *markdown.Codec, data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)
	root, err := convert.Decode(codec, body, catalog.Passthrough{}, document.NewSequence("p"))
	if err != nil {
		return nil, fmt.Errorf("parser: %w: %w", apperr.ErrDecode, err)
	}
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, root),
		Description: stringField(fm, "description"),
		Tags:        extractTags(fm),
		Text:        root.TextContent(),
		Checklist:   extractChecklist(root),
		Refs:        extractRefs(root),
		Tree:        root,
	}, nil
}

// TitleFromPath is the fallback title: the file name without extension.
func TitleFromPath(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

// splitFrontmatter separates YAML front matter (between leading --- lines)
// from the body. Missing or invalid front matter leaves everything as body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim+"\n")) && !bytes.HasPrefix(trimmed, []byte(delim+"\r\n")) {
		return nil, string(data)
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}
	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\r\n")
	return fm, body
}

func stringField(fm map[string]any, key string) string {
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// extractTags reads the front matter "tags" field, as a list or a comma
// separated string.
func extractTags(fm map[string]any) []string {
	var raw []string
	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(v, ",")
	}
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// deriveTitle prefers the front matter title, then the first heading.
func deriveTitle(fm map[string]any, root *document.Node) string {
	if t := stringField(fm, "title"); t != "" {
		return t
	}
	for _, b := range root.Children() {
		if b.Kind() == document.KindHeading {
			if t := strings.TrimSpace(b.TextContent()); t != "" {
				return t
			}
		}
	}
	return ""
}

func extractChecklist(root *document.Node) []models.ChecklistItem {
	var out []models.ChecklistItem
	root.Walk(func(n *document.Node) bool {
		if !document.IsChecklistItem(n) {
			return true
		}
		a, _ := document.AttrsOf[document.ChecklistItemAttrs](n)
		out = append(out, models.ChecklistItem{
			ListID:   a.ListID,
			ItemID:   a.ItemID,
			Position: len(out),
			Text:     strings.TrimSpace(n.TextContent()),
		})
		return false
	})
	return out
}

func extractRefs(root *document.Node) []models.Reference {
	seen := make(map[models.Reference]struct{})
	var out []models.Reference
	add := func(kind, target string) {
		if target == "" {
			return
		}
		r := models.Reference{Kind: kind, Target: target}
		if _, dup := seen[r]; dup {
			return
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	root.Walk(func(n *document.Node) bool {
		switch a := n.Attrs().(type) {
		case document.MentionAttrs:
			if a.UserID != nil {
				add(models.RefMention, strconv.FormatInt(*a.UserID, 10))
			}
		case document.VariableAttrs:
			add(models.RefVariable, a.APIName)
		case document.AttachmentAttrs:
			if a.ID != nil {
				add(models.RefAttachment, strconv.FormatInt(*a.ID, 10))
			} else {
				add(models.RefAttachment, a.URL)
			}
		case document.LinkAttrs:
			add(models.RefLink, a.URL)
		}
		return true
	})
	return out
}
