// Package convert connects the wire format to the editing engine: it decodes
// stored text into an engine's initial state and re-encodes the live tree on
// every commit.
package convert

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/stencil/internal/catalog"
	"github.com/starford/stencil/internal/checklist"
	"github.com/starford/stencil/internal/document"
	"github.com/starford/stencil/internal/editor"
	"github.com/starford/stencil/internal/markdown"
)

// Options for ApplyTextToInitialState. Zero values select the default codec,
// an empty catalog and slog.Default().
type Options struct {
	Catalog catalog.Catalog
	Codec   *markdown.Codec
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Catalog == nil {
		o.Catalog = catalog.Empty{}
	}
	if o.Codec == nil {
		o.Codec = markdown.Default()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Decode parses text into a root node. Consecutive checklist items sharing a
// listId are grouped into one ChecklistList and the result is repaired so it
// passes document.Validate.
func Decode(codec *markdown.Codec, text string, cat catalog.Catalog, m document.KeyMinter) (*document.Node, error) {
	if codec == nil {
		codec = markdown.Default()
	}
	nodes, err := codec.Parse(text, cat, m)
	if err != nil {
		return nil, err
	}
	root := document.NewRoot(m)
	root.Append(Group(m, nodes)...)
	checklist.Normalize(m, root)
	return root, nil
}

// Group wraps runs of loose checklist items into lists. An item joins the
// list directly before it when the listIds match; otherwise it starts a new
// list.
func Group(m document.KeyMinter, nodes []*document.Node) []*document.Node {
	var (
		out  []*document.Node
		list *document.Node
	)
	for _, n := range nodes {
		if !document.IsChecklistItem(n) {
			list = nil
			out = append(out, n)
			continue
		}
		listID := document.ListID(n)
		if list == nil || document.ListID(list) != listID {
			list = document.NewChecklistList(m, listID)
			out = append(out, list)
		}
		list.Append(n)
	}
	return out
}

// ErrNestedRoot is returned by Assemble for a root record below the top.
var ErrNestedRoot = errors.New("convert: nested root record")

// Assemble builds a root from records. A single root record is taken as
// is; anything else becomes the root's children, with loose inline nodes
// wrapped in paragraphs. The result is repaired with checklist.Normalize.
func Assemble(records []document.Record, m document.KeyMinter) (*document.Node, error) {
	nodes, err := document.DeserializeAll(records, m)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 1 && nodes[0].Kind() == document.KindRoot {
		checklist.Normalize(m, nodes[0])
		return nodes[0], nil
	}
	root := document.NewRoot(m)
	for _, n := range nodes {
		if n.Kind() == document.KindRoot {
			return nil, ErrNestedRoot
		}
		if n.Kind().IsInline() {
			n = document.NewParagraph(m, n)
		}
		root.Append(n)
	}
	checklist.Normalize(m, root)
	return root, nil
}

// ApplyTextToInitialState decodes text into e's starting document. It does
// nothing and returns false when text is blank. A decode failure is logged,
// the engine keeps an empty document and false is returned.
func ApplyTextToInitialState(e *editor.Engine, text string, opts Options) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	opts = opts.withDefaults()
	err := e.Initialize(func(tx *editor.Txn) error {
		root, err := Decode(opts.Codec, text, opts.Catalog, tx)
		if err != nil {
			return err
		}
		tx.Root().Append(root.Children()...)
		return nil
	})
	if err != nil {
		opts.Logger.Warn("convert: initial text not applied", slog.String("error", err.Error()))
		return false
	}
	opts.Logger.Debug("convert: initial state applied", slog.Int("bytes", len(text)))
	return true
}

// EncodeCurrentState renders root as wire text.
func EncodeCurrentState(root *document.Node, codec *markdown.Codec) string {
	if codec == nil {
		codec = markdown.Default()
	}
	return codec.Encode(root)
}

// Bind re-encodes e's tree after every commit and hands the text to sink
// when it changed. The returned func stops the binding.
func Bind(e *editor.Engine, codec *markdown.Codec, sink func(text string)) func() {
	var (
		mu   sync.Mutex
		last string
		seen bool
	)
	return e.RegisterUpdateListener(func(u editor.Update) {
		text := EncodeCurrentState(u.Root, codec)
		mu.Lock()
		changed := !seen || text != last
		last, seen = text, true
		mu.Unlock()
		if changed {
			sink(text)
		}
	})
}
