// Package markdown converts document trees to and from the wire format: a
// markdown dialect with inline tokens for checklists, mentions, variables
// and attachments.
package markdown

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
)

const (
	// DefaultVariablePattern matches apiNames such as client_name or deal.amount.
	DefaultVariablePattern = `[A-Za-z_][A-Za-z0-9_.\-]*`
	// DefaultStorageHostPattern matches object-storage URLs whose type can be
	// inferred from the path.
	DefaultStorageHostPattern = `(?i)^https?://(?:[a-z0-9-]+\.)*(?:storage\.googleapis\.com|amazonaws\.com|blob\.core\.windows\.net)/`
)

var ErrDecode = errors.New("markdown: decode failed")

// DecodeError reports input the decoder could not process.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%v: offset %d: %v", ErrDecode, e.Offset, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// Options tunes the token grammar.
type Options struct {
	VariablePattern    string `yaml:"variable_pattern"`
	StorageHostPattern string `yaml:"storage_host_pattern"`
}

// Codec encodes and decodes the wire format. It is safe for concurrent use.
type Codec struct {
	variable *regexp.Regexp
	storage  *regexp.Regexp
	md       goldmark.Markdown
}

// New compiles opts into a Codec. Empty patterns select the defaults.
func New(opts Options) (*Codec, error) {
	if opts.VariablePattern == "" {
		opts.VariablePattern = DefaultVariablePattern
	}
	if opts.StorageHostPattern == "" {
		opts.StorageHostPattern = DefaultStorageHostPattern
	}
	variable, err := regexp.Compile(`^\{\{(` + opts.VariablePattern + `)\}\}(?:\[variable_name:[^\]\n]*\])?`)
	if err != nil {
		return nil, fmt.Errorf("markdown: variable pattern: %w", err)
	}
	storage, err := regexp.Compile(opts.StorageHostPattern)
	if err != nil {
		return nil, fmt.Errorf("markdown: storage host pattern: %w", err)
	}

	c := &Codec{variable: variable, storage: storage}
	c.md = goldmark.New(
		goldmark.WithParserOptions(
			parser.WithBlockParsers(
				util.Prioritized(&checklistParser{}, 50),
			),
			parser.WithInlineParsers(
				util.Prioritized(&mentionParser{}, 150),
				util.Prioritized(&variableParser{codec: c}, 150),
				util.Prioritized(&underlineParser{}, 500),
			),
			parser.WithASTTransformers(
				util.Prioritized(&attachmentTransformer{codec: c}, 100),
			),
		),
	)
	return c, nil
}

var defaultCodec = func() *Codec {
	c, err := New(Options{})
	if err != nil {
		panic(err)
	}
	return c
}()

// Default returns the codec built from the default patterns.
func Default() *Codec { return defaultCodec }

// IsVariableName reports whether name is a complete apiName under the
// codec's variable pattern.
func (c *Codec) IsVariableName(name string) bool {
	m, ok := c.matchVariable([]byte("{{" + name + "}}"))
	return ok && m.apiName == name
}
