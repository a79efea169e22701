package docservice

import (
	"context"
	"fmt"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/catalog"
	"github.com/starford/stencil/internal/checklist"
	"github.com/starford/stencil/internal/convert"
	"github.com/starford/stencil/internal/document"
	"github.com/starford/stencil/internal/markdown"
	"github.com/starford/stencil/internal/parser"
)

// Catalog snapshots the variable catalog for one decode.
func (s *Service) Catalog() (catalog.Catalog, error) {
	return s.db.Catalog()
}

// Tree decodes a stored document body against the live catalog.
func (s *Service) Tree(ctx context.Context, path string) (document.Record, error) {
	if err := s.checkPath(path); err != nil {
		return document.Record{}, err
	}
	data, err := s.read(path)
	if err != nil {
		return document.Record{}, err
	}
	res, err := parser.Parse(s.codec, data)
	if err != nil {
		return document.Record{}, err
	}
	return s.Decode(ctx, res.Body)
}

// Decode converts wire text into a root record.
func (s *Service) Decode(_ context.Context, text string) (document.Record, error) {
	cat, err := s.Catalog()
	if err != nil {
		return document.Record{}, err
	}
	root, err := convert.Decode(s.codec, text, cat, document.NewSequence("d"))
	if err != nil {
		return document.Record{}, fmt.Errorf("docservice: %w: %w", apperr.ErrDecode, err)
	}
	return document.Serialize(root), nil
}

// Encode renders records as wire text. A single root record is encoded as
// a document; anything else is taken as a list of top-level blocks. The
// tree is repaired before encoding.
func (s *Service) Encode(_ context.Context, records []document.Record) (string, error) {
	root, err := buildRoot(records)
	if err != nil {
		return "", err
	}
	return convert.EncodeCurrentState(root, s.codec), nil
}

// Paste prepares clipboard records for insertion: duplicate paragraphs are
// dropped and every checklist gets fresh ids.
func (s *Service) Paste(_ context.Context, records []document.Record) ([]document.Record, error) {
	nodes, err := document.DeserializeAll(records, document.NewSequence("c"))
	if err != nil {
		return nil, fmt.Errorf("docservice: %w: %w", apperr.ErrValidation, err)
	}
	nodes = checklist.RemoveDuplicateClipboardParagraphs(nodes)
	checklist.AssignNewChecklistIds(nodes)
	return document.SerializeAll(nodes), nil
}

// Canonicalize rewrites legacy artifacts in stored text.
func (s *Service) Canonicalize(text string) string {
	return markdown.Canonicalize(text)
}

func buildRoot(records []document.Record) (*document.Node, error) {
	root, err := convert.Assemble(records, document.NewSequence("e"))
	if err != nil {
		return nil, fmt.Errorf("docservice: %w: %w", apperr.ErrValidation, err)
	}
	return root, nil
}
