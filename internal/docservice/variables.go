package docservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/catalog"
)

// ListVariables returns the variable catalog.
func (s *Service) ListVariables(_ context.Context) ([]catalog.Variable, error) {
	return s.db.ListVariables()
}

// PutVariable adds or replaces a catalog entry. The apiName must be valid
// under the codec's variable pattern so that the placeholder can be
// written and read back.
func (s *Service) PutVariable(_ context.Context, v catalog.Variable) error {
	v.APIName = strings.TrimSpace(v.APIName)
	if !s.codec.IsVariableName(v.APIName) {
		return fmt.Errorf("docservice: %w: invalid variable name %q", apperr.ErrValidation, v.APIName)
	}
	if v.Title == "" {
		v.Title = v.APIName
	}
	return s.db.PutVariable(v)
}

// DeleteVariable removes a catalog entry. Documents keep their
// placeholders; they decode as unresolved until the entry returns.
func (s *Service) DeleteVariable(_ context.Context, apiName string) error {
	return s.db.DeleteVariable(apiName)
}
