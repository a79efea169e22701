//go:build !sqlite_fts5

package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/stencil/internal/models"
)

func TestFallbackSearch_ChecklistTextAndSnippet(t *testing.T) {
	db := testDB(t)
	body := strings.Repeat("filler ", 40) + "needle here"
	items := []models.ChecklistItem{{ListID: "l", ItemID: "i", Text: "Confirm onboarding"}}
	require.NoError(t, db.UpsertDocument(row("a.md", "A", "1"), body, items, nil))

	results, err := db.Search("needle", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Snippet, "needle here")
	assert.False(t, strings.HasPrefix(results[0].Snippet, "filler filler filler filler filler filler filler filler filler"))

	results, err = db.Search("ONBOARDING", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.md", results[0].Path)
}
