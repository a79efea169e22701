//go:build sqlite_fts5

package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM documents_fts`).Scan(&count))
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertDocument(row("fts.md", "FTS Template", "f1", "search"),
		"Call the client and confirm the powerful onboarding plan.", nil, nil))

	results, err := db.Search("powerful", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fts.md", results[0].Path)
	assert.Contains(t, results[0].Snippet, "<b>powerful</b>")

	require.NoError(t, db.DeleteDocument("fts.md"))
	results, err = db.Search("powerful", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFTS5_QuotesWireTokens(t *testing.T) {
	assert.Equal(t, `"{{client_name}}" "a""b"`, ftsQuery(`{{client_name}}  a"b`))

	db := testDB(t)
	require.NoError(t, db.UpsertDocument(row("v.md", "Vars", "v1"), "Hello {{client_name}}", nil, nil))
	results, err := db.Search("{{client_name}}", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = db.Search("   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
