package index

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/catalog"
	"github.com/starford/stencil/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "stencil-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func row(path, title, cs string, tags ...string) DocumentRow {
	return DocumentRow{Path: path, Title: title, Checksum: cs, Tags: tags, UpdatedAt: time.Now()}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"documents", "checklist_items", "doc_refs", "variables", "attachments"} {
		var count int
		require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM `+table).Scan(&count), table)
	}
}

func TestUpsertAndGetDocument(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertDocument(row("hello.md", "Hello", "abc", "ops"), "hello body", nil, nil))

	cs, err := db.GetChecksum("hello.md")
	require.NoError(t, err)
	assert.Equal(t, "abc", cs)

	d, err := db.GetDocument("hello.md")
	require.NoError(t, err)
	assert.Equal(t, "Hello", d.Title)
	assert.Equal(t, []string{"ops"}, d.Tags)
	assert.False(t, d.UpdatedAt.IsZero())

	_, err = db.GetDocument("missing.md")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	cs, err = db.GetChecksum("missing.md")
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestChecklistCompletionSurvivesReindex(t *testing.T) {
	db := testDB(t)
	items := []models.ChecklistItem{
		{ListID: "l", ItemID: "a", Position: 0, Text: "one"},
		{ListID: "l", ItemID: "b", Position: 1, Text: "two"},
	}
	require.NoError(t, db.UpsertDocument(row("c.md", "C", "1"), "", items, nil))
	require.NoError(t, db.SetChecklistItem("c.md", "l", "a", true))
	assert.ErrorIs(t, db.SetChecklistItem("c.md", "l", "zzz", true), apperr.ErrNotFound)

	items = []models.ChecklistItem{
		{ListID: "l", ItemID: "c", Position: 0, Text: "new first"},
		{ListID: "l", ItemID: "a", Position: 1, Text: "one edited"},
	}
	require.NoError(t, db.UpsertDocument(row("c.md", "C", "2"), "", items, nil))

	got, err := db.ChecklistItems("c.md")
	require.NoError(t, err)
	assert.Equal(t, []models.ChecklistItem{
		{ListID: "l", ItemID: "c", Position: 0, Text: "new first"},
		{ListID: "l", ItemID: "a", Position: 1, Text: "one edited", Completed: true},
	}, got)
}

func TestReferences(t *testing.T) {
	db := testDB(t)
	refs := []models.Reference{{Kind: models.RefMention, Target: "7"}, {Kind: models.RefVariable, Target: "client_name"}}
	require.NoError(t, db.UpsertDocument(row("a.md", "A", "1"), "", nil, refs))
	require.NoError(t, db.UpsertDocument(row("b.md", "B", "1"), "", nil, refs[:1]))

	src, err := db.References(models.RefMention, "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md"}, src)

	out, err := db.RefsOf("a.md")
	require.NoError(t, err)
	assert.Len(t, out, 2)

	require.NoError(t, db.DeleteDocument("a.md"))
	src, _ = db.References(models.RefMention, "7")
	assert.Equal(t, []string{"b.md"}, src)
	items, _ := db.ChecklistItems("a.md")
	assert.Empty(t, items)
}

func TestListDocuments(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertDocument(row("b.md", "beta", "1", "sales"), "", nil, nil))
	require.NoError(t, db.UpsertDocument(row("a.md", "Alpha", "2", "ops", "sales"), "", nil, nil))
	require.NoError(t, db.UpsertDocument(row("c.md", "gamma", "3"), "", nil, nil))

	docs, total, err := db.ListDocuments(2, 0, "", "title")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.md", docs[0].Path)
	assert.Equal(t, "b.md", docs[1].Path)

	docs, total, err = db.ListDocuments(10, 0, "sales", "path")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "a.md", docs[0].Path)

	_, _, err = db.ListDocuments(10, 0, "", "bogus")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertDocument(row("s.md", "Search Me", "1"), "uniqueword appears here", nil, nil))

	results, err := db.Search("uniqueword", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s.md", results[0].Path)
}

func TestVariables(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.PutVariable(catalog.Variable{APIName: "client_name", Title: "Client"}))
	require.NoError(t, db.PutVariable(catalog.Variable{APIName: "client_name", Title: "Client name", Subtitle: "CRM"}))
	require.NoError(t, db.PutVariable(catalog.Variable{APIName: "amount", Title: "Amount"}))

	vars, err := db.ListVariables()
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, "amount", vars[0].APIName)

	cat, err := db.Catalog()
	require.NoError(t, err)
	v, ok := cat.Lookup("client_name")
	require.True(t, ok)
	assert.Equal(t, "Client name", v.Title)

	require.NoError(t, db.DeleteVariable("amount"))
	assert.ErrorIs(t, db.DeleteVariable("amount"), apperr.ErrNotFound)
}

func TestAttachments(t *testing.T) {
	db := testDB(t)
	first, err := db.InsertAttachment("https://cdn/a.png", "a.png", 3)
	require.NoError(t, err)
	second, err := db.InsertAttachment("https://cdn/b.pdf", "b.pdf", 3)
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	got, err := db.GetAttachment(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.png", got.Name)
	assert.EqualValues(t, 3, got.AccountID)

	_, err = db.GetAttachment(999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPing(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Ping(context.Background()))
}
