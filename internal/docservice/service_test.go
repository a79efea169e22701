package docservice_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/catalog"
	"github.com/starford/stencil/internal/checksum"
	"github.com/starford/stencil/internal/docservice"
	"github.com/starford/stencil/internal/document"
	"github.com/starford/stencil/internal/index"
	"github.com/starford/stencil/internal/markdown"
	"github.com/starford/stencil/internal/models"
	"github.com/starford/stencil/internal/testutil"
)

var ctx = context.Background()

const onboarding = "---\ntitle: Onboarding\ntags: [sales]\n---\n# Kickoff\n\n[clist:l1|a]Call {{client_name}}[/clist]\n[clist:l1|b]Ping [Ann|7][/clist]"

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+path)
}

func TestDocumentLifecycle(t *testing.T) {
	rec := &recorder{}
	svc, _, _ := testutil.TestService(t, docservice.WithEvents(rec.record))

	d, err := svc.CreateDocument(ctx, "sales/onboarding.md", []byte(onboarding))
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", d.Title)
	assert.Equal(t, []string{"sales"}, d.Tags)
	require.Len(t, d.Checklist, 2)
	assert.Contains(t, d.Refs, models.Reference{Source: "sales/onboarding.md", Kind: models.RefMention, Target: "7"})

	_, err = svc.CreateDocument(ctx, "sales/onboarding.md", []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = svc.UpdateDocument(ctx, "sales/onboarding.md", []byte("v2"), "stale")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	d, err = svc.UpdateDocument(ctx, "sales/onboarding.md", []byte("# Renamed"), d.Checksum)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", d.Title)
	assert.Empty(t, d.Checklist)

	items, total, err := svc.ListDocuments(ctx, 10, 0, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "sales/onboarding.md", items[0].Path)

	require.NoError(t, svc.DeleteDocument(ctx, "sales/onboarding.md"))
	_, err = svc.GetDocument(ctx, "sales/onboarding.md")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteDocument(ctx, "sales/onboarding.md"), apperr.ErrNotFound)

	assert.Equal(t, []string{
		"created:sales/onboarding.md", "updated:sales/onboarding.md", "deleted:sales/onboarding.md",
	}, rec.events)
}

func TestCreateDocument_Rejects(t *testing.T) {
	svc, store, _ := testutil.TestService(t)

	_, err := svc.CreateDocument(ctx, "notes.txt", []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrInvalidPath)
	_, err = svc.CreateDocument(ctx, "../escape.md", []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrInvalidPath)

	_, err = svc.CreateDocument(ctx, "bad.md", []byte("broken \xff"))
	assert.ErrorIs(t, err, apperr.ErrDecode)
	_, err = store.Read("bad.md")
	assert.Error(t, err, "rejected text is not stored")
}

func TestGetDocument_IndexesFilesWrittenBehindItsBack(t *testing.T) {
	svc, store, _ := testutil.TestService(t)
	require.NoError(t, store.Write("direct.md", []byte("[clist:l|x]task[/clist]")))

	d, err := svc.GetDocument(ctx, "direct.md")
	require.NoError(t, err)
	assert.Equal(t, "direct", d.Title)
	require.Len(t, d.Checklist, 1)
	assert.Equal(t, checksum.Sum([]byte("[clist:l|x]task[/clist]")), d.Checksum)
}

func TestSetChecklistItem(t *testing.T) {
	rec := &recorder{}
	svc, _, _ := testutil.TestService(t, docservice.WithEvents(rec.record))
	_, err := svc.CreateDocument(ctx, "o.md", []byte(onboarding))
	require.NoError(t, err)

	require.NoError(t, svc.SetChecklistItem(ctx, "o.md", "l1", "b", true))
	assert.ErrorIs(t, svc.SetChecklistItem(ctx, "o.md", "l1", "nope", true), apperr.ErrNotFound)
	assert.ErrorIs(t, svc.SetChecklistItem(ctx, "missing.md", "l1", "b", true), apperr.ErrNotFound)

	items, err := svc.Checklist(ctx, "o.md")
	require.NoError(t, err)
	assert.False(t, items[0].Completed)
	assert.True(t, items[1].Completed)
	assert.Contains(t, rec.events, "checked:o.md")
}

func TestReferences(t *testing.T) {
	svc, _, _ := testutil.TestService(t)
	_, err := svc.CreateDocument(ctx, "o.md", []byte(onboarding))
	require.NoError(t, err)

	paths, err := svc.References(ctx, models.RefVariable, "client_name")
	require.NoError(t, err)
	assert.Equal(t, []string{"o.md"}, paths)

	_, err = svc.References(ctx, "tag", "x")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestVariables(t *testing.T) {
	svc, _, _ := testutil.TestService(t)
	require.NoError(t, svc.PutVariable(ctx, catalog.Variable{APIName: "client_name", Title: "Client"}))
	assert.ErrorIs(t, svc.PutVariable(ctx, catalog.Variable{APIName: "has space"}), apperr.ErrValidation)

	vars, err := svc.ListVariables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Variable{{APIName: "client_name", Title: "Client"}}, vars)

	rec, err := svc.Decode(ctx, "Hi {{client_name}} {{unknown}}")
	require.NoError(t, err)
	para := rec.Children[0]
	var kinds []string
	for _, c := range para.Children {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []string{"text", "variable", "text"}, kinds)
	assert.Equal(t, "Client", para.Children[1].Title)

	require.NoError(t, svc.DeleteVariable(ctx, "client_name"))
	assert.ErrorIs(t, svc.DeleteVariable(ctx, "client_name"), apperr.ErrNotFound)
}

func TestEncodeDecodeRecords(t *testing.T) {
	svc, _, _ := testutil.TestService(t)

	root, err := svc.Decode(ctx, "[clist:l|a]one[/clist]\n[clist:l|b]two[/clist]")
	require.NoError(t, err)
	text, err := svc.Encode(ctx, []document.Record{root})
	require.NoError(t, err)
	assert.Equal(t, "[clist:l|a]one[/clist]\n[clist:l|b]two[/clist]", text)

	text, err = svc.Encode(ctx, root.Children)
	require.NoError(t, err)
	assert.Equal(t, "[clist:l|a]one[/clist]\n[clist:l|b]two[/clist]", text)

	_, err = svc.Encode(ctx, []document.Record{{Kind: "bogus", Version: 1}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Decode(ctx, "\xff")
	assert.ErrorIs(t, err, apperr.ErrDecode)
}

func TestPaste(t *testing.T) {
	svc, _, _ := testutil.TestService(t)
	root, err := svc.Decode(ctx, "[clist:l|a]one[/clist]")
	require.NoError(t, err)

	out, err := svc.Paste(ctx, root.Children)
	require.NoError(t, err)
	require.Len(t, out, 1)
	list := out[0]
	assert.Equal(t, "checklist", list.Kind)
	assert.NotEqual(t, "l", list.ListID)
	assert.Equal(t, list.ListID, list.Children[0].ListID)
	assert.NotEqual(t, "a", list.Children[0].ItemID)
}

func TestSaveAttachment(t *testing.T) {
	svc, store, _ := testutil.TestService(t)
	up, err := svc.SaveAttachment(ctx, 4, "../Plan v2.PNG", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "Plan v2.PNG", up.Name)
	assert.Regexp(t, `^/attachments/[0-9a-f-]+\.png$`, up.URL)
	assert.NotZero(t, up.ID)

	data, err := store.Read(up.URL[1:])
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	_, err = svc.SaveAttachment(ctx, 4, "", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUploadedMarkdownIsNotADocument(t *testing.T) {
	svc, store, db := testutil.TestService(t)
	up, err := svc.SaveAttachment(ctx, 1, "notes.md", []byte("# Notes\n\n[clist:l|x]task[/clist]"))
	require.NoError(t, err)
	require.NoError(t, index.Sync(db, store, markdown.Default(), testutil.Logger))

	items, total, err := svc.ListDocuments(ctx, 10, 0, "", "")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	_, err = svc.GetDocument(ctx, up.URL[1:])
	assert.ErrorIs(t, err, apperr.ErrInvalidPath)
	_, err = svc.CreateDocument(ctx, docservice.AttachmentDir+"/new.md", []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrInvalidPath)

	data, err := svc.ReadAttachment(ctx, strings.TrimPrefix(up.URL, "/attachments/"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Notes")
}

func TestReadAndRecordAttachment(t *testing.T) {
	svc, _, _ := testutil.TestService(t)
	up, err := svc.SaveAttachment(ctx, 1, "notes.txt", []byte("hi"))
	require.NoError(t, err)

	data, err := svc.ReadAttachment(ctx, strings.TrimPrefix(up.URL, "/attachments/"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	_, err = svc.ReadAttachment(ctx, "../s.md")
	assert.ErrorIs(t, err, apperr.ErrInvalidPath)
	_, err = svc.ReadAttachment(ctx, "missing.txt")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	ext, err := svc.RecordAttachment(ctx, 2, "https://cdn.example.com/a/report.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", ext.Name)
	got, err := svc.GetAttachment(ctx, ext.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.AccountID)

	_, err = svc.RecordAttachment(ctx, 2, " ", "x")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
