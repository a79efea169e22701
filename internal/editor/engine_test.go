package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/stencil/internal/document"
)

// textOf returns the text of the root's i-th block.
func textOf(e *Engine, i int) string {
	var s string
	e.Read(func(root *document.Node, _ Selection) {
		s = root.Child(i).TextContent()
	})
	return s
}

func initWith(t *testing.T, e *Engine, texts ...string) {
	t.Helper()
	require.NoError(t, e.Initialize(func(tx *Txn) error {
		for _, s := range texts {
			tx.Root().Append(document.NewParagraph(tx, document.NewText(tx, s, 0)))
		}
		return nil
	}))
}

func TestEngine_InitializeOnce(t *testing.T) {
	e := New()
	assert.False(t, e.Initialized())
	initWith(t, e, "hello")
	assert.True(t, e.Initialized())
	assert.Equal(t, "hello", textOf(e, 0))

	err := e.Initialize(func(tx *Txn) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	// The initial commit is historic and cannot be undone.
	assert.False(t, e.Undo())
}

func TestEngine_InitializeFailureFallsBackToEmpty(t *testing.T) {
	e := New()
	err := e.Initialize(func(tx *Txn) error {
		tx.Root().Append(document.NewParagraph(tx, document.NewText(tx, "partial", 0)))
		return errors.New("boom")
	})
	require.Error(t, err)
	snap := e.Snapshot()
	require.Equal(t, 1, snap.ChildCount())
	assert.True(t, snap.Child(0).IsEmpty())
}

func TestEngine_UpdateIsAtomic(t *testing.T) {
	e := New()
	initWith(t, e, "a")
	err := e.Update(func(tx *Txn) error {
		tx.Root().Child(0).Remove()
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Equal(t, "a", textOf(e, 0))
}

func TestEngine_ListenersAndUndo(t *testing.T) {
	e := New()
	initWith(t, e, "a")

	var updates []Update
	unregister := e.RegisterUpdateListener(func(u Update) { updates = append(updates, u) })

	require.NoError(t, e.Update(func(tx *Txn) error {
		tx.Root().Append(document.NewParagraph(tx, document.NewText(tx, "b", 0)))
		return nil
	}))
	require.Len(t, updates, 1)
	assert.Equal(t, 2, updates[0].Root.ChildCount())
	assert.Empty(t, updates[0].Tags)

	require.True(t, e.Undo())
	require.Len(t, updates, 2)
	assert.Equal(t, []string{TagHistoric}, updates[1].Tags)
	assert.Equal(t, 1, e.Snapshot().ChildCount())

	unregister()
	require.NoError(t, e.Update(func(tx *Txn) error { return nil }))
	assert.Len(t, updates, 2)
}

func TestEngine_DispatchPriorityAndDecline(t *testing.T) {
	e := New()
	initWith(t, e, "a")

	var order []string
	e.RegisterCommand(CommandEnter, PriorityLow, func(tx *Txn, _ any) bool {
		order = append(order, "low")
		return true
	})
	unregisterHigh := e.RegisterCommand(CommandEnter, PriorityHigh, func(tx *Txn, _ any) bool {
		order = append(order, "high")
		return false
	})

	assert.True(t, e.Dispatch(CommandEnter, nil))
	assert.Equal(t, []string{"high", "low"}, order)

	unregisterHigh()
	order = nil
	assert.True(t, e.Dispatch(CommandEnter, nil))
	assert.Equal(t, []string{"low"}, order)

	assert.False(t, e.Dispatch(CommandBackspace, nil))
}

func TestEngine_TransformsRunBeforeCommit(t *testing.T) {
	e := New()
	e.RegisterTransform(func(tx *Txn) {
		if tx.Root().ChildCount() == 0 {
			tx.Root().Append(document.NewParagraph(tx))
		}
	})
	initWith(t, e, "a")
	require.NoError(t, e.Update(func(tx *Txn) error {
		tx.Root().Clear()
		return nil
	}))
	snap := e.Snapshot()
	assert.Equal(t, 1, snap.ChildCount())
	assert.True(t, document.IsParagraph(snap.Child(0)))
}

func TestEngine_SelectionRepairedAfterRemoval(t *testing.T) {
	e := New()
	initWith(t, e, "a", "b")
	var removed document.Key
	require.NoError(t, e.Update(func(tx *Txn) error {
		last := tx.Root().LastChild()
		tx.SelectEnd(last)
		removed = last.FirstChild().Key()
		last.Remove()
		return nil
	}))
	e.Read(func(root *document.Node, sel Selection) {
		assert.NotEqual(t, removed, sel.Anchor.Key)
		assert.NotNil(t, root.Find(sel.Anchor.Key))
	})
}

func TestInsertVariableSplitsText(t *testing.T) {
	e := New()
	initWith(t, e, "Hello world")
	var textKey document.Key
	e.Read(func(root *document.Node, _ Selection) { textKey = root.Child(0).Child(0).Key() })
	require.NoError(t, e.SetSelection(Caret(Point{Key: textKey, Offset: 6})))

	ok := e.Dispatch(CommandInsertVariable, VariablePayload{APIName: "client_name", Title: "Client"})
	require.True(t, ok)

	p := e.Snapshot().Child(0)
	require.Equal(t, 3, p.ChildCount())
	assert.Equal(t, "Hello ", p.Child(0).TextContent())
	assert.True(t, document.IsVariable(p.Child(1)))
	assert.Equal(t, "world", p.Child(2).TextContent())
}

func TestInsertAttachmentInfersKind(t *testing.T) {
	e := New()
	initWith(t, e, "")
	ok := e.Dispatch(CommandInsertAttachment, []Upload{
		{ID: 1, URL: "https://cdn.example.com/a.png", Name: "a.png"},
		{ID: 2, URL: "https://cdn.example.com/b.pdf", Name: "b.pdf"},
	})
	require.True(t, ok)

	var kinds []document.Kind
	e.Snapshot().Walk(func(n *document.Node) bool {
		if n.Kind().IsAttachment() {
			kinds = append(kinds, n.Kind())
		}
		return true
	})
	assert.Equal(t, []document.Kind{document.KindImage, document.KindFile}, kinds)
}

func TestToggleLink(t *testing.T) {
	e := New()
	initWith(t, e, "see docs here")
	var textKey document.Key
	e.Read(func(root *document.Node, _ Selection) { textKey = root.Child(0).Child(0).Key() })
	require.NoError(t, e.SetSelection(Selection{
		Anchor: Point{Key: textKey, Offset: 4},
		Focus:  Point{Key: textKey, Offset: 8},
	}))

	require.True(t, e.Dispatch(CommandToggleLink, LinkPayload{URL: "https://docs.example.com"}))
	p := e.Snapshot().Child(0)
	require.Equal(t, 3, p.ChildCount())
	assert.True(t, document.IsLink(p.Child(1)))
	assert.Equal(t, "docs", p.Child(1).TextContent())

	// Caret now sits inside the link; an empty URL unwraps it.
	require.True(t, e.Dispatch(CommandToggleLink, LinkPayload{}))
	p = e.Snapshot().Child(0)
	assert.Equal(t, "see docs here", p.TextContent())
	for _, c := range p.Children() {
		assert.False(t, document.IsLink(c))
	}
}
