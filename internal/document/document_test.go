package document

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(m KeyMinter) *Node {
	root := NewRoot(m)
	root.Append(
		NewParagraph(m, NewText(m, "Hello ", 0), NewText(m, "world", FormatBold)),
		NewChecklistList(m, "l1").Append(
			NewChecklistItem(m, "l1", "i1", NewText(m, "First", 0)),
			NewChecklistItem(m, "l1", "i2",
				NewMention(m, Int64(42), "John"),
				NewVariable(m, "client_name", "Client", "s"),
			),
		),
		NewParagraph(m,
			NewLink(m, "https://example.com", NewText(m, "site", 0)),
			NewAttachment(m, KindImage, Int64(7), "https://cdn.example.com/a.png", "a.png"),
		),
	)
	return root
}

func TestKind_StringRoundTrip(t *testing.T) {
	for k := KindRoot; k <= KindFile; k++ {
		got, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("table")
	assert.False(t, ok)
}

func TestNode_TreeOperations(t *testing.T) {
	m := NewSequence("k")
	root := NewRoot(m)
	a, b, c := NewParagraph(m), NewParagraph(m), NewParagraph(m)
	root.Append(a, c)
	c.InsertBefore(b)
	assert.Equal(t, []*Node{a, b, c}, root.Children())
	assert.Equal(t, 1, b.Index())
	assert.Same(t, a, b.PrevSibling())
	assert.Same(t, c, b.NextSibling())
	assert.Equal(t, []*Node{b, c}, a.NextSiblings())

	// Re-parenting detaches from the old parent.
	q := NewQuote(m)
	root.Append(q)
	q.Append(b)
	assert.Equal(t, []*Node{a, c, q}, root.Children())
	assert.Same(t, q, b.Parent())

	a.Remove()
	assert.Nil(t, a.Parent())
	assert.Equal(t, 2, root.ChildCount())

	// Moving a child later within the same parent.
	root.Append(c)
	assert.Equal(t, []*Node{q, c}, root.Children())
}

func TestNode_InsertIntoLeafPanics(t *testing.T) {
	m := NewSequence("k")
	txt := NewText(m, "x", 0)
	assert.Panics(t, func() { txt.Append(NewText(m, "y", 0)) })
}

func TestNode_CloneKeepsKeys(t *testing.T) {
	m := NewSequence("k")
	root := sampleTree(m)
	clone := root.Clone()
	assert.Equal(t, Serialize(root), Serialize(clone))
	item := root.Child(1).Child(0)
	assert.NotNil(t, clone.Find(item.Key()))
	assert.NotSame(t, item, clone.Find(item.Key()))
}

func TestNode_TextContentAndEmpty(t *testing.T) {
	m := NewSequence("k")
	root := sampleTree(m)
	assert.Equal(t, "First", root.Child(1).Child(0).TextContent())
	assert.Equal(t, "JohnClient", root.Child(1).Child(1).TextContent())

	empty := NewChecklistItem(m, "l", "i", NewText(m, "", 0))
	assert.True(t, empty.IsEmpty())
	withBreak := NewChecklistItem(m, "l", "i", NewLineBreak(m))
	assert.False(t, withBreak.IsEmpty())
}

func TestRecord_RoundTrip(t *testing.T) {
	m := NewSequence("k")
	root := sampleTree(m)
	rec := Serialize(root)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var back Record
	require.NoError(t, json.Unmarshal(data, &back))

	rebuilt, err := Deserialize(back, NewSequence("r"))
	require.NoError(t, err)
	assert.Equal(t, rec, Serialize(rebuilt))
	assert.NotEqual(t, root.Key(), rebuilt.Key())
}

func TestRecord_VersionAndKindErrors(t *testing.T) {
	m := NewSequence("k")

	_, err := Deserialize(Record{Kind: "paragraph", Version: 2}, m)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Deserialize(Record{Kind: "root", Version: 1, Children: []Record{{Kind: "table", Version: 1}}}, m)
	var re *RecordError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "$.children[0]", re.Path)
	assert.ErrorIs(t, err, ErrUnknownKind)

	// Pre-versioning records are accepted.
	n, err := Deserialize(Record{Kind: "text", Text: "old"}, m)
	require.NoError(t, err)
	assert.Equal(t, "old", n.TextContent())
}

func TestValidate(t *testing.T) {
	m := NewSequence("k")
	require.NoError(t, Validate(sampleTree(m)))

	root := NewRoot(m)
	list := NewChecklistList(m, "l1")
	list.Append(
		NewChecklistItem(m, "l1", "a"),
		NewChecklistItem(m, "other", "a"),
		New(m, KindChecklistItem, ChecklistItemAttrs{ListID: "l1", ItemID: "b"}),
	)
	root.Append(list, NewChecklistItem(m, "l2", "stray"))

	err := Validate(root)
	var ie *InvariantError
	require.True(t, errors.As(err, &ie))
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, ie.Violations, "item a has listId other under checklist l1")
	assert.Contains(t, ie.Violations, "duplicate itemId a in checklist l1")
	assert.Contains(t, ie.Violations, "item b has no paragraph")
	assert.Contains(t, ie.Violations, "item stray is outside a checklist")
}

func TestNormalizeText(t *testing.T) {
	m := NewSequence("k")
	p := NewParagraph(m,
		NewText(m, "a", 0), NewText(m, "b", 0), NewText(m, "", FormatBold),
		NewText(m, "c", FormatBold), NewLineBreak(m), NewText(m, "d", 0),
	)
	NormalizeText(p)
	require.Equal(t, 4, p.ChildCount())
	assert.Equal(t, "ab", p.Child(0).TextContent())
	assert.Equal(t, "c", p.Child(1).TextContent())
	assert.Equal(t, KindLineBreak, p.Child(2).Kind())
}

func TestSetAttrs_WrongKindPanics(t *testing.T) {
	m := NewSequence("k")
	p := NewParagraph(m)
	assert.Panics(t, func() { p.SetAttrs(TextAttrs{Text: "x"}) })
	assert.NotPanics(t, func() { p.SetAttrs(BlockAttrs{Indent: 2}) })
}

func TestUnmarshalRecords(t *testing.T) {
	one, err := UnmarshalRecords([]byte(` {"kind":"paragraph","version":1,"children":[]}`))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "paragraph", one[0].Kind)

	many, err := UnmarshalRecords([]byte(`[{"kind":"text","version":1,"text":"a"},{"kind":"text","version":1,"text":"b"}]`))
	require.NoError(t, err)
	assert.Len(t, many, 2)

	_, err = UnmarshalRecords([]byte(`{"kind":`))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
