package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/models"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Onboarding\ndescription: New client\ntags:\n  - sales\n  - sales\n  - ops\n---\n# Welcome\n\n[clist:l1|a]Call {{client_name}}[/clist]\n[clist:l1|b]Ping [Ann|7][/clist]\n")
	r, err := Parse(nil, input)
	require.NoError(t, err)

	assert.Equal(t, "Onboarding", r.Title)
	assert.Equal(t, "New client", r.Description)
	assert.Equal(t, []string{"sales", "ops"}, r.Tags)
	assert.Equal(t, "# Welcome\n\n[clist:l1|a]Call {{client_name}}[/clist]\n[clist:l1|b]Ping [Ann|7][/clist]\n", r.Body)

	assert.Equal(t, []models.ChecklistItem{
		{ListID: "l1", ItemID: "a", Position: 0, Text: "Call client_name"},
		{ListID: "l1", ItemID: "b", Position: 1, Text: "Ping Ann"},
	}, r.Checklist)
	assert.ElementsMatch(t, []models.Reference{
		{Kind: models.RefVariable, Target: "client_name"},
		{Kind: models.RefMention, Target: "7"},
	}, r.Refs)
	assert.Contains(t, r.Text, "Welcome")
}

func TestParse_TitleFromHeading(t *testing.T) {
	r, err := Parse(nil, []byte("intro\n\n## Plan **A**\n"))
	require.NoError(t, err)
	assert.Nil(t, r.Frontmatter)
	assert.Equal(t, "Plan A", r.Title)
}

func TestParse_InvalidYAMLFallsBackToBody(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	r, err := Parse(nil, []byte(input))
	require.NoError(t, err)
	assert.Nil(t, r.Frontmatter)
	assert.Equal(t, input, r.Body)
}

func TestParse_CommaSeparatedTags(t *testing.T) {
	r, err := Parse(nil, []byte("---\ntags: a, b ,,a\n---\nx"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Tags)
}

func TestParse_AttachmentAndLinkRefs(t *testing.T) {
	body := `![plan](https://storage.googleapis.com/b/plan.png "attachment_id:12 entityType:Image") and [site](https://example.com)`
	r, err := Parse(nil, []byte(body))
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.Reference{
		{Kind: models.RefAttachment, Target: "12"},
		{Kind: models.RefLink, Target: "https://example.com"},
	}, r.Refs)
}

func TestParse_InvalidText(t *testing.T) {
	_, err := Parse(nil, []byte("bad \xff"))
	assert.ErrorIs(t, err, apperr.ErrDecode)
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "onboarding", TitleFromPath("sales/onboarding.md"))
	assert.Equal(t, "x", TitleFromPath("x"))
}
