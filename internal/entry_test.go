package internal

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Store.Path = filepath.Join(dir, "docs")
	cfg.SQLite.Path = filepath.Join(dir, "data", "index.db")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestSetup_SyncsExistingDocuments(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Store.Path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Store.Path, "a.md"),
		[]byte("# Alpha\n\n[clist:l|i]task[/clist]"), 0o644))

	var logs bytes.Buffer
	c, err := setup([]Option{WithConfig(cfg), WithLogWriter(&logs)})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	assert.FileExists(t, cfg.SQLite.Path)
	assert.Contains(t, logs.String(), "Configuration loaded")

	items, err := c.svc.Checklist(context.Background(), "a.md")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "task", items[0].Text)
}

func TestSetup_RequiresConfig(t *testing.T) {
	_, err := setup(nil)
	assert.Error(t, err)
}

func TestHealthOK(t *testing.T) {
	rec := httptest.NewRecorder()
	healthOK(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
