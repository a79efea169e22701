package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	require.NoError(t, app.Run(context.Background(), append([]string{"stencil"}, args...)))
	return out.String()
}

func TestDecodeEncodeCommands(t *testing.T) {
	catalogFile := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogFile, []byte("- api_name: client_name\n  title: Client\n  subtitle: CRM\n"), 0o644))

	src := "[clist:l|a]Call {{client_name}}[/clist]"
	tree := runApp(t, src, "decode", "--catalog", catalogFile)
	assert.Contains(t, tree, `"kind": "checklist"`)
	assert.Contains(t, tree, `"title": "Client"`)

	text := runApp(t, tree, "encode")
	assert.Equal(t, src+"\n", text)
}

func TestInspectCommand(t *testing.T) {
	out := runApp(t, "# Plan\n\n[clist:l|a]Ping [Ann|3][/clist]", "inspect", "-")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "root", lines[0])
	assert.Contains(t, out, "  heading h1\n")
	assert.Contains(t, out, `checklist-item l|a`)
	assert.Contains(t, out, `mention user:3 "Ann"`)
}

func TestCanonicalizeCommand(t *testing.T) {
	out := runApp(t, "hi [[@Ann|7]] {{x}}[variable_name:X]", "canonicalize")
	assert.Equal(t, "hi [Ann|7] {{x}}", out)
}

func TestEncodeRejectsMalformedTree(t *testing.T) {
	app := newApp()
	app.Reader = strings.NewReader(`{"kind":`)
	app.Writer = &bytes.Buffer{}
	assert.Error(t, app.Run(context.Background(), []string{"stencil", "encode"}))
}
