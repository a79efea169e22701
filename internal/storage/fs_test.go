package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/stencil/internal/apperr"
)

func tempStore(t *testing.T, opts ...Option) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir(), opts...)
	require.NoError(t, err)
	return fs
}

func TestWriteReadMove(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Write("a/b/onboarding.md", []byte("[clist:l|i]Call[/clist]")))

	got, err := s.Read("a/b/onboarding.md")
	require.NoError(t, err)
	assert.Equal(t, "[clist:l|i]Call[/clist]", string(got))

	require.NoError(t, s.Move("a/b/onboarding.md", "c/moved.md"))
	_, err = s.Read("a/b/onboarding.md")
	assert.ErrorIs(t, err, os.ErrNotExist)
	got, err = s.Read("c/moved.md")
	require.NoError(t, err)
	assert.Equal(t, "[clist:l|i]Call[/clist]", string(got))

	require.NoError(t, s.Delete("c/moved.md"))
	_, err = s.Read("c/moved.md")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestList_SkipsOtherFilesAndExcludes(t *testing.T) {
	s := tempStore(t, WithExclude("drafts/**", "**/*.tmp.md"))
	for _, p := range []string{"a.md", "sub/b.md", "readme.txt", "drafts/x.md", "sub/c.tmp.md"} {
		require.NoError(t, s.Write(p, []byte(p)))
	}

	items, err := s.List("")
	require.NoError(t, err)
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
		assert.NotEmpty(t, it.Checksum)
	}
	assert.ElementsMatch(t, []string{"a.md", "sub/b.md"}, paths)

	assert.True(t, s.Excluded("drafts/deep/y.md"))
	assert.False(t, s.Excluded("sub/b.md"))
}

func TestList_SkipsAttachmentDir(t *testing.T) {
	s := tempStore(t)
	for _, p := range []string{"a.md", AttachmentDir + "/notes.md", "sub/" + AttachmentDir + "/b.md"} {
		require.NoError(t, s.Write(p, []byte(p)))
	}

	items, err := s.List("")
	require.NoError(t, err)
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	assert.ElementsMatch(t, []string{"a.md", "sub/attachments/b.md"}, paths)

	assert.True(t, s.Excluded(AttachmentDir))
	assert.True(t, s.Excluded("./attachments/x.md"))
	assert.False(t, s.Excluded("attachments-old/x.md"))

	data, err := s.Read(AttachmentDir + "/notes.md")
	require.NoError(t, err)
	assert.Equal(t, "attachments/notes.md", string(data))
}

func TestNewFS_RejectsBadPattern(t *testing.T) {
	_, err := NewFS(t.TempDir(), WithExclude("[unclosed"))
	assert.Error(t, err)
}

func TestStat(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Write("x.md", []byte("12345")))
	meta, err := s.Stat("x.md")
	require.NoError(t, err)
	assert.Equal(t, "x.md", meta.Path)
	assert.EqualValues(t, 5, meta.Size)

	_, err = s.Stat("missing.md")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTraversalBlocked(t *testing.T) {
	s := tempStore(t)
	for _, p := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow"} {
		_, err := s.Read(p)
		assert.ErrorIs(t, err, apperr.ErrInvalidPath, p)
		assert.ErrorIs(t, s.Write(p, []byte("x")), apperr.ErrInvalidPath, p)
	}
	assert.ErrorIs(t, s.Write("", []byte("x")), apperr.ErrInvalidPath)
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Write("atomic.md", []byte("v1")))
	require.NoError(t, s.Write("atomic.md", []byte("v2")))

	got, _ := s.Read("atomic.md")
	assert.Equal(t, "v2", string(got))
	matches, _ := filepath.Glob(filepath.Join(s.Root(), tmpPrefix+"*"))
	assert.Empty(t, matches)
}

func TestNewFS_RootErrors(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	f, err := os.CreateTemp(t.TempDir(), "stencil-test-*")
	require.NoError(t, err)
	_ = f.Close()
	_, err = NewFS(f.Name())
	assert.Error(t, err)
}
