package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "/uploads/",
	})
	require.NoError(t, err)
	return s
}

func TestLocalStorage_WriteReadDelete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStorage(t)

	content := "hello world"
	req.NoError(s.Write(ctx, "media/greeting.txt", strings.NewReader(content), int64(len(content)), "text/plain"))

	ok, err := s.Exists(ctx, "media/greeting.txt")
	req.NoError(err)
	req.True(ok)

	r, err := s.Read(ctx, "media/greeting.txt")
	req.NoError(err)
	got, err := io.ReadAll(r)
	req.NoError(err)
	req.NoError(r.Close())
	req.Equal(content, string(got))

	req.NoError(s.Delete(ctx, "media/greeting.txt"))
	ok, err = s.Exists(ctx, "media/greeting.txt")
	req.NoError(err)
	req.False(ok)

	// Deleting again is a no-op.
	req.NoError(s.Delete(ctx, "media/greeting.txt"))
}

func TestLocalStorage_WriteOverwrites(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStorage(t)

	req.NoError(s.Write(ctx, "k", strings.NewReader("one"), 3, "text/plain"))
	req.NoError(s.Write(ctx, "k", strings.NewReader("two"), 3, "text/plain"))

	r, err := s.Read(ctx, "k")
	req.NoError(err)
	got, err := io.ReadAll(r)
	req.NoError(err)
	req.NoError(r.Close())
	req.Equal("two", string(got))
}

func TestLocalStorage_RejectsPathTraversal(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(LocalConfig{BasePath: base, BaseURL: "/uploads"})
	req.NoError(err)

	req.NoError(s.Write(ctx, "../escape.txt", strings.NewReader("x"), 1, "text/plain"))

	// The write landed inside the base path, not beside it.
	_, err = os.Stat(filepath.Join(filepath.Dir(base), "escape.txt"))
	req.True(os.IsNotExist(err))
}

func TestLocalStorage_URL(t *testing.T) {
	req := require.New(t)
	s := newTestStorage(t)

	req.Equal("/uploads/media/cat.png", s.URL("media/cat.png"))
}

func TestLocalStorage_LeavesNoTempFilesOnFailure(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(LocalConfig{BasePath: base, BaseURL: "/uploads"})
	req.NoError(err)

	req.Error(s.Write(ctx, "k", failingReader{}, 10, "text/plain"))

	entries, err := os.ReadDir(base)
	req.NoError(err)
	req.Empty(entries)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
