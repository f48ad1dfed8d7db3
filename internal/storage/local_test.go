package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certificate-service/internal/errs"
)

func TestCleanPath(t *testing.T) {
	ok := map[string]string{
		"fonts/a.ttf":          "fonts/a.ttf",
		"/uploads/bg.png":      "uploads/bg.png",
		"uploads//x/./y.png":   "uploads/x/y.png",
		"signatures/sig 1.png": "signatures/sig 1.png",
	}
	for in, want := range ok {
		got, err := CleanPath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"../etc/passwd", "fonts/../../x", `fonts\a.ttf`, "", "/"} {
		_, err := CleanPath(bad)
		assert.True(t, errors.Is(err, errs.ErrInvalidInput), "expected rejection for %q", bad)
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "fonts/A.ttf", []byte("a")))
	require.NoError(t, s.Write(ctx, "fonts/B.ttf", []byte("b")))

	data, err := s.Read(ctx, "fonts/A.ttf")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)

	names, err := s.List(ctx, "fonts")
	require.NoError(t, err)
	assert.Equal(t, []string{"A.ttf", "B.ttf"}, names)

	require.NoError(t, s.Delete(ctx, "fonts/A.ttf"))
	_, err = s.Read(ctx, "fonts/A.ttf")
	assert.True(t, errs.IsNotFound(err))
	assert.True(t, errs.IsNotFound(s.Delete(ctx, "fonts/A.ttf")))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	root := filepath.Join(parent, "assets")
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	secret := filepath.Join(parent, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("x"), 0644))

	_, err = s.Read(ctx, "../secret.txt")
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	assert.Error(t, s.Write(ctx, "../../evil.txt", []byte("x")))
	assert.Error(t, s.Delete(ctx, "a/../../secret.txt"))

	_, err = os.Stat(secret)
	assert.NoError(t, err)
}

func TestLocalStoreListMissingDir(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	names, err := s.List(context.Background(), "fonts")
	require.NoError(t, err)
	assert.Empty(t, names)
}
