package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webgate-io/authgate/core"
)

func TestFileStore_SetGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "session.token", "abc123"))

	value, err := s.Get(ctx, "session.token")
	require.NoError(t, err)
	assert.Equal(t, "abc123", value)

	require.NoError(t, s.Delete(ctx, "session.token"))
	require.NoError(t, s.Delete(ctx, "session.token"))

	_, err = s.Get(ctx, "session.token")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	first, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "session.token", "abc123"))

	// A new instance over the same path sees the value, the way a reloaded
	// page sees its origin store.
	second, err := NewFileStore(path)
	require.NoError(t, err)

	value, err := second.Get(ctx, "session.token")
	require.NoError(t, err)
	assert.Equal(t, "abc123", value)
}

func TestFileStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = s.Get(ctx, "session.token")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Writes recover the file.
	require.NoError(t, s.Set(ctx, "k", "v"))

	value, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestFileStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "k", "v"))
}
