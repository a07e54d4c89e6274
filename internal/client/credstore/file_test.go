package credstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T, secret string) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileStore(path, secret)
	require.NoError(t, err)
	return s, path
}

func TestFileStore_EmptyWhenFileMissing(t *testing.T) {
	s, _ := newTestFileStore(t, "secret")

	v, ok, err := s.Get(context.Background(), KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestFileStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s, path := newTestFileStore(t, "secret")

	require.NoError(t, s.Set(ctx, KeyToken, "tok-1"))
	require.NoError(t, s.Set(ctx, KeyUsuario, `{"id":1}`))

	v, ok, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "tok-1"), "token must not be stored in plaintext")

	require.NoError(t, s.Delete(ctx, KeyToken))
	_, ok, err = s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = s.Get(ctx, KeyUsuario)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, v)

	require.NoError(t, s.Delete(ctx, "missing"))
}

func TestFileStore_ReopenWithSameSecret(t *testing.T) {
	ctx := context.Background()
	s, path := newTestFileStore(t, "secret")
	require.NoError(t, s.Set(ctx, KeyToken, "tok-2"))

	reopened, err := NewFileStore(path, "secret")
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-2", v)
}

func TestFileStore_WrongSecret(t *testing.T) {
	ctx := context.Background()
	s, path := newTestFileStore(t, "secret")
	require.NoError(t, s.Set(ctx, KeyToken, "tok-3"))

	other, err := NewFileStore(path, "another")
	require.NoError(t, err)
	_, _, err = other.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestFileStore_CorruptedFile(t *testing.T) {
	s, path := newTestFileStore(t, "secret")
	require.NoError(t, os.WriteFile(path, []byte("not-json"), 0o600))

	_, _, err := s.Get(context.Background(), KeyToken)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestFileStore_CanceledContext(t *testing.T) {
	s, _ := newTestFileStore(t, "secret")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Set(ctx, KeyToken, "x"), context.Canceled)
}

func TestNewFileStore_Errors(t *testing.T) {
	_, err := NewFileStore("", "secret")
	assert.Error(t, err)
	_, err = NewFileStore("/tmp/x.json", "")
	assert.Error(t, err)
}
