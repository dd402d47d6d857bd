package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	f, err := NewFile(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemory(),
		"file":   f,
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := s.Get(context.Background(), "settings")
			require.NoError(t, err)
			require.False(t, ok)
			require.Nil(t, v)
		})
	}
}

func TestStore_SetThenGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, "settings", []byte(`{"a":1}`)))
			require.NoError(t, s.Set(ctx, "settings", []byte(`{"a":2}`)))

			v, ok, err := s.Get(ctx, "settings")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, `{"a":2}`, string(v))
		})
	}
}

func TestStore_InvalidKey(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, key := range []string{"", "  ", "a/b", `a\b`, ".."} {
				require.ErrorIs(t, s.Set(ctx, key, nil), ErrInvalidKey, "key %q", key)
				_, _, err := s.Get(ctx, key)
				require.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
			}
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Close())
			require.ErrorIs(t, s.Set(context.Background(), "k", []byte("v")), ErrClosed)
			_, _, err := s.Get(context.Background(), "k")
			require.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestStore_CanceledContext(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			require.ErrorIs(t, s.Set(ctx, "k", []byte("v")), context.Canceled)
		})
	}
}

func TestMemory_CopiesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	in := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", in))
	in[0] = 'x'

	out, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(out))

	out[0] = 'y'
	again, _, _ := m.Get(ctx, "k")
	require.Equal(t, "abc", string(again))
}

func TestFile_WritesOneFilePerKey(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, "settings", []byte("{}")))
	require.NoError(t, f.Set(ctx, "other", []byte("[]")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"settings.json", "other.json"}, names)

	data, err := os.ReadFile(f.Path("settings"))
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))
}

func TestFile_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewFile(dir)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
