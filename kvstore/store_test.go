package kvstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories lists every backend so the same contract runs against each.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemory() },
		"file": func() Store {
			s, err := OpenFile(filepath.Join(t.TempDir(), "blobs"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func() Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "peerlink.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			defer s.Close()

			_, err := s.Get("contacts")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put("contacts", []byte(`[{"peerId":"a"}]`)))
			got, err := s.Get("contacts")
			require.NoError(t, err)
			assert.Equal(t, `[{"peerId":"a"}]`, string(got))

			require.NoError(t, s.Put("contacts", []byte(`[]`)))
			got, err = s.Get("contacts")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))

			require.NoError(t, s.Delete("contacts"))
			_, err = s.Get("contacts")
			assert.ErrorIs(t, err, ErrNotFound)

			// deleting twice is fine
			assert.NoError(t, s.Delete("contacts"))
		})
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()
			defer s.Close()

			_, err := s.Get(" ")
			assert.ErrorIs(t, err, ErrInvalidKey)
			assert.ErrorIs(t, s.Put("", []byte("x")), ErrInvalidKey)
			assert.ErrorIs(t, s.Delete(""), ErrInvalidKey)
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Put("k", value))
	value[0] = 'z'

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _ := m.Get("k")
	assert.Equal(t, "abc", string(again))
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, err := OpenFile(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../escape", "a/b", `a\b`, "..", "."} {
		assert.ErrorIs(t, s.Put(key, []byte("x")), ErrInvalidKey, key)
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("contacts", []byte("v1")))

	info, err := os.Stat(filepath.Join(dir, "contacts"+fileSuffix))
	require.NoError(t, err)
	assert.Equal(t, fileDataPerm, info.Mode().Perm())

	reopened, err := OpenFile(dir)
	require.NoError(t, err)
	got, err := reopened.Get("contacts")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "peerlink.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("contacts", []byte("v1")))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("contacts")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))
}

func TestSQLiteStoresEmptyValue(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("k", nil))
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		path    string
		wantErr bool
	}{
		{"memory", "memory", "", false},
		{"file", "file", t.TempDir(), false},
		{"default is file", "", t.TempDir(), false},
		{"sqlite", "SQLite", filepath.Join(t.TempDir(), "x.db"), false},
		{"file without path", "file", "", true},
		{"unknown", "redis", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.backend, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
}
