package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, "http://api.example.test/")
	require.NoError(t, err)
	require.NoError(t, s.SetCredential("token", "abc"))
	require.NoError(t, s.SetCredential("refreshToken", "def"))
	require.NoError(t, s.Close())

	s, err = Open(dir, "http://API.example.test")
	require.NoError(t, err)
	defer s.Close()

	token, ok := s.GetCredential("token")
	require.True(t, ok)
	assert.Equal(t, "abc", token)

	require.NoError(t, s.DeleteCredentials("token", "refreshToken"))
	_, ok = s.GetCredential("token")
	assert.False(t, ok)
	_, ok = s.GetCredential("refreshToken")
	assert.False(t, ok)
}

func TestSnapshotPrefixDeletion(t *testing.T) {
	for name, s := range map[string]*Store{
		"memory": NewMemory(),
		"bolt":   mustOpen(t),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveSnapshot("appointments\x1f{\"page\":1}\x1f", []byte(`[1]`), 10))
			require.NoError(t, s.SaveSnapshot("appointments\x1f{\"page\":2}\x1f", []byte(`[2]`), 11))
			require.NoError(t, s.SaveSnapshot("orders\x1f", []byte(`[3]`), 12))

			data, ts, ok := s.LoadSnapshot("appointments\x1f{\"page\":2}\x1f")
			require.True(t, ok)
			assert.JSONEq(t, `[2]`, string(data))
			assert.Equal(t, int64(11), ts)

			require.NoError(t, s.DeleteSnapshots("appointments\x1f"))
			_, _, ok = s.LoadSnapshot("appointments\x1f{\"page\":1}\x1f")
			assert.False(t, ok)
			_, _, ok = s.LoadSnapshot("appointments\x1f{\"page\":2}\x1f")
			assert.False(t, ok)
			_, _, ok = s.LoadSnapshot("orders\x1f")
			assert.True(t, ok)

			require.NoError(t, s.ClearSnapshots())
			_, _, ok = s.LoadSnapshot("orders\x1f")
			assert.False(t, ok)
		})
	}
}

func mustOpen(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
