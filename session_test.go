package directory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	directory "github.com/medmanager/go-directory"
)

func TestFileSessionStoreRoundTrip(t *testing.T) {
	store := directory.NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))

	principal := doctorPrincipal()
	require.NoError(t, store.Save("abc", principal))

	session, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", session.Token)
	assert.Equal(t, principal, session.Principal)
}

func TestFileSessionStoreAbsentBeforeSave(t *testing.T) {
	store := directory.NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileSessionStoreClear(t *testing.T) {
	store := directory.NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))

	require.NoError(t, store.Save("abc", doctorPrincipal()))
	require.NoError(t, store.Clear())

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing an already-absent session is not an error.
	require.NoError(t, store.Clear())
}

func TestFileSessionStorePartialRecordIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := directory.NewFileSessionStore(path)

	// A record with a token but no principal must never load as valid.
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"abc"}`), 0o600))

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	// Same for a principal without a token.
	require.NoError(t, os.WriteFile(path, []byte(`{"user":{"id":7,"fullName":"Greg House","role":"Doctor"}}`), 0o600))

	_, ok, err = store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileSessionStoreCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := directory.NewFileSessionStore(path)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, _, err := store.Load()
	assert.ErrorIs(t, err, directory.ErrSessionDecode)
}

func TestFileSessionStoreOverwrite(t *testing.T) {
	store := directory.NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))

	require.NoError(t, store.Save("old", doctorPrincipal()))
	require.NoError(t, store.Save("new", adminPrincipal()))

	session, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", session.Token)
	assert.Equal(t, adminPrincipal(), session.Principal)
}

func TestMemorySessionStore(t *testing.T) {
	store := directory.NewMemorySessionStore()

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save("abc", doctorPrincipal()))
	session, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", session.Token)

	require.NoError(t, store.Clear())
	_, ok, err = store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}
