package keystore

import (
	"testing"

	"github.com/stretchr/testify/require"

	vaulterrors "securecloud/internal/errors"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"file":   fs,
		"memory": NewMemoryStore(),
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save("identity.enc.private", []byte("secret-bytes")))
			got, err := store.Load("identity.enc.private")
			require.NoError(t, err)
			require.Equal(t, []byte("secret-bytes"), got)
			require.True(t, store.Exists("identity.enc.private"))
		})
	}
}

func TestStoreLoadMissingReturnsNotFound(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load("nope")
			require.ErrorIs(t, err, vaulterrors.ErrSecretNotFound)
			require.False(t, store.Exists("nope"))
		})
	}
}

func TestStoreDeleteMissingIsNotAnError(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Delete("never-existed"))
		})
	}
}

func TestStoreDeleteRemovesValue(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save("k", []byte("v")))
			require.NoError(t, store.Delete("k"))
			require.False(t, store.Exists("k"))
		})
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save("k", []byte("first")))
			require.NoError(t, store.Save("k", []byte("second")))
			got, err := store.Load("k")
			require.NoError(t, err)
			require.Equal(t, []byte("second"), got)
		})
	}
}
