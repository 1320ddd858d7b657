package real

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveIdentityDeterministic(t *testing.T) {
	a, err := DeriveIdentity("correct horse battery staple")
	require.NoError(t, err)
	b, err := DeriveIdentity("correct horse battery staple")
	require.NoError(t, err)
	c, err := DeriveIdentity("another seed")
	require.NoError(t, err)

	idA, err := peer.IDFromPrivateKey(a)
	require.NoError(t, err)
	idB, err := peer.IDFromPrivateKey(b)
	require.NoError(t, err)
	idC, err := peer.IDFromPrivateKey(c)
	require.NoError(t, err)

	assert.Equal(t, idA, idB)
	assert.NotEqual(t, idA, idC)
}

func TestDeriveIdentityRejectsEmptySeed(t *testing.T) {
	_, err := DeriveIdentity("  ")
	assert.ErrorIs(t, err, ErrEmptySeed)
}

func TestLoadOrCreateIdentityPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "identity.key")

	first, err := LoadOrCreateIdentity(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, identityFilePerm, info.Mode().Perm())

	second, err := LoadOrCreateIdentity(path)
	require.NoError(t, err)
	assert.True(t, first.Equals(second))
}

func TestLoadOrCreateIdentityRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.key")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))

	_, err := LoadOrCreateIdentity(path)
	assert.Error(t, err)
}

func TestLoadOrCreateIdentityWithoutPathIsEphemeral(t *testing.T) {
	a, err := LoadOrCreateIdentity("")
	require.NoError(t, err)
	b, err := LoadOrCreateIdentity("")
	require.NoError(t, err)
	assert.False(t, a.Equals(b))
}

func TestResolveIdentityPrefersSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.key")
	fromSeed, err := resolveIdentity("seed", path)
	require.NoError(t, err)

	derived, err := DeriveIdentity("seed")
	require.NoError(t, err)
	assert.True(t, fromSeed.Equals(derived))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "seeded start must not write an identity file")
}
