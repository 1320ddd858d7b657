package real

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ic "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
)

const (
	identityFilePerm os.FileMode = 0o600
	identityDirPerm  os.FileMode = 0o700

	// identityInfo binds derived keys to this application so the same seed
	// used elsewhere yields a different key.
	identityInfo = "peerlink identity v1"
)

// ErrEmptySeed is returned by DeriveIdentity for a blank seed.
var ErrEmptySeed = errors.New("identity seed is empty")

// DeriveIdentity deterministically derives an Ed25519 key from seed with
// HKDF-SHA256.
func DeriveIdentity(seed string) (ic.PrivKey, error) {
	if strings.TrimSpace(seed) == "" {
		return nil, ErrEmptySeed
	}
	reader := hkdf.New(sha256.New, []byte(seed), nil, []byte(identityInfo))
	priv, _, err := ic.GenerateEd25519Key(reader)
	if err != nil {
		return nil, fmt.Errorf("derive identity: %w", err)
	}
	return priv, nil
}

// LoadOrCreateIdentity reads the protobuf-encoded private key at path, or
// generates a new Ed25519 key and writes it there.
func LoadOrCreateIdentity(path string) (ic.PrivKey, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		priv, _, err := ic.GenerateEd25519Key(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate identity: %w", err)
		}
		return priv, nil
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		priv, err := ic.UnmarshalPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("decode identity %s: %w", path, err)
		}
		return priv, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read identity %s: %w", path, err)
	}

	priv, _, err := ic.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	if err := writeIdentity(path, priv); err != nil {
		return nil, err
	}

	if id, err := peer.IDFromPrivateKey(priv); err == nil {
		logrus.WithFields(logrus.Fields{
			"function": "LoadOrCreateIdentity",
			"path":     path,
			"peer_id":  id.String(),
		}).Info("Created new node identity")
	}
	return priv, nil
}

func writeIdentity(path string, priv ic.PrivKey) error {
	data, err := ic.MarshalPrivateKey(priv)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), identityDirPerm); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(path, data, identityFilePerm); err != nil {
		return fmt.Errorf("write identity %s: %w", path, err)
	}
	return nil
}

// resolveIdentity picks the key for StartNode: a seed wins over the file.
func resolveIdentity(seed, identityPath string) (ic.PrivKey, error) {
	if strings.TrimSpace(seed) != "" {
		return DeriveIdentity(seed)
	}
	return LoadOrCreateIdentity(identityPath)
}
