// Package keystore is a minimal signing backend over accounts.Account,
// sufficient for the consensus core's own test fixtures to mint a
// signer identity from a raw private key. It intentionally does not
// implement the teacher's encrypted-JSON-on-disk format: nothing in
// this repo's consensus path reads key material back off disk, so the
// scrypt-encrypted keystore file format is out of scope.
package keystore

import (
	"crypto/ecdsa"
	"errors"
	"sync"

	"github.com/xdc-network/xdpos-core/accounts"
	"github.com/xdc-network/xdpos-core/crypto"
)

// KeyStore holds unlocked signing keys in memory, keyed by address.
type KeyStore struct {
	keydir   string
	scryptN  int
	scryptP  int
	mu       sync.Mutex
	unlocked map[accounts.Account]*ecdsa.PrivateKey
}

// NewKeyStore returns a KeyStore rooted at keydir. scryptN/scryptP are
// accepted for call-site compatibility with the teacher's API and are
// otherwise unused, since this backend never persists encrypted keys.
func NewKeyStore(keydir string, scryptN, scryptP int) *KeyStore {
	return &KeyStore{
		keydir:   keydir,
		scryptN:  scryptN,
		scryptP:  scryptP,
		unlocked: make(map[accounts.Account]*ecdsa.PrivateKey),
	}
}

// ImportECDSA registers priv under its derived address. passphrase is
// accepted for API compatibility and ignored.
func (ks *KeyStore) ImportECDSA(priv *ecdsa.PrivateKey, passphrase string) (accounts.Account, error) {
	a := accounts.Account{Address: crypto.PubkeyToAddress(priv.PublicKey)}
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.unlocked[a] = priv
	return a, nil
}

// Unlock is a no-op: ImportECDSA already holds the key ready to sign.
// passphrase is accepted for API compatibility and ignored.
func (ks *KeyStore) Unlock(a accounts.Account, passphrase string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if _, ok := ks.unlocked[a]; !ok {
		return errors.New("keystore: unknown account")
	}
	return nil
}

// SignHash signs hash with a's private key.
func (ks *KeyStore) SignHash(a accounts.Account, hash []byte) ([]byte, error) {
	ks.mu.Lock()
	priv, ok := ks.unlocked[a]
	ks.mu.Unlock()
	if !ok {
		return nil, errors.New("keystore: unknown account")
	}
	return crypto.Sign(hash, priv)
}
