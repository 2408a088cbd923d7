// Package crypto wraps the secp256k1 and Keccak-256 primitives consensus
// verification needs: header seal recovery, vote/timeout signature
// recovery, and the digests both are taken over. The public surface
// mirrors the stdlib crypto/ecdsa types so call sites look the way they
// do in the rest of the Ethereum-derived ecosystem; the actual point
// arithmetic is done by decred's secp256k1 implementation.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/xdc-network/xdpos-core/common"
)

// SignatureLength is the byte length of a recoverable ECDSA signature:
// 32 bytes R, 32 bytes S, 1 byte recovery id.
const SignatureLength = 64 + 1

// DigestLength is the byte length of a Keccak-256 digest.
const DigestLength = 32

var theCurve = newS256()

// S256 returns the secp256k1 curve used throughout this package.
func S256() elliptic.Curve { return theCurve }

func newS256() *elliptic.CurveParams {
	c := &elliptic.CurveParams{Name: "secp256k1"}
	c.P, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFC2F", 16)
	c.N, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
	c.B, _ = new(big.Int).SetString("0000000000000000000000000000000000000000000000000000000000000007", 16)
	c.Gx, _ = new(big.Int).SetString("79BE667EF9DCBBAC55A06295CE870B07029BFCDB2DCE28D959F2815B16F81798", 16)
	c.Gy, _ = new(big.Int).SetString("483ADA7726A3C4655DA4FBFC0E1108A8FD17B448A68554199C47D08FFB10D4B8", 16)
	c.BitSize = 256
	return c
}

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash is Keccak256 with the result wrapped as a common.Hash.
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(Keccak256(data...))
}

// GenerateKey creates a new random private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return toStdlib(priv), nil
}

// HexToECDSA parses a hex-encoded private key, as used by test fixtures
// that need a deterministic signer.
func HexToECDSA(hexkey string) (*ecdsa.PrivateKey, error) {
	b := common.FromHex(hexkey)
	if len(b) != 32 {
		return nil, errors.New("crypto: invalid private key length")
	}
	priv := secp256k1.PrivKeyFromBytes(b)
	return toStdlib(priv), nil
}

func toStdlib(priv *secp256k1.PrivateKey) *ecdsa.PrivateKey {
	pub := priv.PubKey()
	out := new(ecdsa.PrivateKey)
	out.PublicKey.Curve = theCurve
	out.D = new(big.Int).SetBytes(priv.Serialize())
	out.PublicKey.X, out.PublicKey.Y = fieldToBig(pub.X()), fieldToBig(pub.Y())
	return out
}

func fieldToBig(f *secp256k1.FieldVal) *big.Int {
	b := f.Bytes()
	return new(big.Int).SetBytes(b[:])
}

func toDecredPriv(priv *ecdsa.PrivateKey) *secp256k1.PrivateKey {
	var b [32]byte
	priv.D.FillBytes(b[:])
	return secp256k1.PrivKeyFromBytes(b[:])
}

// Sign produces a 65-byte recoverable signature over a 32-byte digest
// using the given private key, in [R || S || recovery_id] form.
func Sign(digest []byte, priv *ecdsa.PrivateKey) ([]byte, error) {
	if len(digest) != DigestLength {
		return nil, fmt.Errorf("crypto: hash is required to be exactly %d bytes (%d)", DigestLength, len(digest))
	}
	sig := dsa.SignCompact(toDecredPriv(priv), digest, false)
	// SignCompact returns [recovery_id+27, R, S]; the wire/seal format used
	// throughout this codebase is [R, S, recovery_id].
	out := make([]byte, SignatureLength)
	copy(out[0:32], sig[1:33])
	copy(out[32:64], sig[33:65])
	out[64] = sig[0] - 27
	return out, nil
}

// Ecrecover recovers the uncompressed public key bytes (65 bytes, 0x04
// prefix) that produced sig over digest.
func Ecrecover(digest, sig []byte) ([]byte, error) {
	pub, err := SigToPub(digest, sig)
	if err != nil {
		return nil, err
	}
	return elliptic.Marshal(theCurve, pub.X, pub.Y), nil
}

// SigToPub recovers the public key from a 65-byte [R||S||V] signature.
func SigToPub(digest, sig []byte) (*ecdsa.PublicKey, error) {
	if len(sig) != SignatureLength {
		return nil, errors.New("crypto: invalid signature length")
	}
	if len(digest) != DigestLength {
		return nil, errors.New("crypto: invalid digest length")
	}
	v := sig[64]
	// Accept both the raw {0,1,2,3} recovery id and the EIP-155-ish
	// {27,28,...} and {35+...} encodings seen on historical headers.
	switch {
	case v >= 35:
		v = (v - 35) % 2
	case v >= 27:
		v = v - 27
	}
	if v > 3 {
		return nil, errors.New("crypto: invalid recovery id")
	}
	compact := make([]byte, SignatureLength)
	compact[0] = v + 27
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])

	pub, _, err := dsa.RecoverCompact(compact, digest)
	if err != nil {
		return nil, fmt.Errorf("crypto: signature verification failed: %w", err)
	}
	return &ecdsa.PublicKey{Curve: theCurve, X: fieldToBig(pub.X()), Y: fieldToBig(pub.Y())}, nil
}

// PubkeyToAddress derives the 20-byte account address from a public key.
func PubkeyToAddress(pub ecdsa.PublicKey) common.Address {
	buf := elliptic.Marshal(theCurve, pub.X, pub.Y)
	digest := Keccak256(buf[1:])
	return common.BytesToAddress(digest[12:])
}

// PubkeyBytesToAddress derives the address from an uncompressed public
// key (65 bytes, 0x04 prefix), for call sites that only have the wire
// form of a recovered key.
func PubkeyBytesToAddress(pub []byte) (common.Address, error) {
	if len(pub) != 65 || pub[0] != 0x04 {
		return common.Address{}, errors.New("crypto: invalid public key")
	}
	digest := Keccak256(pub[1:])
	return common.BytesToAddress(digest[12:]), nil
}

// EcrecoverAddress recovers the signer address directly from a
// digest/signature pair, the call shape consensus verification most
// commonly wants.
func EcrecoverAddress(digest, sig []byte) (common.Address, error) {
	pub, err := SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	return PubkeyToAddress(*pub), nil
}
