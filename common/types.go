// Package common holds the small fixed-size value types shared by every
// consensus package: addresses, hashes, and the conversions between them
// and their hex/byte representations.
package common

import (
	"encoding/hex"
	"math/big"
	"sort"
	"strings"
)

const (
	// HashLength is the expected length of the Keccak-256 hash.
	HashLength = 32
	// AddressLength is the expected length of an account address.
	AddressLength = 20
)

// Hash is a 32-byte Keccak-256 hash.
type Hash [HashLength]byte

// BytesToHash sets the hash to the value of b, left-padding if it is
// shorter and truncating from the left if it is longer than 32 bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash sets the hash to the value of s.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

// StringToHash sets the hash to the raw bytes of s, left-padding like
// BytesToHash. Used by tests that want a hash from an arbitrary label
// without hex-encoding it first.
func StringToHash(s string) Hash { return BytesToHash([]byte(s)) }

// Bytes returns the raw bytes of h.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed lower-case hex encoding of h.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// Cmp compares h to other lexicographically.
func (h Hash) Cmp(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Address is a 20-byte account address.
type Address [AddressLength]byte

// BytesToAddress sets the address to the value of b, left-padding if it is
// shorter and truncating from the left if it is longer than 20 bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// HexToAddress sets the address to the value of s.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

// BigToAddress interprets b as the big-endian bytes of an address.
func BigToAddress(b *big.Int) Address { return BytesToAddress(b.Bytes()) }

// Bytes returns the raw bytes of a.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the 0x-prefixed lower-case hex encoding of a.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// Hash returns a left-padded Hash view of the address, used nowhere in
// consensus logic but kept for wire-level convenience.
func (a Address) Hash() Hash { return BytesToHash(a[:]) }

// Cmp compares a to other lexicographically, used to order signer sets
// into their canonical ascending form.
func (a Address) Cmp(other Address) int {
	for i := range a {
		if a[i] != other[i] {
			if a[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// FromHex decodes a hex string that may or may not carry a 0x prefix.
func FromHex(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// Hex2Bytes is an alias of FromHex kept for call sites that spell it the
// way the teacher's codebase does.
func Hex2Bytes(s string) []byte { return FromHex(s) }

// SortAddresses returns a new, ascending-sorted copy of addrs. Used to
// derive the canonical signer order referenced throughout the snapshot
// and V2 validator-set logic.
func SortAddresses(addrs []Address) []Address {
	out := make([]Address, len(addrs))
	copy(out, addrs)
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// AddressEqual reports whether a and b designate the same account.
func AddressEqual(a, b Address) bool { return a == b }

// Big is a thin convenience wrapper used by call sites that want a
// *big.Int view of a hash or address without importing math/big
// themselves at every use site.
func Big(b []byte) *big.Int { return new(big.Int).SetBytes(b) }
