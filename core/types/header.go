// Package types defines the in-memory execution-layer block header and
// the well-known empty-subtree hashes consensus code checks headers
// against.
package types

import (
	"math/big"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/crypto"
	"github.com/xdc-network/xdpos-core/rlp"
)

// Bloom is a 256-byte log bloom filter. XDPoS headers carry it for
// execution-layer compatibility; consensus code never inspects it.
type Bloom [256]byte

// BlockNonce is the 8-byte proof-of-work nonce field, unused by XDPoS
// but kept for header-shape compatibility with execution-layer tooling.
type BlockNonce [8]byte

// Header is the standard 15-field execution-layer header plus the
// optional post-fork tail fields. The three XDC wire-only authority
// fields (validators, validator, penalties) never appear here; the wire
// adapter (package wire) strips them on ingress and regenerates them on
// egress per the spec's wire/in-memory split.
type Header struct {
	ParentHash  common.Hash    `json:"parentHash"`
	UncleHash   common.Hash    `json:"sha3Uncles"`
	Coinbase    common.Address `json:"miner"`
	Root        common.Hash    `json:"stateRoot"`
	TxHash      common.Hash    `json:"transactionsRoot"`
	ReceiptHash common.Hash    `json:"receiptsRoot"`
	Bloom       Bloom          `json:"logsBloom"`
	Difficulty  *big.Int       `json:"difficulty"`
	Number      *big.Int       `json:"number"`
	GasLimit    uint64         `json:"gasLimit"`
	GasUsed     uint64         `json:"gasUsed"`
	Time        uint64         `json:"timestamp"`
	Extra       []byte         `json:"extraData"`
	MixDigest   common.Hash    `json:"mixHash"`
	Nonce       BlockNonce     `json:"nonce"`

	// Optional post-fork tail, carried opaquely by the wire adapter.
	BaseFee               *big.Int    `json:"baseFeePerGas,omitempty"`
	WithdrawalsRoot       *common.Hash `json:"withdrawalsRoot,omitempty"`
	BlobGasUsed           *uint64     `json:"blobGasUsed,omitempty"`
	ExcessBlobGas         *uint64     `json:"excessBlobGas,omitempty"`
	ParentBeaconBlockRoot *common.Hash `json:"parentBeaconBlockRoot,omitempty"`
	RequestsHash          *common.Hash `json:"requestsHash,omitempty"`
}

// Copy returns a deep-enough copy of h for the invariants consensus code
// relies on (mutating the copy's Extra or big.Ints never touches h).
func (h *Header) Copy() *Header {
	cpy := *h
	if h.Difficulty != nil {
		cpy.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		cpy.Number = new(big.Int).Set(h.Number)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = make([]byte, len(h.Extra))
		copy(cpy.Extra, h.Extra)
	}
	return &cpy
}

// NumberU64 returns Number as a uint64, the form nearly every consensus
// check wants.
func (h *Header) NumberU64() uint64 {
	if h.Number == nil {
		return 0
	}
	return h.Number.Uint64()
}

// Hash returns the Keccak-256 hash of h's RLP encoding, the block hash
// every other header's ParentHash and every snapshot key refers to.
func (h *Header) Hash() common.Hash {
	b, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic(err)
	}
	return common.BytesToHash(crypto.Keccak256(b))
}

var (
	// EmptyUncleHash is the Keccak-256 hash of the RLP encoding of an
	// empty list (0xc0), the value every XDPoS header's UncleHash
	// carries (XDPoS has no uncles).
	EmptyUncleHash = common.BytesToHash(crypto.Keccak256([]byte{0xc0}))

	// EmptyRootHash is the Keccak-256 hash of the RLP encoding of an
	// empty byte string (0x80), the root of an empty Merkle-Patricia
	// trie.
	EmptyRootHash = common.BytesToHash(crypto.Keccak256([]byte{0x80}))

	// EmptyTxsHash is an alias of EmptyRootHash used where a header field
	// specifically names the transactions root.
	EmptyTxsHash = EmptyRootHash

	// EmptyReceiptsHash is an alias of EmptyRootHash used where a header
	// field specifically names the receipts root.
	EmptyReceiptsHash = EmptyRootHash
)
