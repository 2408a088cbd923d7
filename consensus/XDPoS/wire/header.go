// Package wire translates between the 18-field on-wire XDC block header
// (the standard 15 execution-layer fields plus validators/validator/
// penalties, plus an optional post-fork tail) and the 15-field in-memory
// types.Header this core's consensus engines operate on.
package wire

import (
	"fmt"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/crypto"
	"github.com/xdc-network/xdpos-core/rlp"
)

// standardFieldCount is the number of fixed execution-layer header
// fields every XDC header carries ahead of the three authority fields.
const standardFieldCount = 15

// AuthorityFields are the three XDC wire-only items carried between
// nonce and the optional tail: the epoch's masternode list, the
// header's own validator identity, and the penalized-masternode list.
// They never appear on types.Header -- decode strips them after use,
// encode re-inserts them for the peer.
type AuthorityFields struct {
	Validators []byte
	Validator  []byte
	Penalties  []byte
}

// HeaderHashCache maps block number to the wire-format (18-field) hash
// observed while decoding that header. An explicit value the node
// threads through the adapter and owns -- never ambient singleton
// state (§9's design note).
type HeaderHashCache struct {
	hashes map[uint64]common.Hash
}

// NewHeaderHashCache returns an empty cache.
func NewHeaderHashCache() *HeaderHashCache {
	return &HeaderHashCache{hashes: make(map[uint64]common.Hash)}
}

// Get returns the cached wire-format hash for blockNumber, if any.
func (c *HeaderHashCache) Get(blockNumber uint64) (common.Hash, bool) {
	h, ok := c.hashes[blockNumber]
	return h, ok
}

// Set records the wire-format hash for blockNumber.
func (c *HeaderHashCache) Set(blockNumber uint64, hash common.Hash) {
	c.hashes[blockNumber] = hash
}

// DecodeHeader parses one wire-format header (18 fixed fields plus an
// optional tail), caching the peer's expected (18-field) hash in cache
// under the header's block number, and returns the 15-field in-memory
// header plus the three authority fields stripped out of it.
func DecodeHeader(cache *HeaderHashCache, data []byte) (*types.Header, AuthorityFields, error) {
	items, err := rlp.SplitList(data)
	if err != nil {
		return nil, AuthorityFields{}, fmt.Errorf("wire: split header list: %w", err)
	}
	if len(items) < standardFieldCount+3 {
		return nil, AuthorityFields{}, fmt.Errorf("wire: header has %d fields, want at least %d", len(items), standardFieldCount+3)
	}

	h := &types.Header{}
	decoders := []func([]byte) error{
		bytesDecoder(&h.ParentHash),
		bytesDecoder(&h.UncleHash),
		bytesDecoder(&h.Coinbase),
		bytesDecoder(&h.Root),
		bytesDecoder(&h.TxHash),
		bytesDecoder(&h.ReceiptHash),
		bytesDecoder(&h.Bloom),
		func(b []byte) error { return rlp.DecodeBytes(b, &h.Difficulty) },
		func(b []byte) error { return rlp.DecodeBytes(b, &h.Number) },
		func(b []byte) error { return rlp.DecodeBytes(b, &h.GasLimit) },
		func(b []byte) error { return rlp.DecodeBytes(b, &h.GasUsed) },
		func(b []byte) error { return rlp.DecodeBytes(b, &h.Time) },
		func(b []byte) error { return rlp.DecodeBytes(b, &h.Extra) },
		bytesDecoder(&h.MixDigest),
		bytesDecoder(&h.Nonce),
	}
	for i, dec := range decoders {
		if err := dec(items[i]); err != nil {
			return nil, AuthorityFields{}, fmt.Errorf("wire: field %d: %w", i, err)
		}
	}

	var auth AuthorityFields
	if err := rlp.DecodeBytes(items[15], &auth.Validators); err != nil {
		return nil, AuthorityFields{}, fmt.Errorf("wire: validators: %w", err)
	}
	if err := rlp.DecodeBytes(items[16], &auth.Validator); err != nil {
		return nil, AuthorityFields{}, fmt.Errorf("wire: validator: %w", err)
	}
	if err := rlp.DecodeBytes(items[17], &auth.Penalties); err != nil {
		return nil, AuthorityFields{}, fmt.Errorf("wire: penalties: %w", err)
	}

	tail := items[18:]
	if err := decodeTail(h, tail); err != nil {
		return nil, AuthorityFields{}, err
	}

	hash := common.BytesToHash(crypto.Keccak256(data))
	cache.Set(h.NumberU64(), hash)

	return h, auth, nil
}

// EncodeHeader re-serializes h for the wire: the 15 standard fields,
// auth re-inserted between nonce and the optional tail (empty byte
// strings for any field the caller doesn't know), then the tail fields
// h actually carries.
func EncodeHeader(h *types.Header, auth AuthorityFields) ([]byte, error) {
	items := make([][]byte, 0, standardFieldCount+3+6)
	encoders := []func() ([]byte, error){
		func() ([]byte, error) { return rlp.EncodeToBytes(h.ParentHash) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.UncleHash) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.Coinbase) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.Root) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.TxHash) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.ReceiptHash) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.Bloom) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.Difficulty) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.Number) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.GasLimit) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.GasUsed) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.Time) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.Extra) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.MixDigest) },
		func() ([]byte, error) { return rlp.EncodeToBytes(h.Nonce) },
		func() ([]byte, error) { return rlp.EncodeToBytes(auth.Validators) },
		func() ([]byte, error) { return rlp.EncodeToBytes(auth.Validator) },
		func() ([]byte, error) { return rlp.EncodeToBytes(auth.Penalties) },
	}
	for i, enc := range encoders {
		b, err := enc()
		if err != nil {
			return nil, fmt.Errorf("wire: encode field %d: %w", i, err)
		}
		items = append(items, b)
	}

	tail, err := encodeTail(h)
	if err != nil {
		return nil, err
	}
	items = append(items, tail...)

	return rlp.JoinList(items), nil
}

// decodeTail fills h's optional post-fork fields from whatever prefix
// of {base_fee, withdrawals_root, blob_gas_used, excess_blob_gas,
// parent_beacon_block_root, requests_hash} the wire header carries.
func decodeTail(h *types.Header, tail [][]byte) error {
	setters := []func([]byte) error{
		func(b []byte) error { return rlp.DecodeBytes(b, &h.BaseFee) },
		func(b []byte) error {
			h.WithdrawalsRoot = new(common.Hash)
			return rlp.DecodeBytes(b, h.WithdrawalsRoot)
		},
		func(b []byte) error {
			h.BlobGasUsed = new(uint64)
			return rlp.DecodeBytes(b, h.BlobGasUsed)
		},
		func(b []byte) error {
			h.ExcessBlobGas = new(uint64)
			return rlp.DecodeBytes(b, h.ExcessBlobGas)
		},
		func(b []byte) error {
			h.ParentBeaconBlockRoot = new(common.Hash)
			return rlp.DecodeBytes(b, h.ParentBeaconBlockRoot)
		},
		func(b []byte) error {
			h.RequestsHash = new(common.Hash)
			return rlp.DecodeBytes(b, h.RequestsHash)
		},
	}
	if len(tail) > len(setters) {
		return fmt.Errorf("wire: %d tail fields exceeds known %d", len(tail), len(setters))
	}
	for i, b := range tail {
		if err := setters[i](b); err != nil {
			return fmt.Errorf("wire: tail field %d: %w", i, err)
		}
	}
	return nil
}

// encodeTail returns the RLP items for h's optional tail fields, in
// order, stopping at the first field h does not carry -- the same
// contiguous-prefix rule decodeTail expects.
func encodeTail(h *types.Header) ([][]byte, error) {
	var out [][]byte

	if h.BaseFee == nil {
		return out, nil
	}
	b, err := rlp.EncodeToBytes(h.BaseFee)
	if err != nil {
		return nil, err
	}
	out = append(out, b)

	if h.WithdrawalsRoot == nil {
		return out, nil
	}
	if b, err = rlp.EncodeToBytes(*h.WithdrawalsRoot); err != nil {
		return nil, err
	}
	out = append(out, b)

	if h.BlobGasUsed == nil {
		return out, nil
	}
	if b, err = rlp.EncodeToBytes(*h.BlobGasUsed); err != nil {
		return nil, err
	}
	out = append(out, b)

	if h.ExcessBlobGas == nil {
		return out, nil
	}
	if b, err = rlp.EncodeToBytes(*h.ExcessBlobGas); err != nil {
		return nil, err
	}
	out = append(out, b)

	if h.ParentBeaconBlockRoot == nil {
		return out, nil
	}
	if b, err = rlp.EncodeToBytes(*h.ParentBeaconBlockRoot); err != nil {
		return nil, err
	}
	out = append(out, b)

	if h.RequestsHash == nil {
		return out, nil
	}
	if b, err = rlp.EncodeToBytes(*h.RequestsHash); err != nil {
		return nil, err
	}
	out = append(out, b)

	return out, nil
}

func bytesDecoder[T any](dst *T) func([]byte) error {
	return func(b []byte) error { return rlp.DecodeBytes(b, dst) }
}
