package wire

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/rlp"
)

func sampleHeader() *types.Header {
	return &types.Header{
		ParentHash:  common.HexToHash("0x01"),
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    common.HexToAddress("0x02"),
		Root:        common.HexToHash("0x03"),
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  big.NewInt(2),
		Number:      big.NewInt(100),
		GasLimit:    8_000_000,
		GasUsed:     21_000,
		Time:        1_700_000_000,
		Extra:       []byte("vanity"),
		Nonce:       types.BlockNonce{},
	}
}

func TestEncodeDecodeHeaderRoundTrip(t *testing.T) {
	h := sampleHeader()
	auth := AuthorityFields{
		Validators: []byte{0x01, 0x02, 0x03},
		Validator:  []byte{0xaa},
		Penalties:  []byte{},
	}

	wire, err := EncodeHeader(h, auth)
	require.NoError(t, err)

	cache := NewHeaderHashCache()
	decoded, gotAuth, err := DecodeHeader(cache, wire)
	require.NoError(t, err)

	assert.Equal(t, h.ParentHash, decoded.ParentHash)
	assert.Equal(t, h.Coinbase, decoded.Coinbase)
	assert.Equal(t, h.Number.Uint64(), decoded.Number.Uint64())
	assert.Equal(t, h.Difficulty.Uint64(), decoded.Difficulty.Uint64())
	assert.Equal(t, h.Extra, decoded.Extra)
	assert.Equal(t, auth.Validators, gotAuth.Validators)
	assert.Equal(t, auth.Validator, gotAuth.Validator)

	cachedHash, ok := cache.Get(h.Number.Uint64())
	require.True(t, ok)
	assert.NotEqual(t, common.Hash{}, cachedHash)
}

func TestEncodeDecodeHeaderWithTail(t *testing.T) {
	h := sampleHeader()
	h.BaseFee = big.NewInt(7)
	root := common.HexToHash("0xdead")
	h.WithdrawalsRoot = &root

	auth := AuthorityFields{Validators: []byte{0x01}, Validator: []byte{0x02}, Penalties: nil}
	wire, err := EncodeHeader(h, auth)
	require.NoError(t, err)

	cache := NewHeaderHashCache()
	decoded, _, err := DecodeHeader(cache, wire)
	require.NoError(t, err)

	require.NotNil(t, decoded.BaseFee)
	assert.Equal(t, h.BaseFee.Uint64(), decoded.BaseFee.Uint64())
	require.NotNil(t, decoded.WithdrawalsRoot)
	assert.Equal(t, root, *decoded.WithdrawalsRoot)
	assert.Nil(t, decoded.BlobGasUsed)
}

func TestDecodeHeaderRejectsTooFewFields(t *testing.T) {
	h := sampleHeader()
	auth := AuthorityFields{}
	wireBytes, err := EncodeHeader(h, auth)
	require.NoError(t, err)

	items, err := rlp.SplitList(wireBytes)
	require.NoError(t, err)
	truncated := rlp.JoinList(items[:10])

	cache := NewHeaderHashCache()
	_, _, err = DecodeHeader(cache, truncated)
	assert.Error(t, err)
}
