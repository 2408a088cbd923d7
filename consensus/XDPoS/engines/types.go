// Package engines implements the V1 epoch-based proof-of-authority
// validator: checkpoint-driven signer-set rotation, in-turn/out-of-turn
// difficulty, and the anti-spam recently-signed window.
package engines

import (
	"math/big"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/params"
)

// ExtraVanity is the fixed-length vanity prefix every header's Extra
// field carries ahead of the checkpoint signer list or seal signature.
const ExtraVanity = 32

// Magic nonce values a non-checkpoint header's Nonce field carries to
// cast a signer-set vote: all-ones to authorize, all-zeros to drop.
var (
	nonceAuthVote = types.BlockNonce{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
)

// Difficulty values a V1 block can carry: 2 for the in-turn signer, 1
// for anyone else in the authorized set.
var (
	diffInTurn = big.NewInt(2)
	diffNoTurn = big.NewInt(1)
)

// ChainHeaderReader is the subset of chain access V1 validation needs:
// walking back from a header to the checkpoint it was built on.
type ChainHeaderReader interface {
	Config() *params.ChainConfig
	CurrentHeader() *types.Header
	GetHeader(hash common.Hash, number uint64) *types.Header
	GetHeaderByNumber(number uint64) *types.Header
	GetHeaderByHash(hash common.Hash) *types.Header
	GetTd(hash common.Hash, number uint64) *big.Int
}

// Database is the key-value store V1 persists signer snapshots
// through.
type Database interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
}

// SignerFn signs data (typically a sealHash) on behalf of account,
// backed by whatever key-management the node wires in.
type SignerFn func(account common.Address, data []byte) ([]byte, error)
