package XDPoS

import (
	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/reward"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/statecache"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/log"
	"github.com/xdc-network/xdpos-core/params"
)

// Version names which of the two co-existing consensus regimes governs
// a block.
type Version int

const (
	V1 Version = iota
	V2
)

// eip158SuppressedChains lists the chains where empty-account cleanup
// is disabled; the state-transition function reads this flag, the core
// only publishes it.
var eip158SuppressedChains = map[uint64]bool{
	params.MainnetChainID: true,
	params.ApothemChainID: true,
}

// PreExecute selects which protocol version governs header, and
// reports whether EIP-158 empty-account cleanup should be suppressed
// for chainID. It performs no validation of its own; that is C5/C6's
// job.
func PreExecute(cfg *params.XDPoSConfig, chainID uint64, header *types.Header) (Version, bool) {
	v := V1
	if cfg.IsV2(header.NumberU64()) {
		v = V2
	}
	return v, eip158SuppressedChains[chainID]
}

// IsFreeGasTx reports whether tx qualifies for the TIP-signing
// zero-effective-gas-price rule: calls to the block-signers or
// randomize contracts after TIPSigningBlock.
func IsFreeGasTx(header *types.Header, tx *types.Transaction) bool {
	if header.NumberU64() < params.TIPSigningBlock {
		return false
	}
	to := tx.To()
	if to == nil {
		return false
	}
	return *to == params.BlockSignersContract || *to == params.RandomizeContract
}

// PostExecute runs the checkpoint reward engine when header closes an
// epoch, returning the computed payouts so the caller can apply them
// to its own execution outcome. The exact balance-mutation mechanism
// is an EVM-integration concern this core does not own (§9); callers
// apply payouts.Balances against their own state however they see fit.
// A nil return means header is not a reward-bearing checkpoint.
func PostExecute(chain reward.ChainReader, cfg *params.XDPoSConfig, header *types.Header, masternodes []common.Address, owners map[common.Address]common.Address) *reward.Payouts {
	n := header.NumberU64()
	if n == 0 || n%cfg.Epoch != 0 {
		return nil
	}
	payouts := reward.ApplyCheckpoint(chain, n, cfg, masternodes, owners)
	log.Info("checkpoint reward distributed", "number", n, "signers", len(payouts.Logs))
	return payouts
}

// FinalizeStateRoot applies the §4.4 reconciliation policy: non-
// checkpoint blocks always use the freshly computed root; checkpoint
// blocks consult the cache when the computed root disagrees with the
// header's announced one.
func FinalizeStateRoot(cache *statecache.Cache, cfg *params.XDPoSConfig, blockNumber uint64, headerRoot, computedRoot common.Hash) common.Hash {
	if blockNumber == 0 || blockNumber%cfg.Epoch != 0 {
		return computedRoot
	}
	if headerRoot == computedRoot {
		return computedRoot
	}
	if cached, ok := cache.GetLocalRoot(headerRoot); ok {
		if cached != computedRoot {
			log.Warn("checkpoint state root divergence re-observed",
				"number", blockNumber, "header_root", headerRoot, "computed_root", computedRoot, "cached_root", cached)
		}
		return cached
	}
	log.Warn("checkpoint state root divergence observed",
		"number", blockNumber, "header_root", headerRoot, "computed_root", computedRoot)
	cache.Insert(headerRoot, computedRoot, blockNumber)
	return computedRoot
}
