package XDPoS

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/engines"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/engines/engine_v2"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/reward"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/statecache"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/utils"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/params"
)

const (
	snapshotCacheSize = 128
	signerCacheSize   = 4096
)

// V2ChainReader is what C8 needs from the node beyond engines.ChainHeaderReader
// to validate a V2 header: the masternode set active for the epoch a
// given header falls in. Resolving that set from the header chain
// (walking back to the governing epoch-switch block and applying the
// M1/M2 penalty rotation) is node-wiring's concern; the facade only
// consumes the result.
type V2ChainReader interface {
	engines.ChainHeaderReader
	MasternodesAt(header *types.Header) ([]common.Address, error)
}

// ExecutionOutcome is the minimal surface validate_block_post_execution
// checks header against: the state root execution actually produced.
// Balance mutations from the reward engine are applied by the caller
// against whatever richer outcome type it owns (§9) -- the facade only
// returns the computed payouts.
type ExecutionOutcome struct {
	StateRoot common.Hash
}

// Facade is the single object the rest of the node talks to: it routes
// header/block validation to the V1 or V2 engine by block number, and
// owns the snapshot and signer LRU caches plus a handle to the shared
// state-root cache.
type Facade struct {
	config  *params.XDPoSConfig
	chainID uint64

	v1 *engines.EngineV1
	v2 *engine_v2.Engine

	stateCache *statecache.Cache

	snapshots *lru.Cache
	signers   *lru.Cache
}

// NewFacade wires a facade for chainID/config, persisting V1 snapshots
// to db and the state-root cache to statecachePath (empty disables
// persistence).
func NewFacade(chainID uint64, config *params.XDPoSConfig, db engines.Database, statecachePath string) *Facade {
	snapshots, err := lru.New(snapshotCacheSize)
	if err != nil {
		panic(err)
	}
	signers, err := lru.New(signerCacheSize)
	if err != nil {
		panic(err)
	}
	return &Facade{
		config:     config,
		chainID:    chainID,
		v1:         engines.NewEngineV1(config, db),
		v2:         engine_v2.NewEngine(snapshotCacheSize),
		stateCache: statecache.New(statecachePath, 10_000),
		snapshots:  snapshots,
		signers:    signers,
	}
}

// Version reports which engine governs header.
func (f *Facade) Version(header *types.Header) Version {
	v, _ := PreExecute(f.config, f.chainID, header)
	return v
}

// ValidateHeader checks header against whichever engine governs it,
// consulting the reconstructed parent snapshot for V1 or the decoded
// round/QC state for V2. parent may be nil only for genesis.
func (f *Facade) ValidateHeader(chain V2ChainReader, header, parent *types.Header) error {
	if f.Version(header) == V1 {
		return f.validateHeaderV1(chain, header, parent)
	}
	return f.validateHeaderV2(chain, header, parent)
}

func (f *Facade) validateHeaderV1(chain engines.ChainHeaderReader, header, parent *types.Header) error {
	var snap *engines.Snapshot
	if parent != nil {
		var err error
		snap, err = f.SnapshotAt(chain, parent.Hash())
		if err != nil {
			snap = nil
		}
	}
	signer, err := f.v1.VerifyHeader(header, parent, snap)
	if err != nil {
		return err
	}
	f.signers.Add(header.Hash(), signer)
	return nil
}

func (f *Facade) validateHeaderV2(chain V2ChainReader, header, parent *types.Header) error {
	_, extra, _, err := utils.DecodeExtraV2(header.Extra)
	if err != nil {
		return err
	}

	if parent != nil {
		_, parentExtra, _, err := utils.DecodeExtraV2(parent.Extra)
		if err != nil {
			return err
		}
		if err := engine_v2.VerifyRoundMonotonicity(extra.Round, parentExtra.Round); err != nil {
			return err
		}
		if extra.QuorumCert != nil {
			if err := engine_v2.VerifyQCParent(extra.QuorumCert, parent.Hash(), parent.NumberU64(), parentExtra.Round); err != nil {
				return err
			}
		}
	}

	masternodes, err := chain.MasternodesAt(header)
	if err != nil {
		return utils.Wrap(utils.ErrV2EngineNotInitialized, "resolve masternodes", err)
	}
	if extra.QuorumCert != nil {
		if err := engine_v2.VerifyQC(extra.QuorumCert, masternodes); err != nil {
			return err
		}
		f.v2.SetHighestQC(extra.QuorumCert)
	}

	proposer, err := engine_v2.Proposer(masternodes, extra.Round)
	if err != nil {
		return err
	}
	if header.Coinbase != proposer {
		return utils.ErrUnauthorizedErr
	}
	f.signers.Add(header.Hash(), header.Coinbase)
	return nil
}

// ValidateBlockPreExecution runs the checks validate_header does not
// cover on the block body: currently only the uncle-free invariant
// both engines share.
func (f *Facade) ValidateBlockPreExecution(block *types.Block) error {
	if len(block.Uncles()) > 0 {
		return utils.Custom("uncles not allowed")
	}
	return nil
}

// ValidateBlockPostExecution reconciles the state root execution
// produced against header's announced root (via FinalizeStateRoot's
// §4.4 policy) and, at a checkpoint, runs the reward engine.
func (f *Facade) ValidateBlockPostExecution(chain reward.ChainReader, header *types.Header, outcome *ExecutionOutcome, masternodes []common.Address, owners map[common.Address]common.Address) (*reward.Payouts, error) {
	reconciled := FinalizeStateRoot(f.stateCache, f.config, header.NumberU64(), header.Root, outcome.StateRoot)
	if reconciled != header.Root {
		return nil, utils.ErrInvalidExtraDataErr
	}
	return PostExecute(chain, f.config, header, masternodes, owners), nil
}

// SnapshotAt returns the V1 signer snapshot as of block hash, preferring
// the LRU over reconstructing it from the header chain.
func (f *Facade) SnapshotAt(chain engines.ChainHeaderReader, hash common.Hash) (*engines.Snapshot, error) {
	if v, ok := f.snapshots.Get(hash); ok {
		return v.(*engines.Snapshot), nil
	}
	header := chain.GetHeaderByHash(hash)
	if header == nil {
		return nil, utils.ErrUnknownAncestorErr
	}
	snap, err := f.v1.Snapshot(chain, header.NumberU64(), hash)
	if err != nil {
		return nil, err
	}
	f.snapshots.Add(hash, snap)
	return snap, nil
}

// Author recovers the address that produced header, preferring the
// signer LRU populated by ValidateHeader.
func (f *Facade) Author(header *types.Header) (common.Address, error) {
	if v, ok := f.signers.Get(header.Hash()); ok {
		return v.(common.Address), nil
	}
	if f.Version(header) == V1 {
		return f.v1.Author(header)
	}
	return header.Coinbase, nil
}
