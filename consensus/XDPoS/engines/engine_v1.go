package engines

import (
	"errors"
	"math/big"
	"sync"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/utils"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/crypto"
	"github.com/xdc-network/xdpos-core/params"
)

// EngineV1 validates and seals blocks under the epoch-based V1
// proof-of-authority protocol: checkpoint-driven signer rotation,
// in-turn/out-of-turn difficulty, and the recently-signed anti-spam
// window.
type EngineV1 struct {
	config *params.XDPoSConfig
	db     Database
	period uint64

	signatures *signerCache

	lock   sync.RWMutex
	signer common.Address
	signFn SignerFn
}

// NewEngineV1 returns a V1 engine persisting signer snapshots to db.
func NewEngineV1(config *params.XDPoSConfig, db Database) *EngineV1 {
	return &EngineV1{
		config:     config,
		db:         db,
		period:     config.Period,
		signatures: newLRU(256),
	}
}

// Authorize sets the local signing identity used by Prepare/Seal.
func (e *EngineV1) Authorize(signer common.Address, signFn SignerFn) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.signer = signer
	e.signFn = signFn
}

// Author recovers the address that sealed header.
func (e *EngineV1) Author(header *types.Header) (common.Address, error) {
	return ecrecover(header, e.signatures)
}

// snapshot loads or reconstructs the signer snapshot as of (number,
// hash): the snapshot stored under hash if there is one, otherwise one
// rebuilt from the header at (number, hash) when that header is a
// checkpoint (vanity + sorted signer list + seal signature). It does
// not walk back through parents: a non-checkpoint block with no stored
// snapshot yields an error.
func (e *EngineV1) snapshot(chain ChainHeaderReader, number uint64, hash common.Hash) (*Snapshot, error) {
	if snap, err := loadSnapshot(e.db, hash); err == nil && snap != nil {
		return snap, nil
	}

	header := chain.GetHeader(hash, number)
	if header == nil {
		return nil, errors.New("engines: unknown header")
	}

	if e.config.Epoch == 0 || number%e.config.Epoch != 0 {
		return nil, errors.New("engines: not a checkpoint, no reconstructable snapshot")
	}

	signers, err := checkpointSigners(header)
	if err != nil {
		return nil, err
	}
	snap := newSnapshot(number, hash, signers)
	_ = storeSnapshot(snap, e.db)
	return snap, nil
}

// checkpointSigners extracts the sorted signer list a checkpoint
// header's Extra field carries between the vanity prefix and the
// trailing seal signature.
func checkpointSigners(header *types.Header) ([]common.Address, error) {
	if len(header.Extra) < ExtraVanity+crypto.SignatureLength {
		return nil, utils.ErrExtraDataTooShortErr
	}
	body := header.Extra[ExtraVanity : len(header.Extra)-crypto.SignatureLength]
	if len(body)%common.AddressLength != 0 {
		return nil, utils.ErrInvalidCheckpointSignersErr
	}
	n := len(body) / common.AddressLength
	out := make([]common.Address, n)
	for i := 0; i < n; i++ {
		out[i] = common.BytesToAddress(body[i*common.AddressLength : (i+1)*common.AddressLength])
	}
	return out, nil
}

// CalcDifficulty returns the difficulty the local signer would earn by
// extending parent: in-turn signers get diffInTurn, everyone else (and
// any signer this engine cannot place in a snapshot) gets diffNoTurn.
func (e *EngineV1) CalcDifficulty(chain ChainHeaderReader, time uint64, parent *types.Header) *big.Int {
	e.lock.RLock()
	signer := e.signer
	e.lock.RUnlock()

	snap, err := e.snapshot(chain, parent.NumberU64(), parent.Hash())
	if err != nil {
		return new(big.Int).Set(diffNoTurn)
	}
	if snap.inturn(parent.NumberU64()+1, signer) {
		return new(big.Int).Set(diffInTurn)
	}
	return new(big.Int).Set(diffNoTurn)
}

// Prepare fills header.Coinbase and reserves Extra's seal-signature
// space ahead of sealing.
func (e *EngineV1) Prepare(chain ChainHeaderReader, header *types.Header) error {
	e.lock.RLock()
	signer := e.signer
	e.lock.RUnlock()

	header.Coinbase = signer
	if len(header.Extra) < ExtraVanity {
		header.Extra = append(header.Extra, make([]byte, ExtraVanity-len(header.Extra))...)
	}
	header.Extra = header.Extra[:ExtraVanity]
	header.Extra = append(header.Extra, make([]byte, crypto.SignatureLength)...)
	return nil
}

// Seal signs header with the authorized signer's key.
func (e *EngineV1) Seal(header *types.Header) (*types.Header, error) {
	e.lock.RLock()
	signer, signFn := e.signer, e.signFn
	e.lock.RUnlock()

	if signFn == nil {
		return nil, errors.New("engines: sealing requested before Authorize")
	}
	sig, err := signFn(signer, sigHash(header).Bytes())
	if err != nil {
		return nil, err
	}
	cpy := header.Copy()
	copy(cpy.Extra[len(cpy.Extra)-crypto.SignatureLength:], sig)
	return cpy, nil
}

// VerifyUncles rejects any block carrying uncles: V1 (like V2) has no
// concept of uncle blocks.
func (e *EngineV1) VerifyUncles(chain ChainHeaderReader, block *types.Block) error {
	if len(block.Uncles()) > 0 {
		return errors.New("engines: uncles not allowed")
	}
	return nil
}

// SealHash returns the hash header's seal signature is computed over.
func (e *EngineV1) SealHash(header *types.Header) common.Hash {
	return sigHash(header)
}

// VerifyHeader checks header against the V1 rules (§4.5): extra-data
// length and checkpoint shape, zero mix-digest, the period-spaced
// timestamp, and — when snap is non-nil — that the recovered signer is
// authorized, not within the recently-signed window, and that
// difficulty matches in-turn/out-of-turn. Returns the recovered signer
// on success so the caller can advance its snapshot.
func (e *EngineV1) VerifyHeader(header, parent *types.Header, snap *Snapshot) (common.Address, error) {
	if len(header.Extra) < ExtraVanity+crypto.SignatureLength {
		return common.Address{}, utils.ErrExtraDataTooShortErr
	}
	isCheckpoint := e.config.Epoch != 0 && header.NumberU64()%e.config.Epoch == 0
	if isCheckpoint {
		if _, err := checkpointSigners(header); err != nil {
			return common.Address{}, err
		}
		if header.Coinbase != (common.Address{}) {
			return common.Address{}, utils.ErrInvalidCheckpointBeneficiaryErr
		}
	} else if len(header.Extra) != ExtraVanity+crypto.SignatureLength {
		return common.Address{}, utils.ErrInvalidExtraDataErr
	}
	if header.MixDigest != (common.Hash{}) {
		return common.Address{}, utils.ErrInvalidMixDigestErr
	}
	if parent != nil && header.Time < parent.Time+e.period {
		return common.Address{}, utils.ErrInvalidTimestampErr
	}

	signer, err := ecrecover(header, e.signatures)
	if err != nil {
		return common.Address{}, err
	}
	if snap == nil {
		return signer, nil
	}
	if !snap.isSigner(signer) {
		return common.Address{}, utils.ErrUnauthorizedErr
	}
	if snap.recentlySigned(header.NumberU64(), signer) {
		return common.Address{}, utils.ErrUnauthorizedErr
	}
	wantDiff := diffNoTurn
	if snap.inturn(header.NumberU64(), signer) {
		wantDiff = diffInTurn
	}
	if header.Difficulty == nil || header.Difficulty.Cmp(wantDiff) != 0 {
		return common.Address{}, utils.ErrInvalidDifficultyErr
	}
	return signer, nil
}

// Snapshot exposes the engine's reconstructed signer snapshot at
// (number, hash) so the facade can serve snapshot_at without
// duplicating V1's reconstruction logic.
func (e *EngineV1) Snapshot(chain ChainHeaderReader, number uint64, hash common.Hash) (*Snapshot, error) {
	return e.snapshot(chain, number, hash)
}

// Advance derives the snapshot for (header.number, header.hash) from
// parent, applying any vote header carries and, on checkpoint, the
// fresh signer set.
func (e *EngineV1) Advance(header *types.Header, parent *Snapshot, signer common.Address) (*Snapshot, error) {
	snap := parent.copy()
	snap.Number = header.NumberU64()
	snap.Hash = header.Hash()
	snap.addRecent(header.NumberU64(), signer)

	if e.config.Epoch != 0 && header.NumberU64()%e.config.Epoch == 0 {
		signers, err := checkpointSigners(header)
		if err != nil {
			return nil, err
		}
		snap.applyCheckpoint(header.NumberU64(), header.Hash(), signers)
		return snap, nil
	}

	if header.Coinbase != (common.Address{}) {
		snap.castVote(signer, header.Coinbase, header.Nonce == nonceAuthVote)
		snap.applyVotes()
	}
	return snap, nil
}
