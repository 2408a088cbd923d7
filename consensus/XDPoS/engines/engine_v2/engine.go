package engine_v2

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/utils"
	"github.com/xdc-network/xdpos-core/crypto"
)

// Engine holds the round-based BFT state machine: the current round,
// the highest certificates seen, and the lock (in the BFT sense: the
// block this validator has committed to and won't vote against) that
// together decide what this validator proposes or votes for next.
type Engine struct {
	lock sync.RWMutex

	currentRound       utils.Round
	highestQC          *utils.QuorumCert
	highestTC          *utils.TimeoutCert
	highestCommitBlock *utils.BlockInfo
	lockQC             *utils.QuorumCert

	epochSwitches *epochSwitchCache
}

// NewEngine returns an Engine starting at round 0 with an epoch-switch
// cache of the given capacity.
func NewEngine(epochCacheSize int) *Engine {
	return &Engine{epochSwitches: newEpochSwitchCache(epochCacheSize)}
}

// CurrentRound returns the round the engine is currently in.
func (e *Engine) CurrentRound() utils.Round {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.currentRound
}

// SetCurrentRound advances the local round counter.
func (e *Engine) SetCurrentRound(r utils.Round) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.currentRound = r
}

// SetHighestQC adopts qc as the highest known quorum certificate,
// provided its round is strictly newer than any QC already held — an
// older-round QC never displaces a newer one.
func (e *Engine) SetHighestQC(qc *utils.QuorumCert) bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.highestQC != nil && qc.ProposedBlockInfo.Round <= e.highestQC.ProposedBlockInfo.Round {
		return false
	}
	e.highestQC = qc
	return true
}

// HighestQC returns the highest quorum certificate seen so far, or nil.
func (e *Engine) HighestQC() *utils.QuorumCert {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.highestQC
}

// SetHighestTC adopts tc as the highest known timeout certificate under
// the same monotonicity rule as SetHighestQC.
func (e *Engine) SetHighestTC(tc *utils.TimeoutCert) bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.highestTC != nil && tc.Round <= e.highestTC.Round {
		return false
	}
	e.highestTC = tc
	return true
}

// HighestTC returns the highest timeout certificate seen so far, or nil.
func (e *Engine) HighestTC() *utils.TimeoutCert {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.highestTC
}

// SetLockQC records the certificate this validator has committed to
// and will not vote against.
func (e *Engine) SetLockQC(qc *utils.QuorumCert) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.lockQC = qc
}

// LockQC returns the currently locked certificate, or nil.
func (e *Engine) LockQC() *utils.QuorumCert {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.lockQC
}

// SetHighestCommitBlock records the highest block this validator has
// finalized.
func (e *Engine) SetHighestCommitBlock(bi *utils.BlockInfo) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.highestCommitBlock = bi
}

// HighestCommitBlock returns the highest finalized block, or nil.
func (e *Engine) HighestCommitBlock() *utils.BlockInfo {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.highestCommitBlock
}

// EpochSwitchInfo returns the cached validator-set snapshot for the
// epoch switch block identified by hash, if known.
func (e *Engine) EpochSwitchInfo(hash common.Hash) (*EpochSwitchInfo, bool) {
	return e.epochSwitches.Get(hash)
}

// CacheEpochSwitchInfo stores info under the epoch switch block's hash.
func (e *Engine) CacheEpochSwitchInfo(hash common.Hash, info *EpochSwitchInfo) {
	e.epochSwitches.Add(hash, info)
}

// VerifyRoundMonotonicity requires current to strictly exceed parent.
func VerifyRoundMonotonicity(current, parent utils.Round) error {
	if current <= parent {
		return utils.Wrap(utils.ErrInvalidQC, "round must advance", nil)
	}
	return nil
}

// VerifyQCParent requires qc's proposed block to match the given
// parent identity exactly.
func VerifyQCParent(qc *utils.QuorumCert, parentHash common.Hash, parentNumber uint64, parentRound utils.Round) error {
	bi := qc.ProposedBlockInfo
	if bi.Hash != parentHash || bi.Number == nil || bi.Number.Uint64() != parentNumber || bi.Round != parentRound {
		return utils.ErrBlockInfoMismatchErr
	}
	return nil
}

// Proposer selects the round-robin proposer for round among validators,
// the sorted masternode set active for the round's epoch.
func Proposer(validators []common.Address, round utils.Round) (common.Address, error) {
	if len(validators) == 0 {
		return common.Address{}, utils.Custom("empty validator set")
	}
	sorted := append([]common.Address(nil), validators...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })
	return sorted[uint64(round)%uint64(len(sorted))], nil
}

// certThreshold is the minimum number of distinct signatures a
// quorum/timeout certificate needs over n masternodes: an exact-thirds
// ceiling, equivalent to ceil(2n/3).
func certThreshold(n int) int {
	return (n*2 + 2) / 3
}

// VerifyQC checks a quorum certificate against the masternode set
// active for its round. Round 0 (the switch block) is vacuously valid,
// since no prior round could have produced a QC for it.
func VerifyQC(qc *utils.QuorumCert, masternodes []common.Address) error {
	if qc.ProposedBlockInfo.Round == 0 {
		return nil
	}
	digest := utils.VoteSigHash(&utils.VoteForSign{
		ProposedBlockInfo: qc.ProposedBlockInfo,
		GapNumber:         qc.GapNumber,
	}).Bytes()
	return verifyCertSignatures(digest, qc.Signatures, masternodes)
}

// VerifyTC checks a timeout certificate against the masternode set
// active for its round.
func VerifyTC(tc *utils.TimeoutCert, masternodes []common.Address) error {
	if tc.Round == 0 {
		return nil
	}
	digest := utils.TimeoutSigHash(&utils.TimeoutForSign{
		Round:     tc.Round,
		GapNumber: tc.GapNumber,
	}).Bytes()
	return verifyCertSignatures(digest, tc.Signatures, masternodes)
}

func verifyCertSignatures(digest []byte, sigs []utils.Signature, masternodes []common.Address) error {
	allowed := mapset.NewThreadUnsafeSet(masternodes...)

	seen := mapset.NewThreadUnsafeSet[common.Hash]()
	unique := 0
	for _, sig := range sigs {
		h := common.BytesToHash(crypto.Keccak256(sig))
		if !seen.Add(h) {
			continue
		}

		addr, err := crypto.EcrecoverAddress(digest, sig)
		if err != nil {
			return utils.Wrap(utils.ErrSignatureVerificationFailed, "recover certificate signer", err)
		}
		if !allowed.Contains(addr) {
			return utils.ErrUnauthorizedErr
		}
		unique++
	}

	need := certThreshold(len(masternodes))
	if unique < need {
		return utils.InsufficientSignatures(unique, need)
	}
	return nil
}
