// Package reward implements the checkpoint reward engine (C3): at each
// reward checkpoint it scans the prior epoch's blocks for signing
// transactions, attributes them to masternodes, and splits the fixed
// block reward proportionally to signing participation.
package reward

import (
	"bytes"

	"github.com/holiman/uint256"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/log"
	"github.com/xdc-network/xdpos-core/params"
)

// ChainReader is the storage handle the reward engine reads blocks
// through. Whether it blocks is the caller's concern (§5): the engine
// itself performs no I/O beyond these calls.
type ChainReader interface {
	BlockByNumber(number uint64) (*types.Block, error)
}

// Log is the per-signer attribution record: how many blocks in the
// window they signed, and the reward that earns them. Sum of Reward
// across a checkpoint's Log set equals the checkpoint's total reward
// less any division truncation.
type Log struct {
	SignCount uint64
	Reward    *uint256.Int
}

// IsSigningTx reports whether tx is a checkpoint-signing call: it
// targets the block-signers contract with the sign-method selector and
// carries at least a 32-byte block hash argument.
func IsSigningTx(tx *types.Transaction) bool {
	to := tx.To()
	if to == nil || *to != params.BlockSignersContract {
		return false
	}
	data := tx.Data()
	if len(data) < 36 {
		return false
	}
	return bytes.Equal(data[:4], params.SignMethodSelector[:])
}

// SignedBlockHash extracts the block hash a signing transaction
// attests to: the trailing 32 bytes of its input.
func SignedBlockHash(tx *types.Transaction) common.Hash {
	data := tx.Data()
	return common.BytesToHash(data[len(data)-32:])
}

// Window returns the inclusive [start, end] block range attributed at
// reward checkpoint n, per §4.3: the epoch two reward-checkpoints back.
// ok is false when n is too early to have a prior epoch to attribute
// (n < 2*rewardCheckpoint).
func Window(n, rewardCheckpoint uint64) (start, end uint64, ok bool) {
	if n < 2*rewardCheckpoint {
		return 0, 0, false
	}
	prevCheckpoint := n - 2*rewardCheckpoint
	start = prevCheckpoint + 1
	end = start + rewardCheckpoint - 1
	return start, end, true
}

// shouldCountBlock reports whether block b's signing transactions are
// attributed under the sampling rule: every block before TIP2019Block,
// then only MergeSignRange-aligned blocks.
func shouldCountBlock(b uint64) bool {
	if b < params.TIP2019Block {
		return true
	}
	return b%params.MergeSignRange == 0
}

// Attribute scans the window Window assigns to checkpoint n, counting one sign
// per masternode per attributed block (duplicates within a block
// coalesce), and returns the per-signer logs plus the total sign count
// used as the proportional-split denominator. masternodes is the
// validator set taken from the previous checkpoint header.
func Attribute(chain ChainReader, n uint64, cfg *params.XDPoSConfig, masternodes []common.Address) (map[common.Address]*Log, uint64) {
	logs := make(map[common.Address]*Log)
	var total uint64

	start, end, ok := Window(n, cfg.RewardCheckpoint)
	if !ok {
		return logs, 0
	}

	allowed := make(map[common.Address]struct{}, len(masternodes))
	for _, a := range masternodes {
		allowed[a] = struct{}{}
	}

	for b := start; b <= end; b++ {
		if !shouldCountBlock(b) {
			continue
		}
		block, err := chain.BlockByNumber(b)
		if err != nil || block == nil {
			log.Warn("reward scan: block not found", "number", b, "err", err)
			continue
		}

		signers := make(map[common.Address]struct{})
		for _, tx := range block.Transactions() {
			if !IsSigningTx(tx) {
				continue
			}
			signer, err := types.Sender(tx)
			if err != nil {
				log.Warn("reward scan: recover signer failed", "number", b, "err", err)
				continue
			}
			if _, ok := allowed[signer]; !ok {
				continue
			}
			signers[signer] = struct{}{}
		}

		for signer := range signers {
			entry, ok := logs[signer]
			if !ok {
				entry = &Log{Reward: new(uint256.Int)}
				logs[signer] = entry
			}
			entry.SignCount++
			total++
		}
	}
	return logs, total
}

// Compute fills in Reward on each entry of logs from total's share of
// reward, using saturating 256-bit division: per_sig = reward/total,
// signer_reward = per_sig * sign_count. Truncation loss is bounded by
// total (at most 1 base unit lost per signature).
func Compute(logs map[common.Address]*Log, total uint64, reward *uint256.Int) {
	if total == 0 {
		return
	}
	perSig := new(uint256.Int).Div(reward, uint256.NewInt(total))
	for _, entry := range logs {
		entry.Reward = new(uint256.Int).Mul(perSig, uint256.NewInt(entry.SignCount))
	}
}

// Split divides a signer's reward into the owner/voter/foundation
// shares per the configured percentages (summing to 100). Voter's
// share is computed but has no recipient under the current 90/0/10
// split; it is returned for callers that want to assert the invariant.
func Split(signerReward *uint256.Int, split params.RewardSplit) (owner, voter, foundation *uint256.Int) {
	hundred := uint256.NewInt(100)
	owner = new(uint256.Int).Div(new(uint256.Int).Mul(signerReward, uint256.NewInt(split.Owner)), hundred)
	voter = new(uint256.Int).Div(new(uint256.Int).Mul(signerReward, uint256.NewInt(split.Voter)), hundred)
	foundation = new(uint256.Int).Div(new(uint256.Int).Mul(signerReward, uint256.NewInt(split.Foundation)), hundred)
	return owner, voter, foundation
}

// Payouts is the full result of a checkpoint reward run: the raw
// per-signer logs plus the owner/foundation balances each signer's
// owner and the chain's foundation wallet receive.
type Payouts struct {
	Logs     map[common.Address]*Log
	Balances map[common.Address]*uint256.Int
}

// ApplyCheckpoint runs the full C3 pipeline for checkpoint n: attribute
// signatures, compute per-signer rewards, then split each into
// owner/foundation balances. owners maps a masternode signer address to
// the wallet that should receive its owner share; a signer missing
// from owners has its owner share credited to the signer's own
// address. The balances are returned, not applied: the exact mutation
// mechanism is an execution-outcome concern this engine does not own.
func ApplyCheckpoint(chain ChainReader, n uint64, cfg *params.XDPoSConfig, masternodes []common.Address, owners map[common.Address]common.Address) *Payouts {
	logs, total := Attribute(chain, n, cfg, masternodes)
	Compute(logs, total, cfg.Reward)

	balances := make(map[common.Address]*uint256.Int)
	for signer, entry := range logs {
		owner, _, foundation := Split(entry.Reward, params.DefaultRewardSplit)

		ownerWallet, ok := owners[signer]
		if !ok {
			ownerWallet = signer
		}
		addBalance(balances, ownerWallet, owner)
		if cfg.FoudationWalletAddr != (common.Address{}) {
			addBalance(balances, cfg.FoudationWalletAddr, foundation)
		}
	}
	return &Payouts{Logs: logs, Balances: balances}
}

func addBalance(balances map[common.Address]*uint256.Int, addr common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	cur, ok := balances[addr]
	if !ok {
		cur = new(uint256.Int)
		balances[addr] = cur
	}
	cur.Add(cur, amount)
}
