// Package params holds the per-chain constants the consensus core is
// configured with: epoch length, reward schedule, the V2 BFT switch
// block, and the two XDC chains this core recognizes.
package params

import (
	"github.com/holiman/uint256"

	"github.com/xdc-network/xdpos-core/common"
)

// Well-known chain ids.
const (
	MainnetChainID = 50
	ApothemChainID = 51
)

// System contract addresses and the signing-transaction selector, used
// by the reward engine to attribute checkpoint signatures.
var (
	ValidatorContract    = common.HexToAddress("0x88")
	BlockSignersContract = common.HexToAddress("0x89")
	RandomizeContract    = common.HexToAddress("0x90")
)

// SignMethodSelector is the 4-byte selector of the "sign(bytes32)"
// checkpoint-signing transaction the reward engine scans for.
var SignMethodSelector = [4]byte{0xe3, 0x41, 0xea, 0xa4}

const (
	// TIP2019Block is the block after which the "every block" signing
	// attribution rule gives way to the MergeSignRange sampling rule.
	TIP2019Block = 1

	// MergeSignRange: once past TIP2019Block, only blocks that are a
	// multiple of this constant are scanned for signing transactions.
	MergeSignRange = 15

	// TIPSigningBlock is the block after which transactions to the
	// block-signers or randomize contracts carry zero effective gas
	// price.
	TIPSigningBlock = 3_000_000
)

// RewardSplit is the fixed owner/voter/foundation percentage split of
// each checkpoint's per-signer reward share. The three must sum to 100.
type RewardSplit struct {
	Owner      uint64
	Voter      uint64
	Foundation uint64
}

// DefaultRewardSplit is the 90/0/10 split named in the spec.
var DefaultRewardSplit = RewardSplit{Owner: 90, Voter: 0, Foundation: 10}

// V2Config holds the round-based BFT parameters active from SwitchBlock
// onward.
type V2Config struct {
	SwitchBlock          uint64
	MinePeriod           uint64
	TimeoutPeriod        uint64
	CertThresholdPercent uint64
}

// XDPoSConfig is the full per-chain consensus configuration.
type XDPoSConfig struct {
	Epoch                uint64
	Period               uint64
	Gap                  uint64
	Reward               *uint256.Int
	RewardCheckpoint     uint64
	FoudationWalletAddr  common.Address // spelling matches the teacher's historical field name
	V2                   *V2Config
}

// DefaultReward is 250 XDC expressed in base units (250 * 10^18).
func DefaultReward() *uint256.Int {
	r, _ := uint256.FromDecimal("250000000000000000000")
	return r
}

// IsV2 reports whether blockNumber is governed by the V2 BFT protocol.
func (c *XDPoSConfig) IsV2(blockNumber uint64) bool {
	return c.V2 != nil && blockNumber >= c.V2.SwitchBlock
}

// ChainConfig pairs a chain id with its XDPoS parameters, mirroring the
// role params.ChainConfig plays in the teacher repo.
type ChainConfig struct {
	ChainID uint64
	XDPoS   *XDPoSConfig
}

// MainnetFoundationWallet and ApothemFoundationWallet are configuration
// values, not protocol constants; the apothem genesis hash itself is
// left to deployment configuration per spec.md's open questions.
var (
	MainnetFoundationWallet = common.HexToAddress("0x746249C61F5832c5eed53172776b460491bdcd5C")
	ApothemFoundationWallet = common.HexToAddress("0x746249C61F5832c5eed53172776b460491bdcd5C")
)

// MainnetChainConfig is XDC mainnet (chain id 50).
var MainnetChainConfig = &ChainConfig{
	ChainID: MainnetChainID,
	XDPoS: &XDPoSConfig{
		Epoch:                900,
		Period:               2,
		Gap:                  450,
		Reward:               DefaultReward(),
		RewardCheckpoint:     900,
		FoudationWalletAddr:  MainnetFoundationWallet,
		V2: &V2Config{
			SwitchBlock:          56_857_600,
			MinePeriod:           2,
			TimeoutPeriod:        10,
			CertThresholdPercent: 67,
		},
	},
}

// ApothemChainConfig is the XDC Apothem testnet (chain id 51).
var ApothemChainConfig = &ChainConfig{
	ChainID: ApothemChainID,
	XDPoS: &XDPoSConfig{
		Epoch:                900,
		Period:               2,
		Gap:                  450,
		Reward:               DefaultReward(),
		RewardCheckpoint:     900,
		FoudationWalletAddr:  ApothemFoundationWallet,
		V2: &V2Config{
			SwitchBlock:          23_556_600,
			MinePeriod:           2,
			TimeoutPeriod:        10,
			CertThresholdPercent: 67,
		},
	},
}

// ChainConfigByID looks up the well-known chain config for id, returning
// nil for anything else -- per spec.md's Non-goal of supporting only
// the two designated XDPoS chains.
func ChainConfigByID(id uint64) *ChainConfig {
	switch id {
	case MainnetChainID:
		return MainnetChainConfig
	case ApothemChainID:
		return ApothemChainConfig
	default:
		return nil
	}
}
