package wire

import (
	"fmt"
	"math/big"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/rlp"
)

// SupportedProtocols are the protocol ids this adapter advertises and
// accepts in a peer's handshake, per spec §6.
var SupportedProtocols = map[string]bool{
	"xdpos/100": true,
	"eth/68":    true,
	"eth/66":    true,
	"eth/63":    true,
}

// LegacyStatus is the five-field status frame chains 50 and 51 speak:
// no fork-id, unlike post-merge mainnet Ethereum's eth/66+ handshake.
type LegacyStatus struct {
	ProtocolVersion uint32
	ChainID         uint64
	TotalDifficulty *big.Int
	HeadHash        common.Hash
	GenesisHash     common.Hash
}

type legacyStatusRLP struct {
	ProtocolVersion uint32
	ChainID         uint64
	TotalDifficulty *big.Int
	HeadHash        common.Hash
	GenesisHash     common.Hash
}

// EncodeLegacyStatus returns the RLP encoding of s's five fields.
func EncodeLegacyStatus(s *LegacyStatus) ([]byte, error) {
	return rlp.EncodeToBytes(legacyStatusRLP(*s))
}

// DecodeLegacyStatus parses a peer's status frame.
func DecodeLegacyStatus(data []byte) (*LegacyStatus, error) {
	var enc legacyStatusRLP
	if err := rlp.DecodeBytes(data, &enc); err != nil {
		return nil, fmt.Errorf("wire: decode status: %w", err)
	}
	s := LegacyStatus(enc)
	return &s, nil
}

// protocolName is the advertised string a numeric protocol id maps to,
// used only to validate against SupportedProtocols; the wire format
// itself carries just the version number (§6).
func protocolName(version uint32, chainID uint64) string {
	if chainID == 50 || chainID == 51 {
		if version == 100 {
			return "xdpos/100"
		}
	}
	switch version {
	case 68:
		return "eth/68"
	case 66:
		return "eth/66"
	case 63:
		return "eth/63"
	default:
		return fmt.Sprintf("eth/%d", version)
	}
}

// ValidateHandshake checks a peer's status against the locally expected
// chain id and genesis hash, and confirms the peer's protocol version is
// one this adapter advertises. A non-nil error means the handshake
// fails and the peer should be disconnected for a protocol breach.
func ValidateHandshake(local, remote *LegacyStatus) error {
	if remote.ChainID != local.ChainID {
		return fmt.Errorf("wire: chain id mismatch: local %d, remote %d", local.ChainID, remote.ChainID)
	}
	if remote.GenesisHash != local.GenesisHash {
		return fmt.Errorf("wire: genesis hash mismatch: local %s, remote %s", local.GenesisHash.Hex(), remote.GenesisHash.Hex())
	}
	name := protocolName(remote.ProtocolVersion, remote.ChainID)
	if !SupportedProtocols[name] {
		return fmt.Errorf("wire: unsupported protocol %s", name)
	}
	return nil
}
