// Package utils holds the wire types shared by the V2 round-based BFT
// engine: block identifiers, votes, timeouts, and the quorum/timeout
// certificates built from them, plus the extra-data codec that embeds
// them in a header.
package utils

import (
	"math/big"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/crypto"
	"github.com/xdc-network/xdpos-core/rlp"
)

func keccak256(b []byte) []byte { return crypto.Keccak256(b) }

// Round is a V2 consensus round number.
type Round uint64

// Signature is a 65-byte ECDSA signature, kept as a plain byte slice so
// it marshals through RLP like any other byte string.
type Signature = []byte

// BlockInfo identifies a block by hash, number and round, the unit that
// votes and certificates are built around.
type BlockInfo struct {
	Hash   common.Hash
	Round  Round
	Number *big.Int
}

// VoteForSign is the payload a validator signs to cast a vote. It
// carries GapNumber alongside the proposed block so votes can't be
// replayed against a different epoch's masternode set.
type VoteForSign struct {
	ProposedBlockInfo *BlockInfo
	GapNumber         uint64
}

// TimeoutForSign is the payload a validator signs to cast a timeout.
type TimeoutForSign struct {
	Round     Round
	GapNumber uint64
}

// VoteSigHash returns the hash a vote signature is computed over.
func VoteSigHash(v *VoteForSign) common.Hash {
	b, err := rlp.EncodeToBytes(v)
	if err != nil {
		panic(err)
	}
	return common.BytesToHash(keccak256(b))
}

// TimeoutSigHash returns the hash a timeout signature is computed over.
func TimeoutSigHash(t *TimeoutForSign) common.Hash {
	b, err := rlp.EncodeToBytes(t)
	if err != nil {
		panic(err)
	}
	return common.BytesToHash(keccak256(b))
}

// Vote is one validator's signature over a proposed block.
type Vote struct {
	ProposedBlockInfo BlockInfo
	Signature         Signature
	GapNumber         uint64
}

// Hash identifies this vote for pool deduplication purposes.
func (v *Vote) Hash() common.Hash {
	b, _ := rlp.EncodeToBytes(v)
	return common.BytesToHash(keccak256(b))
}

// PoolKey groups votes by the block they're voting for.
func (v *Vote) PoolKey() string {
	return v.ProposedBlockInfo.Hash.Hex()
}

// Timeout is one validator's signature over a round that failed to
// produce a quorum certificate in time.
type Timeout struct {
	Round     Round
	Signature Signature
	GapNumber uint64
}

// Hash identifies this timeout for pool deduplication purposes.
func (t *Timeout) Hash() common.Hash {
	b, _ := rlp.EncodeToBytes(t)
	return common.BytesToHash(keccak256(b))
}

// PoolKey groups timeouts by round.
func (t *Timeout) PoolKey() string {
	return big.NewInt(int64(t.Round)).String()
}

// QuorumCert certifies that a supermajority of masternodes voted for
// ProposedBlockInfo in the epoch identified by GapNumber.
type QuorumCert struct {
	ProposedBlockInfo *BlockInfo
	Signatures        []Signature
	GapNumber         uint64
}

// TimeoutCert certifies that a supermajority of masternodes timed out
// on Round.
type TimeoutCert struct {
	Round      Round
	Signatures []Signature
	GapNumber  uint64
}

// SyncInfo carries whichever certificate is newer, used to bring a
// lagging peer's round up to date.
type SyncInfo struct {
	HighestQuorumCert  *QuorumCert
	HighestTimeoutCert *TimeoutCert
}

// Hash identifies this SyncInfo for pool/gossip deduplication.
func (s *SyncInfo) Hash() common.Hash {
	b, _ := rlp.EncodeToBytes(s)
	return common.BytesToHash(keccak256(b))
}

// ExtraFields_v2 is the RLP-decoded form of a V2 header's Extra field
// (the portion between the version byte and the seal). QuorumCert is a
// pointer so a round that advanced via timeout, with no QC, encodes as
// an empty string.
type ExtraFields_v2 struct {
	Round      Round
	QuorumCert *QuorumCert
}

// EncodeToBytes returns the canonical RLP encoding of e alone, with no
// vanity, version or seal. Exposed for callers that already have the
// envelope framing in hand; most callers want EncodeExtraV2.
func (e *ExtraFields_v2) EncodeToBytes() ([]byte, error) {
	return rlp.EncodeToBytes(e)
}

// DecodeBytesExtraFields parses the bare RLP payload of a V2 extra-data
// field, with no vanity, version or seal framing. Most callers want
// DecodeExtraV2, which strips that framing from a real header's Extra.
func DecodeBytesExtraFields(b []byte) (*ExtraFields_v2, error) {
	var e ExtraFields_v2
	if err := rlp.DecodeBytes(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// extraVanityLen mirrors engines.ExtraVanity; kept as a local constant
// since utils must not import engines (engines already imports utils).
const extraVanityLen = 32

// extraV2VersionMin is the lowest version byte a V2 extra-data envelope
// may carry, per spec: version bytes below 2 are reserved for V1.
const extraV2VersionMin = 2

// EncodeExtraV2 builds the full V2 extra-data envelope:
// vanity(32) ‖ version(1) ‖ rlp(e) ‖ seal(65). vanity and seal are
// passed through verbatim; the caller signs hash_without_seal (the
// envelope up to but excluding seal) before calling this with the
// resulting signature.
func EncodeExtraV2(vanity []byte, version uint8, e *ExtraFields_v2, seal []byte) ([]byte, error) {
	if len(vanity) != extraVanityLen {
		return nil, ErrMissingVanityErr
	}
	if len(seal) != 0 && len(seal) != crypto.SignatureLength {
		return nil, ErrMissingSignatureErr
	}
	payload, err := e.EncodeToBytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(vanity)+1+len(payload)+len(seal))
	out = append(out, vanity...)
	out = append(out, version)
	out = append(out, payload...)
	out = append(out, seal...)
	return out, nil
}

// DecodeExtraV2 parses a V2 header's full Extra field, splitting it into
// vanity, the decoded round/QC payload, and the trailing seal. Fails
// with ErrExtraDataTooShortErr if there isn't room for vanity, a version
// byte and a seal, and with ErrInvalidExtraDataErr if the version byte
// is below extraV2VersionMin.
func DecodeExtraV2(data []byte) (vanity []byte, fields *ExtraFields_v2, seal []byte, err error) {
	if len(data) < extraVanityLen+1+crypto.SignatureLength {
		return nil, nil, nil, ErrExtraDataTooShortErr
	}
	vanity = data[:extraVanityLen]
	version := data[extraVanityLen]
	if version < extraV2VersionMin {
		return nil, nil, nil, ErrInvalidExtraDataErr
	}
	sealStart := len(data) - crypto.SignatureLength
	payload := data[extraVanityLen+1 : sealStart]
	fields, err = DecodeBytesExtraFields(payload)
	if err != nil {
		return nil, nil, nil, Wrap(ErrInvalidExtraData, "decode v2 extra payload", err)
	}
	seal = data[sealStart:]
	return vanity, fields, seal, nil
}
