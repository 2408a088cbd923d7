package engine_v2

import (
	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/utils"
	"github.com/xdc-network/xdpos-core/crypto"
)

// Forensics detects and reports double-signing: two quorum certificates
// for the same round voting for different blocks, the one safety
// violation a BFT protocol cannot prevent outright and can only report
// after the fact.
type Forensics struct{}

// findCommonSigners returns the addresses that signed both qc1 and
// qc2, in qc1's signature order.
func (f *Forensics) findCommonSigners(qc1, qc2 utils.QuorumCert) []common.Address {
	signers1 := f.recoverSigners(qc1)
	signers2 := f.recoverSigners(qc2)

	set2 := make(map[common.Address]struct{}, len(signers2))
	for _, a := range signers2 {
		set2[a] = struct{}{}
	}

	var shared []common.Address
	for _, a := range signers1 {
		if _, ok := set2[a]; ok {
			shared = append(shared, a)
		}
	}
	return shared
}

// recoverSigners recovers the address behind each signature in qc.
func (f *Forensics) recoverSigners(qc utils.QuorumCert) []common.Address {
	voteForSign := &utils.VoteForSign{ProposedBlockInfo: qc.ProposedBlockInfo, GapNumber: qc.GapNumber}
	digest := utils.VoteSigHash(voteForSign).Bytes()

	out := make([]common.Address, 0, len(qc.Signatures))
	for _, sig := range qc.Signatures {
		addr, err := crypto.EcrecoverAddress(digest, sig)
		if err != nil {
			continue
		}
		out = append(out, addr)
	}
	return out
}

// findQCsInSameRound returns the first pair of certificates, one from
// each set, whose ProposedBlockInfo.Round coincide — the signature of a
// fork: two conflicting blocks both certified at the same round.
func (f *Forensics) findQCsInSameRound(qcSet1, qcSet2 []utils.QuorumCert) (found bool, first, second utils.QuorumCert) {
	for _, a := range qcSet1 {
		for _, b := range qcSet2 {
			if a.ProposedBlockInfo.Round == b.ProposedBlockInfo.Round {
				return true, a, b
			}
		}
	}
	return false, utils.QuorumCert{}, utils.QuorumCert{}
}
