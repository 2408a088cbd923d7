package engines

import (
	"sort"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/rlp"
)

// Vote records one signer's cast ballot to authorize or deauthorize a
// candidate signer.
type Vote struct {
	Signer    common.Address
	Block     uint64
	Address   common.Address
	Authorize bool
}

// Tally is the running vote count for one candidate.
type Tally struct {
	Authorize bool
	Votes     int
}

// Snapshot is the authorized signer set at a given block, plus the
// anti-spam recently-signed window and any in-flight signer votes.
type Snapshot struct {
	Number  uint64
	Hash    common.Hash
	Signers map[common.Address]struct{}
	Recents map[uint64]common.Address
	Votes   []*Vote
	Tally   map[common.Address]Tally
}

// newSnapshot builds the genesis/checkpoint snapshot for number/hash
// with the given initial signer set.
func newSnapshot(number uint64, hash common.Hash, signers []common.Address) *Snapshot {
	snap := &Snapshot{
		Number:  number,
		Hash:    hash,
		Signers: make(map[common.Address]struct{}, len(signers)),
		Recents: make(map[uint64]common.Address),
		Tally:   make(map[common.Address]Tally),
	}
	for _, s := range signers {
		snap.Signers[s] = struct{}{}
	}
	return snap
}

// copy returns a deep copy of snap.
func (s *Snapshot) copy() *Snapshot {
	cpy := &Snapshot{
		Number:  s.Number,
		Hash:    s.Hash,
		Signers: make(map[common.Address]struct{}, len(s.Signers)),
		Recents: make(map[uint64]common.Address, len(s.Recents)),
		Tally:   make(map[common.Address]Tally, len(s.Tally)),
	}
	for k, v := range s.Signers {
		cpy.Signers[k] = v
	}
	for k, v := range s.Recents {
		cpy.Recents[k] = v
	}
	for k, v := range s.Tally {
		cpy.Tally[k] = v
	}
	cpy.Votes = append(cpy.Votes, s.Votes...)
	return cpy
}

// signersSorted returns the signer set in canonical ascending order.
func (s *Snapshot) signersSorted() []common.Address {
	out := make([]common.Address, 0, len(s.Signers))
	for a := range s.Signers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// isSigner reports whether addr is currently authorized.
func (s *Snapshot) isSigner(addr common.Address) bool {
	_, ok := s.Signers[addr]
	return ok
}

// inturn reports whether signer is the round-robin in-turn signer for
// blockNumber.
func (s *Snapshot) inturn(blockNumber uint64, signer common.Address) bool {
	signers := s.signersSorted()
	if len(signers) == 0 {
		return false
	}
	turn := int(blockNumber) % len(signers)
	for i, a := range signers {
		if a == signer {
			return i == turn
		}
	}
	return false
}

// recentlySigned reports whether signer produced one of the last
// len(Signers) blocks before blockNumber, the anti-spam rule that bars
// a signer from sealing twice within one rotation.
func (s *Snapshot) recentlySigned(blockNumber uint64, signer common.Address) bool {
	limit := uint64(len(s.Signers))
	var minBlock uint64
	if blockNumber >= limit {
		minBlock = blockNumber - limit
	}
	for bn, a := range s.Recents {
		if bn >= minBlock && bn < blockNumber && a == signer {
			return true
		}
	}
	return false
}

// addRecent records that signer sealed blockNumber, trimming entries
// older than one full rotation.
func (s *Snapshot) addRecent(blockNumber uint64, signer common.Address) {
	s.Recents[blockNumber] = signer
	limit := uint64(len(s.Signers))
	if blockNumber >= limit {
		for bn := range s.Recents {
			if bn <= blockNumber-limit {
				delete(s.Recents, bn)
			}
		}
	}
}

func (s *Snapshot) validVote(address common.Address, authorize bool) bool {
	_, isSigner := s.Signers[address]
	return (isSigner && !authorize) || (!isSigner && authorize)
}

// castVote records signer's ballot on address, returning false if the
// vote is a no-op (e.g. voting to authorize an already-authorized
// signer).
func (s *Snapshot) castVote(signer, address common.Address, authorize bool) bool {
	if !s.validVote(address, authorize) {
		return false
	}
	if t, ok := s.Tally[address]; ok {
		t.Votes++
		s.Tally[address] = t
	} else {
		s.Tally[address] = Tally{Authorize: authorize, Votes: 1}
	}
	s.Votes = append(s.Votes, &Vote{Signer: signer, Block: s.Number, Address: address, Authorize: authorize})
	return true
}

// applyVotes promotes or evicts any candidate that has reached the
// majority threshold, clearing its tally and any outstanding votes.
func (s *Snapshot) applyVotes() bool {
	threshold := len(s.Signers)/2 + 1
	var toAdd, toRemove []common.Address
	for addr, t := range s.Tally {
		if t.Votes >= threshold {
			if t.Authorize {
				toAdd = append(toAdd, addr)
			} else {
				toRemove = append(toRemove, addr)
			}
		}
	}
	modified := false
	for _, addr := range toAdd {
		if _, exists := s.Signers[addr]; !exists {
			s.Signers[addr] = struct{}{}
			modified = true
		}
		delete(s.Tally, addr)
		s.dropVotesFor(addr)
	}
	for _, addr := range toRemove {
		if _, exists := s.Signers[addr]; exists {
			delete(s.Signers, addr)
			modified = true
		}
		delete(s.Tally, addr)
		s.dropVotesFor(addr)
		s.dropVotesBy(addr)
	}
	return modified
}

func (s *Snapshot) dropVotesFor(address common.Address) {
	kept := s.Votes[:0]
	for _, v := range s.Votes {
		if v.Address != address {
			kept = append(kept, v)
		}
	}
	s.Votes = kept
}

func (s *Snapshot) dropVotesBy(signer common.Address) {
	kept := s.Votes[:0]
	for _, v := range s.Votes {
		if v.Signer != signer {
			kept = append(kept, v)
		}
	}
	s.Votes = kept
}

// applyCheckpoint resets votes/tally and installs a fresh signer set,
// the action a checkpoint header takes regardless of in-flight voting.
func (s *Snapshot) applyCheckpoint(number uint64, hash common.Hash, signers []common.Address) {
	s.Number = number
	s.Hash = hash
	s.Signers = make(map[common.Address]struct{}, len(signers))
	for _, a := range signers {
		s.Signers[a] = struct{}{}
	}
	s.Votes = nil
	s.Tally = make(map[common.Address]Tally)
}

func snapshotDBKey(hash common.Hash) []byte {
	return append([]byte("xdpos-v1-snapshot-"), hash.Bytes()...)
}

// storeSnapshot persists snap under its hash.
func storeSnapshot(snap *Snapshot, db Database) error {
	b, err := rlp.EncodeToBytes(snapshotEncoding(snap))
	if err != nil {
		return err
	}
	return db.Put(snapshotDBKey(snap.Hash), b)
}

// loadSnapshot restores the snapshot stored under hash.
func loadSnapshot(db Database, hash common.Hash) (*Snapshot, error) {
	b, err := db.Get(snapshotDBKey(hash))
	if err != nil {
		return nil, err
	}
	var enc snapshotRLP
	if err := rlp.DecodeBytes(b, &enc); err != nil {
		return nil, err
	}
	return enc.toSnapshot(), nil
}

// snapshotRLP is the RLP-friendly flattened form of Snapshot (maps
// aren't directly RLP-encodable).
type snapshotRLP struct {
	Number  uint64
	Hash    common.Hash
	Signers []common.Address
	RecentN []uint64
	RecentA []common.Address
}

func snapshotEncoding(s *Snapshot) snapshotRLP {
	enc := snapshotRLP{Number: s.Number, Hash: s.Hash, Signers: s.signersSorted()}
	for bn, a := range s.Recents {
		enc.RecentN = append(enc.RecentN, bn)
		enc.RecentA = append(enc.RecentA, a)
	}
	return enc
}

func (enc *snapshotRLP) toSnapshot() *Snapshot {
	s := newSnapshot(enc.Number, enc.Hash, enc.Signers)
	for i, bn := range enc.RecentN {
		s.Recents[bn] = enc.RecentA[i]
	}
	return s
}
