// Package engine_v2 implements the round-based BFT protocol active from
// a chain's V2 switch block onward: proposer rotation, quorum/timeout
// certificate verification, and the forensics double-sign detector.
package engine_v2

import (
	"sort"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/utils"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/ethdb"
	"github.com/xdc-network/xdpos-core/params"
	"github.com/xdc-network/xdpos-core/rlp"
)

// Snapshot is the V2 masternode set active at (Number, Hash), the
// round it was assembled at, and the standing penalty list carried
// forward from the epoch switch that produced it.
type Snapshot struct {
	Number      uint64
	Hash        common.Hash
	Round       utils.Round
	Penalties   []common.Address
	MasterNodes map[common.Address]struct{}
}

// newSnapshot builds a Snapshot for (number, hash, round) with the
// given penalty list and masternode set. config is accepted for call-site
// symmetry with loadSnapshot (a future chain-config-dependent masternode
// derivation) and is not otherwise consulted.
func newSnapshot(config *params.XDPoSConfig, number uint64, hash common.Hash, round utils.Round, penalties, masterNodes []common.Address) *Snapshot {
	snap := &Snapshot{
		Number:      number,
		Hash:        hash,
		Round:       round,
		Penalties:   append([]common.Address(nil), penalties...),
		MasterNodes: make(map[common.Address]struct{}, len(masterNodes)),
	}
	for _, a := range masterNodes {
		snap.MasterNodes[a] = struct{}{}
	}
	return snap
}

// GetMasterNodes returns the masternode set in canonical ascending
// order.
func (s *Snapshot) GetMasterNodes() []common.Address {
	out := make([]common.Address, 0, len(s.MasterNodes))
	for a := range s.MasterNodes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// copy returns a deep copy of s.
func (s *Snapshot) copy() *Snapshot {
	cpy := &Snapshot{
		Number:      s.Number,
		Hash:        s.Hash,
		Round:       s.Round,
		Penalties:   append([]common.Address(nil), s.Penalties...),
		MasterNodes: make(map[common.Address]struct{}, len(s.MasterNodes)),
	}
	for a := range s.MasterNodes {
		cpy.MasterNodes[a] = struct{}{}
	}
	return cpy
}

// apply advances s by the given headers, which must be a contiguous
// run of children (headers[0].Number == s.Number+1 and strictly
// sequential thereafter). The masternode set and penalties carry
// forward unchanged; only Number, Hash and Round (read from the last
// header's V2 extra-data) advance.
func (s *Snapshot) apply(headers []*types.Header) (*Snapshot, error) {
	if len(headers) == 0 {
		return s.copy(), nil
	}
	if headers[0].NumberU64() != s.Number+1 {
		return nil, utils.ErrInvalidChild
	}
	for i := 1; i < len(headers); i++ {
		if headers[i].NumberU64() != headers[i-1].NumberU64()+1 {
			return nil, utils.ErrInvalidHeaderOrder
		}
	}

	last := headers[len(headers)-1]
	round := s.Round
	if len(last.Extra) > 0 {
		if _, extra, _, err := utils.DecodeExtraV2(last.Extra); err == nil {
			round = extra.Round
		}
	}

	newSnap := s.copy()
	newSnap.Number = last.NumberU64()
	newSnap.Hash = last.Hash()
	newSnap.Round = round
	return newSnap, nil
}

func snapshotDBKey(hash common.Hash) []byte {
	return append([]byte("xdpos-v2-snapshot-"), hash.Bytes()...)
}

type snapshotRLP struct {
	Number      uint64
	Hash        common.Hash
	Round       utils.Round
	Penalties   []common.Address
	MasterNodes []common.Address
}

// storeSnapshot persists snap under its hash.
func storeSnapshot(snap *Snapshot, db ethdb.Database) error {
	enc := snapshotRLP{
		Number:      snap.Number,
		Hash:        snap.Hash,
		Round:       snap.Round,
		Penalties:   snap.Penalties,
		MasterNodes: snap.GetMasterNodes(),
	}
	b, err := rlp.EncodeToBytes(enc)
	if err != nil {
		return err
	}
	return db.Put(snapshotDBKey(snap.Hash), b)
}

// loadSnapshot restores the snapshot stored under hash. config is
// accepted for call-site symmetry with newSnapshot and unused.
func loadSnapshot(config *params.XDPoSConfig, db ethdb.Database, hash common.Hash) (*Snapshot, error) {
	b, err := db.Get(snapshotDBKey(hash))
	if err != nil {
		return nil, err
	}
	var enc snapshotRLP
	if err := rlp.DecodeBytes(b, &enc); err != nil {
		return nil, err
	}
	return newSnapshot(config, enc.Number, enc.Hash, enc.Round, enc.Penalties, enc.MasterNodes), nil
}
