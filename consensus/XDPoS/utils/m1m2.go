package utils

import (
	"sort"

	"github.com/xdc-network/xdpos-core/common"
)

// CompareSignersLists reports whether two masternode lists contain the
// same addresses, ignoring order. Used to detect a no-op penalty/standby
// rotation between two checkpoints.
func CompareSignersLists(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]common.Address(nil), a...)
	sb := append([]common.Address(nil), b...)
	sort.Slice(sa, func(i, j int) bool { return sa[i].Hex() < sa[j].Hex() })
	sort.Slice(sb, func(i, j int) bool { return sb[i].Hex() < sb[j].Hex() })
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// GetM1M2 computes the (m1, m2) penalty-rotation pair active at
// blockNumber within the epoch that started at epochSwitchBlock: m1 is
// the masternode currently standing down, m2 is the standbyNode
// rotating in to replace it for this 3-block swing. Masternodes and
// standbyNodes are addressed by the same rotation index, cycling through
// min(len(masternodes), len(standbyNodes)) slots, 3 blocks per slot.
// When either list is empty, both returned addresses are zero.
func GetM1M2(masternodes, standbyNodes []common.Address, blockNumber, epochSwitchBlock uint64) (m1, m2 common.Address) {
	slots := len(masternodes)
	if len(standbyNodes) < slots {
		slots = len(standbyNodes)
	}
	if slots == 0 {
		return common.Address{}, common.Address{}
	}
	relative := blockNumber - epochSwitchBlock
	idx := (relative / 3) % uint64(slots)
	return masternodes[idx], standbyNodes[idx]
}
