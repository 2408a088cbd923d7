package engine_v2

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/utils"
)

// EpochSwitchInfo is the validator-set snapshot taken at an epoch
// switch block: the masternodes active for the epoch, the standby
// nodes waiting to rotate in under the M1/M2 penalty scheme, and the
// block identities the epoch switch itself spans.
type EpochSwitchInfo struct {
	Masternodes               []common.Address
	MasternodesLen            int
	Penalties                 []common.Address
	StandbyNodes              []common.Address
	EpochSwitchBlockInfo      *utils.BlockInfo
	EpochSwitchParentBlockInfo *utils.BlockInfo
}

// epochSwitchCache caches EpochSwitchInfo by the switch block's hash so
// masternode-set lookups for recent epochs avoid replaying the switch
// header's checkpoint logic on every block.
type epochSwitchCache struct {
	cache *lru.Cache
}

func newEpochSwitchCache(size int) *epochSwitchCache {
	if size <= 0 {
		size = 1
	}
	c, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return &epochSwitchCache{cache: c}
}

func (c *epochSwitchCache) Get(hash common.Hash) (*EpochSwitchInfo, bool) {
	v, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	return v.(*EpochSwitchInfo), true
}

func (c *epochSwitchCache) Add(hash common.Hash, info *EpochSwitchInfo) {
	c.cache.Add(hash, info)
}
