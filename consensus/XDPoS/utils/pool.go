package utils

import "github.com/xdc-network/xdpos-core/common"

// PoolObj is anything a Pool can collect towards a signature threshold:
// votes towards a QuorumCert, timeouts towards a TimeoutCert.
type PoolObj interface {
	Hash() common.Hash
	PoolKey() string
}

// Pool accumulates PoolObj values into groups keyed by PoolKey, firing
// onThresholdFn exactly once per group the moment its size reaches
// threshold. A group is dropped from the pool as soon as it fires, so a
// later object under the same key starts a fresh group.
type Pool struct {
	threshold     int
	objList       map[string]map[common.Hash]PoolObj
	onThresholdFn func(key string, objs map[common.Hash]PoolObj)
}

// NewPool returns a Pool that fires once a group reaches threshold
// distinct objects.
func NewPool(threshold int) *Pool {
	return &Pool{
		threshold: threshold,
		objList:   make(map[string]map[common.Hash]PoolObj),
	}
}

// SetOnThresholdFn installs the callback invoked when a group reaches
// threshold. Must be called before Add.
func (p *Pool) SetOnThresholdFn(fn func(key string, objs map[common.Hash]PoolObj)) {
	p.onThresholdFn = fn
}

// Add inserts obj into its group, deduplicating by obj.Hash(). Returns
// the total number of distinct objects in the group after insertion.
// If this Add brought the group to exactly threshold, onThresholdFn
// fires with the group's contents and the group is then cleared.
func (p *Pool) Add(obj PoolObj) int {
	key := obj.PoolKey()
	group, ok := p.objList[key]
	if !ok {
		group = make(map[common.Hash]PoolObj)
		p.objList[key] = group
	}

	h := obj.Hash()
	if _, exists := group[h]; exists {
		return len(group)
	}
	group[h] = obj
	size := len(group)

	if size == p.threshold {
		if p.onThresholdFn != nil {
			p.onThresholdFn(key, group)
		}
		delete(p.objList, key)
	}
	return size
}

// Size returns the number of distinct objects currently held for key.
func (p *Pool) Size(key string) int {
	return len(p.objList[key])
}

// Clear discards all groups.
func (p *Pool) Clear() {
	p.objList = make(map[string]map[common.Hash]PoolObj)
}
