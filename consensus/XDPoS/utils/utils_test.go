package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xdc-network/xdpos-core/common"
)

func TestCompareSignersListsIgnoresOrder(t *testing.T) {
	a := []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02"), common.HexToAddress("0x03")}
	b := []common.Address{common.HexToAddress("0x03"), common.HexToAddress("0x01"), common.HexToAddress("0x02")}
	assert.True(t, CompareSignersLists(a, b))

	c := []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02"), common.HexToAddress("0x04")}
	assert.False(t, CompareSignersLists(a, c))

	assert.False(t, CompareSignersLists(a, a[:2]))
}

func TestGetM1M2RotatesEveryThreeBlocks(t *testing.T) {
	masternodes := []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02"), common.HexToAddress("0x03")}
	standby := []common.Address{common.HexToAddress("0x11"), common.HexToAddress("0x12"), common.HexToAddress("0x13")}

	const epochStart = 3464001
	want := []int{0, 0, 0, 1, 1, 1, 2, 2, 2, 0, 0, 0, 1, 1, 1, 2, 2, 2}
	for i, idx := range want {
		block := uint64(epochStart + i)
		m1, m2 := GetM1M2(masternodes, standby, block, epochStart)
		assert.Equalf(t, masternodes[idx], m1, "block %d", block)
		assert.Equalf(t, standby[idx], m2, "block %d", block)
	}
}

func TestGetM1M2EmptyStandbyReturnsZeroAddresses(t *testing.T) {
	masternodes := []common.Address{common.HexToAddress("0x01")}
	m1, m2 := GetM1M2(masternodes, nil, 100, 0)
	assert.Equal(t, common.Address{}, m1)
	assert.Equal(t, common.Address{}, m2)
}
