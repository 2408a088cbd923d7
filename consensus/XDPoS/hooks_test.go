package XDPoS

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/statecache"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/params"
)

func TestPreExecuteRoutesByV2SwitchBlock(t *testing.T) {
	cfg := &params.XDPoSConfig{V2: &params.V2Config{SwitchBlock: 100}}

	v, suppressed := PreExecute(cfg, params.MainnetChainID, &types.Header{Number: big.NewInt(99)})
	assert.Equal(t, V1, v)
	assert.True(t, suppressed)

	v, _ = PreExecute(cfg, params.MainnetChainID, &types.Header{Number: big.NewInt(100)})
	assert.Equal(t, V2, v)

	_, suppressed = PreExecute(cfg, 1, &types.Header{Number: big.NewInt(100)})
	assert.False(t, suppressed)
}

func TestIsFreeGasTx(t *testing.T) {
	header := &types.Header{Number: big.NewInt(params.TIPSigningBlock)}
	tx := types.NewTransaction(0, params.BlockSignersContract, big.NewInt(0), 0, big.NewInt(0), nil)
	assert.True(t, IsFreeGasTx(header, tx))

	early := &types.Header{Number: big.NewInt(params.TIPSigningBlock - 1)}
	assert.False(t, IsFreeGasTx(early, tx))

	other := types.NewTransaction(0, common.HexToAddress("0x1234"), big.NewInt(0), 0, big.NewInt(0), nil)
	assert.False(t, IsFreeGasTx(header, other))
}

func TestFinalizeStateRootNonCheckpointUsesComputed(t *testing.T) {
	cache := statecache.New("", 100)
	cfg := &params.XDPoSConfig{Epoch: 900}
	got := FinalizeStateRoot(cache, cfg, 901, common.HexToHash("0xaa"), common.HexToHash("0xbb"))
	assert.Equal(t, common.HexToHash("0xbb"), got)
}

func TestFinalizeStateRootCheckpointEqualRootsNoCacheWrite(t *testing.T) {
	cache := statecache.New("", 100)
	cfg := &params.XDPoSConfig{Epoch: 900}
	root := common.HexToHash("0xaa")
	got := FinalizeStateRoot(cache, cfg, 900, root, root)
	assert.Equal(t, root, got)
	_, ok := cache.GetLocalRoot(root)
	assert.False(t, ok)
}

func TestFinalizeStateRootCheckpointDivergenceRecordedThenReused(t *testing.T) {
	cache := statecache.New("", 100)
	cfg := &params.XDPoSConfig{Epoch: 900}
	remote := common.HexToHash("0xaa")
	local := common.HexToHash("0xbb")

	got := FinalizeStateRoot(cache, cfg, 900, remote, local)
	assert.Equal(t, local, got)

	cached, ok := cache.GetLocalRoot(remote)
	require.True(t, ok)
	assert.Equal(t, local, cached)

	got = FinalizeStateRoot(cache, cfg, 1800, remote, common.HexToHash("0xcc"))
	assert.Equal(t, local, got)
}
