package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainConfigByID(t *testing.T) {
	require.Equal(t, MainnetChainConfig, ChainConfigByID(MainnetChainID))
	require.Equal(t, ApothemChainConfig, ChainConfigByID(ApothemChainID))
	require.Nil(t, ChainConfigByID(1))
}

func TestIsV2Boundary(t *testing.T) {
	cfg := MainnetChainConfig.XDPoS
	assert.False(t, cfg.IsV2(cfg.V2.SwitchBlock-1))
	assert.True(t, cfg.IsV2(cfg.V2.SwitchBlock))
}

func TestDefaultRewardIs250XDC(t *testing.T) {
	want := DefaultReward()
	assert.Equal(t, "250000000000000000000", want.Dec())
}
