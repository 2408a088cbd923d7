package XDPoS

import (
	"math/big"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/engines"
	"github.com/xdc-network/xdpos-core/consensus/XDPoS/utils"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/crypto"
	"github.com/xdc-network/xdpos-core/params"
)

type facadeMockDB struct{ data map[string][]byte }

func newFacadeMockDB() *facadeMockDB { return &facadeMockDB{data: make(map[string][]byte)} }

func (m *facadeMockDB) Get(key []byte) ([]byte, error) { return m.data[string(key)], nil }
func (m *facadeMockDB) Put(key []byte, value []byte) error {
	m.data[string(key)] = value
	return nil
}
func (m *facadeMockDB) Delete(key []byte) error { delete(m.data, string(key)); return nil }
func (m *facadeMockDB) Has(key []byte) (bool, error) {
	_, ok := m.data[string(key)]
	return ok, nil
}

type facadeMockChain struct {
	headers     map[common.Hash]*types.Header
	masternodes []common.Address
}

func newFacadeMockChain() *facadeMockChain {
	return &facadeMockChain{headers: make(map[common.Hash]*types.Header)}
}

func (m *facadeMockChain) Config() *params.ChainConfig             { return &params.ChainConfig{} }
func (m *facadeMockChain) CurrentHeader() *types.Header            { return nil }
func (m *facadeMockChain) GetHeader(h common.Hash, n uint64) *types.Header { return m.headers[h] }
func (m *facadeMockChain) GetHeaderByHash(h common.Hash) *types.Header     { return m.headers[h] }
func (m *facadeMockChain) GetHeaderByNumber(n uint64) *types.Header {
	for _, h := range m.headers {
		if h.NumberU64() == n {
			return h
		}
	}
	return nil
}
func (m *facadeMockChain) GetTd(h common.Hash, n uint64) *big.Int { return big.NewInt(1) }
func (m *facadeMockChain) MasternodesAt(header *types.Header) ([]common.Address, error) {
	return m.masternodes, nil
}
func (m *facadeMockChain) add(h *types.Header) { m.headers[h.Hash()] = h }

func checkpointHeader(number int64, signers []common.Address) *types.Header {
	extra := make([]byte, engines.ExtraVanity)
	for _, s := range signers {
		extra = append(extra, s.Bytes()...)
	}
	extra = append(extra, make([]byte, crypto.SignatureLength)...)
	return &types.Header{
		Number:     big.NewInt(number),
		Difficulty: big.NewInt(2),
		Extra:      extra,
		UncleHash:  types.EmptyUncleHash,
	}
}

func TestFacadeVersionRoutesBySwitchBlock(t *testing.T) {
	cfg := &params.XDPoSConfig{Epoch: 900, Period: 2, V2: &params.V2Config{SwitchBlock: 1000}}
	f := NewFacade(params.MainnetChainID, cfg, newFacadeMockDB(), "")

	assert.Equal(t, V1, f.Version(&types.Header{Number: big.NewInt(999)}))
	assert.Equal(t, V2, f.Version(&types.Header{Number: big.NewInt(1000)}))
}

func TestFacadeValidateHeaderV1AcceptsInTurnSeal(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(priv.PublicKey)

	cfg := &params.XDPoSConfig{Epoch: 900, Period: 2}
	chain := newFacadeMockChain()

	genesis := checkpointHeader(0, []common.Address{signer})
	chain.add(genesis)

	child := &types.Header{
		ParentHash: genesis.Hash(),
		Number:     big.NewInt(1),
		Time:       genesis.Time + cfg.Period,
		Difficulty: big.NewInt(2),
		Extra:      make([]byte, engines.ExtraVanity+crypto.SignatureLength),
		UncleHash:  types.EmptyUncleHash,
	}
	f := NewFacade(params.MainnetChainID, cfg, newFacadeMockDB(), "")
	sig, err := crypto.Sign(f.v1.SealHash(child).Bytes(), priv)
	require.NoError(t, err)
	copy(child.Extra[engines.ExtraVanity:], sig)

	err = f.ValidateHeader(chain, child, genesis)
	require.NoError(t, err)

	author, err := f.Author(child)
	require.NoError(t, err)
	assert.Equal(t, signer, author)
}

func TestFacadeValidateHeaderV1RejectsUnauthorizedSigner(t *testing.T) {
	authorized, err := crypto.GenerateKey()
	require.NoError(t, err)
	outsider, err := crypto.GenerateKey()
	require.NoError(t, err)

	cfg := &params.XDPoSConfig{Epoch: 900, Period: 2}
	chain := newFacadeMockChain()

	genesis := checkpointHeader(0, []common.Address{crypto.PubkeyToAddress(authorized.PublicKey)})
	chain.add(genesis)

	child := &types.Header{
		ParentHash: genesis.Hash(),
		Number:     big.NewInt(1),
		Time:       genesis.Time + cfg.Period,
		Difficulty: big.NewInt(2),
		Extra:      make([]byte, engines.ExtraVanity+crypto.SignatureLength),
		UncleHash:  types.EmptyUncleHash,
	}
	f := NewFacade(params.MainnetChainID, cfg, newFacadeMockDB(), "")
	sig, err := crypto.Sign(f.v1.SealHash(child).Bytes(), outsider)
	require.NoError(t, err)
	copy(child.Extra[engines.ExtraVanity:], sig)

	err = f.ValidateHeader(chain, child, genesis)
	assert.Error(t, err)
}

func TestFacadeSnapshotAtReconstructsFromCheckpoint(t *testing.T) {
	addr := common.HexToAddress("0xaa")
	cfg := &params.XDPoSConfig{Epoch: 900, Period: 2}
	chain := newFacadeMockChain()
	genesis := checkpointHeader(0, []common.Address{addr})
	chain.add(genesis)

	f := NewFacade(params.MainnetChainID, cfg, newFacadeMockDB(), "")
	snap, err := f.SnapshotAt(chain, genesis.Hash())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), snap.Number)

	cached, err := f.SnapshotAt(chain, genesis.Hash())
	require.NoError(t, err)
	assert.Same(t, snap, cached)
}

func v2Header(number int64, parentHash common.Hash, coinbase common.Address, fields *utils.ExtraFields_v2) *types.Header {
	vanity := make([]byte, engines.ExtraVanity)
	seal := make([]byte, crypto.SignatureLength)
	extra, err := utils.EncodeExtraV2(vanity, 2, fields, seal)
	if err != nil {
		panic(err)
	}
	return &types.Header{
		ParentHash: parentHash,
		Number:     big.NewInt(number),
		Coinbase:   coinbase,
		Extra:      extra,
		UncleHash:  types.EmptyUncleHash,
	}
}

func TestFacadeValidateHeaderV2AcceptsRealEnvelope(t *testing.T) {
	addrA := common.HexToAddress("0x01")
	addrB := common.HexToAddress("0x02")
	masternodes := []common.Address{addrA, addrB}
	sorted := append([]common.Address(nil), masternodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

	cfg := &params.XDPoSConfig{Epoch: 900, Period: 2, V2: &params.V2Config{SwitchBlock: 0}}
	chain := newFacadeMockChain()
	chain.masternodes = masternodes

	genesis := v2Header(0, common.Hash{}, common.Address{}, &utils.ExtraFields_v2{Round: 0})
	chain.add(genesis)

	childRound := utils.Round(1)
	proposer := sorted[uint64(childRound)%uint64(len(sorted))]
	qc := &utils.QuorumCert{
		ProposedBlockInfo: &utils.BlockInfo{Hash: genesis.Hash(), Round: 0, Number: big.NewInt(0)},
		GapNumber:         450,
	}
	child := v2Header(1, genesis.Hash(), proposer, &utils.ExtraFields_v2{Round: childRound, QuorumCert: qc})

	f := NewFacade(params.MainnetChainID, cfg, newFacadeMockDB(), "")
	err := f.ValidateHeader(chain, child, genesis)
	require.NoError(t, err)

	author, err := f.Author(child)
	require.NoError(t, err)
	assert.Equal(t, proposer, author)
}

func TestFacadeValidateHeaderV2RejectsNonAdvancingRound(t *testing.T) {
	addrA := common.HexToAddress("0x01")
	masternodes := []common.Address{addrA}

	cfg := &params.XDPoSConfig{Epoch: 900, Period: 2, V2: &params.V2Config{SwitchBlock: 0}}
	chain := newFacadeMockChain()
	chain.masternodes = masternodes

	genesis := v2Header(0, common.Hash{}, common.Address{}, &utils.ExtraFields_v2{Round: 3})
	chain.add(genesis)
	child := v2Header(1, genesis.Hash(), addrA, &utils.ExtraFields_v2{Round: 3})

	f := NewFacade(params.MainnetChainID, cfg, newFacadeMockDB(), "")
	err := f.ValidateHeader(chain, child, genesis)
	assert.Error(t, err)
}

func TestFacadeValidateBlockPreExecutionRejectsUncles(t *testing.T) {
	cfg := &params.XDPoSConfig{Epoch: 900, Period: 2}
	f := NewFacade(params.MainnetChainID, cfg, newFacadeMockDB(), "")

	block := types.NewBlockWithHeader(&types.Header{}).WithBody([]*types.Header{{}}, nil)
	err := f.ValidateBlockPreExecution(block)
	assert.Error(t, err)

	clean := types.NewBlockWithHeader(&types.Header{})
	assert.NoError(t, f.ValidateBlockPreExecution(clean))
}
