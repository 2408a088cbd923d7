package types

import "github.com/xdc-network/xdpos-core/common"

// Block pairs a header with its uncle headers. XDPoS blocks never carry
// uncles (UncleHash is always EmptyUncleHash) but the type is kept for
// execution-layer interop: VerifyUncles only needs to confirm the list
// is empty.
type Block struct {
	header       *Header
	uncles       []*Header
	transactions []*Transaction
}

// NewBlockWithHeader returns a Block wrapping a copy of header, with no
// uncles or transactions.
func NewBlockWithHeader(header *Header) *Block {
	return &Block{header: header.Copy()}
}

// WithBody returns a copy of b carrying uncles and transactions.
func (b *Block) WithBody(uncles []*Header, transactions []*Transaction) *Block {
	cpy := &Block{header: b.header}
	cpy.uncles = make([]*Header, len(uncles))
	copy(cpy.uncles, uncles)
	cpy.transactions = make([]*Transaction, len(transactions))
	copy(cpy.transactions, transactions)
	return cpy
}

// Header returns the block's header.
func (b *Block) Header() *Header { return b.header.Copy() }

// Uncles returns the block's uncle headers.
func (b *Block) Uncles() []*Header { return b.uncles }

// Transactions returns the block's transactions.
func (b *Block) Transactions() []*Transaction { return b.transactions }

// Hash returns the block's header hash.
func (b *Block) Hash() common.Hash { return b.header.Hash() }

// NumberU64 returns the block's number.
func (b *Block) NumberU64() uint64 { return b.header.NumberU64() }
