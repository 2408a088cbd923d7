package types

import (
	"errors"
	"math/big"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/crypto"
	"github.com/xdc-network/xdpos-core/rlp"
)

var errNoSignature = errors.New("transaction: missing signature")

// Transaction is the legacy (pre-EIP-2718) transaction shape: the only
// one the consensus core's reward scanner needs to recognize a
// checkpoint-signing call and recover its sender. Typed transactions
// and gas-pricing details belong to the EVM/tx-pool layer this core
// does not own.
type Transaction struct {
	AccountNonce uint64
	Price        *big.Int
	GasLimit     uint64
	Recipient    *common.Address `rlp:"nil"`
	Amount       *big.Int
	Payload      []byte

	V *big.Int
	R *big.Int
	S *big.Int
}

// NewTransaction builds an unsigned transaction calling to with data.
func NewTransaction(nonce uint64, to common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return &Transaction{
		AccountNonce: nonce,
		Price:        gasPrice,
		GasLimit:     gasLimit,
		Recipient:    &to,
		Amount:       amount,
		Payload:      data,
	}
}

// To returns the transaction's recipient, or nil for contract creation.
func (tx *Transaction) To() *common.Address { return tx.Recipient }

// Data returns the transaction's input payload.
func (tx *Transaction) Data() []byte { return tx.Payload }

type sigHashTx struct {
	AccountNonce uint64
	Price        *big.Int
	GasLimit     uint64
	Recipient    *common.Address `rlp:"nil"`
	Amount       *big.Int
	Payload      []byte
}

// SigHash is the digest signed by the sender, the RLP hash of every
// field but the signature itself. Chain-id replay protection (EIP-155)
// is out of scope: the reward scanner only needs to recognize the
// classic homestead-style signing transactions XDPoS masternodes emit.
func (tx *Transaction) SigHash() common.Hash {
	b, err := rlp.EncodeToBytes(&sigHashTx{
		AccountNonce: tx.AccountNonce,
		Price:        tx.Price,
		GasLimit:     tx.GasLimit,
		Recipient:    tx.Recipient,
		Amount:       tx.Amount,
		Payload:      tx.Payload,
	})
	if err != nil {
		panic(err)
	}
	return common.BytesToHash(crypto.Keccak256(b))
}

// WithSignature returns a copy of tx carrying the given ECDSA signature
// (65 bytes: r(32) || s(32) || v(1), v in {0,1}).
func (tx *Transaction) WithSignature(sig []byte) *Transaction {
	cpy := *tx
	cpy.R = new(big.Int).SetBytes(sig[:32])
	cpy.S = new(big.Int).SetBytes(sig[32:64])
	cpy.V = new(big.Int).SetUint64(uint64(sig[64]) + 27)
	return &cpy
}

// Sender recovers tx's sender from its signature. It fails if the
// transaction carries no signature.
func Sender(tx *Transaction) (common.Address, error) {
	if tx.V == nil || tx.R == nil || tx.S == nil {
		return common.Address{}, errNoSignature
	}
	sig := make([]byte, 65)
	copy(sig[32-len(tx.R.Bytes()):32], tx.R.Bytes())
	copy(sig[64-len(tx.S.Bytes()):64], tx.S.Bytes())
	sig[64] = byte(tx.V.Uint64() - 27)
	return crypto.EcrecoverAddress(tx.SigHash().Bytes(), sig)
}
