package engines

import (
	"errors"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/core/types"
	"github.com/xdc-network/xdpos-core/crypto"
	"github.com/xdc-network/xdpos-core/rlp"
)

// sigHash returns the hash a V1 block's seal signature is computed
// over: the header with its trailing ExtraSeal signature bytes
// stripped out of Extra, so the signature never signs itself.
func sigHash(header *types.Header) common.Hash {
	cpy := header.Copy()
	if len(cpy.Extra) >= ExtraVanity+crypto.SignatureLength {
		cpy.Extra = cpy.Extra[:len(cpy.Extra)-crypto.SignatureLength]
	}
	b, err := rlp.EncodeToBytes(cpy)
	if err != nil {
		panic(err)
	}
	return common.BytesToHash(crypto.Keccak256(b))
}

// ecrecover recovers the signer of header from its seal signature,
// using cache to short-circuit repeated lookups for the same header.
func ecrecover(header *types.Header, cache *signerCache) (common.Address, error) {
	hash := header.Hash()
	if cache != nil {
		if v, ok := cache.Get(hash); ok {
			return v.(common.Address), nil
		}
	}
	if len(header.Extra) < ExtraVanity+crypto.SignatureLength {
		return common.Address{}, errors.New("engines: extra-data too short for seal signature")
	}
	sig := header.Extra[len(header.Extra)-crypto.SignatureLength:]
	addr, err := crypto.EcrecoverAddress(sigHash(header).Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	if cache != nil {
		cache.Add(hash, addr)
	}
	return addr, nil
}
