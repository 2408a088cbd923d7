// Package accounts defines the minimal account identity type the
// signing backends (package keystore) key their unlocked accounts by.
package accounts

import "github.com/xdc-network/xdpos-core/common"

// Account identifies a signing key by its derived address.
type Account struct {
	Address common.Address
}
