// Package rawdb adapts a raw ethdb.Database into the schema-prefixed
// store snapshot persistence uses, mirroring the layering the teacher
// repo keeps between its key-value backends and consensus code.
package rawdb

import "github.com/xdc-network/xdpos-core/ethdb"

// snapshotPrefix namespaces snapshot keys so they can share a database
// with any other future consumer without collisions.
var snapshotPrefix = []byte("XDPoS-snapshot-")

// Database wraps an ethdb.Database, reserved for future schema
// bookkeeping (ancient store, freezer) beyond plain key-value access.
type Database struct {
	ethdb.Database
}

// NewDatabase wraps db as a rawdb.Database.
func NewDatabase(db ethdb.Database) *Database {
	return &Database{Database: db}
}

// SnapshotKey returns the namespaced key a snapshot for hash is stored
// under.
func SnapshotKey(hash []byte) []byte {
	return append(append([]byte{}, snapshotPrefix...), hash...)
}
