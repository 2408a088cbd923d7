// Package leveldb wraps syndtr/goleveldb behind ethdb.Database, the
// on-disk store snapshots persist through.
package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Database is a leveldb-backed ethdb.Database.
type Database struct {
	db *leveldb.DB
}

// New opens (or creates) a leveldb database at file, with the given
// in-memory cache size (MB) and max open file handles. namespace is
// accepted for call-site compatibility with the teacher's metrics
// registration and otherwise unused.
func New(file string, cache int, handles int, namespace string) (*Database, error) {
	if cache < 16 {
		cache = 16
	}
	if handles < 16 {
		handles = 16
	}
	db, err := leveldb.OpenFile(file, &opt.Options{
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 nil,
	})
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}

func (d *Database) Has(key []byte) (bool, error) { return d.db.Has(key, nil) }

func (d *Database) Get(key []byte) ([]byte, error) {
	v, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	return v, err
}

func (d *Database) Put(key, value []byte) error { return d.db.Put(key, value, nil) }

func (d *Database) Delete(key []byte) error { return d.db.Delete(key, nil) }

func (d *Database) Close() error { return d.db.Close() }
