// Package disk implements the ability to read and write blocks to a bbolt
// database file on disk.
package disk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	bolt "go.etcd.io/bbolt"
)

// blocksBucket is the bucket holding every key used by the chain.
var blocksBucket = []byte("blocks")

// openTimeout is how long to wait for the file lock held by another process.
const openTimeout = time.Second

// =============================================================================

// Disk represents the storage implementation for reading and storing blocks
// in a bbolt key/value file. This implements the database.Storage interface.
type Disk struct {
	db *bolt.DB
}

// New opens, creating when needed, the bbolt file at the specified path.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, database.NewStorageError("mkdir", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, database.NewStorageError("open", fmt.Errorf("%s: %w", dbPath, err))
	}

	// Make sure the bucket exists so readers never need to create it.
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, database.NewStorageError("create bucket", err)
	}

	return &Disk{db: db}, nil
}

// Close releases the file lock and closes the database file.
func (d *Disk) Close() error {
	if err := d.db.Close(); err != nil {
		return database.NewStorageError("close", err)
	}

	return nil
}

// Tip returns the hash of the most recently written block.
func (d *Disk) Tip() (string, error) {
	var tip string

	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(blocksBucket).Get([]byte(database.TipKey))
		if v == nil {
			return database.ErrNotFound
		}

		tip = string(v)
		return nil
	})

	switch {
	case errors.Is(err, database.ErrNotFound):
		return "", database.ErrNotFound
	case err != nil:
		return "", database.NewStorageError("read tip", err)
	}

	return tip, nil
}

// GetBlock locates and decodes the block stored under the specified hash.
func (d *Disk) GetBlock(hash string) (database.Block, error) {
	if hash == database.TipKey {
		return database.Block{}, fmt.Errorf("block %s: %w", hash, database.ErrNotFound)
	}

	var data []byte

	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(blocksBucket).Get([]byte(hash))
		if v == nil {
			return database.ErrNotFound
		}

		// The value is only valid for the life of the transaction.
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})

	switch {
	case errors.Is(err, database.ErrNotFound):
		return database.Block{}, fmt.Errorf("block %s: %w", hash, database.ErrNotFound)
	case err != nil:
		return database.Block{}, database.NewStorageError("read block", err)
	}

	return database.Deserialize(data)
}

// Write stores the block under its hash and moves the tip to it. Both keys
// are written in the same bbolt transaction.
func (d *Disk) Write(block database.Block) error {
	data, err := database.Serialize(block)
	if err != nil {
		return err
	}

	err = d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(blocksBucket)

		if err := b.Put([]byte(block.Hash), data); err != nil {
			return err
		}

		return b.Put([]byte(database.TipKey), []byte(block.Hash))
	})
	if err != nil {
		return database.NewStorageError("write block", err)
	}

	return nil
}
