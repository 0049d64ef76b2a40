// Package memory implements the ability to read and write blocks to memory
// using a map keyed like the disk store.
package memory

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// Memory represents the storage implementation for reading and storing
// blocks in memory. Blocks are kept in their serialized form so the encoding
// is exercised the same way it is on disk. This implements the
// database.Storage interface.
type Memory struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{
		keys: make(map[string][]byte),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Tip returns the hash of the most recently written block.
func (m *Memory) Tip() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tip, exists := m.keys[database.TipKey]
	if !exists {
		return "", database.ErrNotFound
	}

	return string(tip), nil
}

// GetBlock locates and decodes the block stored under the specified hash.
func (m *Memory) GetBlock(hash string) (database.Block, error) {
	m.mu.RLock()
	data, exists := m.keys[hash]
	m.mu.RUnlock()

	if !exists || hash == database.TipKey {
		return database.Block{}, fmt.Errorf("block %s: %w", hash, database.ErrNotFound)
	}

	return database.Deserialize(data)
}

// Write stores the block under its hash and moves the tip to it.
func (m *Memory) Write(block database.Block) error {
	data, err := database.Serialize(block)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys[block.Hash] = data
	m.keys[database.TipKey] = []byte(block.Hash)

	return nil
}

// Keys returns the number of keys held, including the tip key.
func (m *Memory) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.keys)
}

// Put stores raw bytes under a key. It exists so tests can corrupt a store.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys[key] = data
}
