package database

import (
	"errors"
	"fmt"
)

// TipKey is the reserved storage key holding the hash of the most recently
// appended block. Every other key is a block hash.
const TipKey = "l"

// ErrNotFound is returned by storage when a key does not exist.
var ErrNotFound = errors.New("not found")

// Storage interface represents the behavior required to be implemented by any
// package providing support for persisting the blockchain. Blocks are keyed
// by their hash and the tip is kept under TipKey.
type Storage interface {
	Tip() (string, error)
	GetBlock(hash string) (Block, error)
	Write(block Block) error
	Close() error
}

// =============================================================================

// StorageError represents a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps a store failure with the operation that failed.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Error implements the error interface.
func (se *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %s", se.Op, se.Err)
}

// Unwrap provides access to the wrapped error.
func (se *StorageError) Unwrap() error {
	return se.Err
}

// IsStorageError checks if an error of type StorageError exists.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
