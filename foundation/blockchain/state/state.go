// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
)

// Set of errors the blockchain can return.
var (
	ErrChainExists       = errors.New("blockchain already exists")
	ErrChainNotFound     = errors.New("no existing blockchain found, create one first")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransfer   = errors.New("invalid transfer")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the blockchain.
// The storage is owned by the State once Create or Open succeeds.
type Config struct {
	Storage   database.Storage
	Genesis   genesis.Genesis
	EvHandler EventHandler
}

// State manages the blockchain database.
type State struct {
	genesis   genesis.Genesis
	storage   database.Storage
	evHandler EventHandler

	// writeMu serializes the read tip, seal, write block, write tip sequence.
	writeMu sync.Mutex

	mu  sync.RWMutex
	tip string
}

// Create builds the genesis block rewarding the specified address and writes
// it to storage. The call fails if the storage already holds a chain.
func Create(ctx context.Context, cfg Config, address string) (*State, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: genesis address is required", ErrInvalidTransfer)
	}

	s, err := newState(cfg)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.evHandler("state: Create: started: address[%s]", address)
	defer s.evHandler("state: Create: completed")

	switch _, err := s.storage.Tip(); {
	case err == nil:
		return nil, ErrChainExists
	case !errors.Is(err, database.ErrNotFound):
		return nil, err
	}

	coinbase, err := database.NewCoinbaseTx(address, s.genesis.CoinbaseData)
	if err != nil {
		return nil, err
	}

	block, err := database.NewBlock(ctx, []database.Tx{coinbase}, "", s.genesis.Difficulty, database.EventHandler(s.evHandler))
	if err != nil {
		return nil, fmt.Errorf("mining genesis block: %w", err)
	}

	if err := s.storage.Write(block); err != nil {
		return nil, err
	}
	s.setTip(block.Hash)

	s.evHandler("state: Create: genesis block[%s]", block.Hash)

	return s, nil
}

// Open loads an existing chain from storage.
func Open(cfg Config) (*State, error) {
	s, err := newState(cfg)
	if err != nil {
		return nil, err
	}

	tip, err := s.storage.Tip()
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrChainNotFound
		}
		return nil, err
	}
	s.setTip(tip)

	s.evHandler("state: Open: tip[%s]", tip)

	return s, nil
}

// newState validates the configuration and constructs the State.
func newState(cfg Config) (*State, error) {
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	s := State{
		genesis:   cfg.Genesis,
		storage:   cfg.Storage,
		evHandler: ev,
	}

	return &s, nil
}

// Shutdown cleanly brings the blockchain down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Wait for any block being written to finish.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.storage.Close()
}

// =============================================================================

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveTip returns the hash of the most recently appended block.
func (s *State) RetrieveTip() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tip
}

// RetrieveLatestBlock returns the block the tip points to.
func (s *State) RetrieveLatestBlock() (database.Block, error) {
	return s.storage.GetBlock(s.RetrieveTip())
}

// setTip moves the tip to the specified block hash.
func (s *State) setTip(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tip = hash
}
