package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// ErrEndOfChain is returned by Next once the genesis block has been read.
var ErrEndOfChain = errors.New("end of chain")

// ErrChainCycle is returned by Next when a block links back to a block the
// walk has already returned.
var ErrChainCycle = errors.New("chain cycle")

// Iterator walks the chain from the tip back to the genesis block, reading
// one block from storage per call to Next.
type Iterator struct {
	storage database.Storage
	current string              // Hash of the block returned by the next call to Next.
	seen    map[string]struct{} // Hashes already returned by this walk.
}

// Iterate returns an iterator positioned at the current tip. Every call
// starts a new walk.
func (s *State) Iterate() *Iterator {
	return &Iterator{
		storage: s.storage,
		current: s.RetrieveTip(),
		seen:    make(map[string]struct{}),
	}
}

// Next retrieves the current block and moves to its predecessor.
func (it *Iterator) Next() (database.Block, error) {
	if it.Done() {
		return database.Block{}, ErrEndOfChain
	}

	if _, exists := it.seen[it.current]; exists {
		key := it.current
		it.current = ""
		return database.Block{}, fmt.Errorf("block %s visited twice: %w", key, ErrChainCycle)
	}

	block, err := it.storage.GetBlock(it.current)
	if err != nil {
		it.current = ""
		return database.Block{}, err
	}

	if block.Hash != it.current {
		key := it.current
		it.current = ""
		return database.Block{}, fmt.Errorf("block stored under %s has hash %s", key, block.Hash)
	}

	it.seen[block.Hash] = struct{}{}
	it.current = block.PrevBlockHash

	return block, nil
}

// Done reports whether the genesis block has already been returned.
func (it *Iterator) Done() bool {
	return it.current == ""
}

// =============================================================================

// QueryBlocks returns every block from the tip back to genesis.
func (s *State) QueryBlocks() ([]database.Block, error) {
	var blocks []database.Block

	iter := s.Iterate()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// Length returns the number of blocks in the chain.
func (s *State) Length() (int, error) {
	var n int

	iter := s.Iterate()
	for !iter.Done() {
		if _, err := iter.Next(); err != nil {
			return 0, err
		}
		n++
	}

	return n, nil
}

// ValidateChain walks the chain checking every block was sealed correctly.
// It returns the length of the chain.
func (s *State) ValidateChain() (int, error) {
	s.evHandler("state: ValidateChain: started")
	defer s.evHandler("state: ValidateChain: completed")

	var n int

	iter := s.Iterate()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			return 0, err
		}
		n++

		s.evHandler("state: ValidateChain: validate: blk[%s]", block.Hash)

		if err := block.ValidateBlock(); err != nil {
			return 0, err
		}

		if block.IsGenesis() {
			for _, tx := range block.Transactions {
				if !tx.IsCoinbase() {
					return 0, fmt.Errorf("genesis block %s holds a non coinbase transaction %s", block.Hash, tx.ID)
				}
			}
		}
	}

	return n, nil
}
