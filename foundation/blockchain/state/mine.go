package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are no transactions.
var ErrNoTransactions = errors.New("no transactions to mine")

// =============================================================================

// MineNewBlock seals the transactions into a new block linked to the current
// tip, writes the block and moves the tip to it.
func (s *State) MineNewBlock(ctx context.Context, trans []database.Tx) (database.Block, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.mineNewBlock(ctx, trans)
}

// MineReward mines a block holding a single coinbase transaction paying the
// subsidy to the specified address. The data is recorded in the coinbase input.
// Without data the note names the block being extended, so every default
// reward gets a distinct transaction id.
func (s *State) MineReward(ctx context.Context, to string, data string) (database.Block, error) {
	if to == "" {
		return database.Block{}, fmt.Errorf("%w: reward address is required", ErrInvalidTransfer)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if data == "" {
		data = fmt.Sprintf("reward to '%s' after block %s", to, s.RetrieveTip())
	}

	coinbase, err := database.NewCoinbaseTx(to, data)
	if err != nil {
		return database.Block{}, err
	}

	return s.mineNewBlock(ctx, []database.Tx{coinbase})
}

// mineNewBlock performs the mining sequence. The caller must hold writeMu.
func (s *State) mineNewBlock(ctx context.Context, trans []database.Tx) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started: txs[%d]", len(trans))
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	for _, tx := range trans {
		if err := tx.ValidateID(); err != nil {
			return database.Block{}, err
		}
	}

	if err := checkOutputs(trans); err != nil {
		return database.Block{}, err
	}

	if err := s.checkDuplicates(trans); err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: load latest block")

	latestBlock, err := s.RetrieveLatestBlock()
	if err != nil {
		return database.Block{}, fmt.Errorf("loading latest block: %w", err)
	}

	// The chain keeps the difficulty it was created with, whatever genesis
	// settings this process was started with.
	difficulty := latestBlock.Difficulty
	if difficulty != s.genesis.Difficulty {
		s.evHandler("state: MineNewBlock: MINING: using chain difficulty[%d]: configured[%d]", difficulty, s.genesis.Difficulty)
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: prevBlk[%s]", latestBlock.Hash)

	block, err := database.NewBlock(ctx, trans, latestBlock.Hash, difficulty, database.EventHandler(s.evHandler))
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: write to storage: blk[%s]", block.Hash)

	if err := s.storage.Write(block); err != nil {
		return database.Block{}, err
	}
	s.setTip(block.Hash)

	return block, nil
}

// checkOutputs rejects outputs that carry no value. Output values are summed
// when balances are computed, so they must stay positive.
func checkOutputs(trans []database.Tx) error {
	for _, tx := range trans {
		for idx, out := range tx.VOut {
			if out.Value <= 0 {
				return fmt.Errorf("%w: transaction %s output %d has value %d", ErrInvalidTransfer, tx.ID, idx, out.Value)
			}
		}
	}

	return nil
}

// checkDuplicates rejects transactions whose id is already on the chain or
// repeated in the batch. Spends are tracked by transaction id, so two
// transactions sharing an id would hide each other's outputs.
func (s *State) checkDuplicates(trans []database.Tx) error {
	ids := make(map[string]struct{}, len(trans))
	for _, tx := range trans {
		if _, exists := ids[tx.ID]; exists {
			return fmt.Errorf("%w: transaction %s repeated in block", ErrInvalidTransfer, tx.ID)
		}
		ids[tx.ID] = struct{}{}
	}

	iter := s.Iterate()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			return err
		}

		for _, tx := range block.Transactions {
			if _, exists := ids[tx.ID]; exists {
				return fmt.Errorf("%w: transaction %s already in block %s", ErrInvalidTransfer, tx.ID, block.Hash)
			}
		}
	}

	return nil
}
