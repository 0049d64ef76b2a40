// Package database defines the blocks and transactions that make up the
// ledger, the proof of work that seals blocks, and the storage contract used
// to persist the chain.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// =============================================================================

// Block represents a group of transactions sealed by proof of work. A block
// is never modified once it has been constructed.
type Block struct {
	TimeStamp     int64  `json:"timestamp"`       // Bitcoin: Time the block was mined.
	Transactions  []Tx   `json:"transactions"`    // Ordered transactions committed to by the hash.
	Hash          string `json:"hash"`            // Bitcoin: Hash solving the POW puzzle.
	PrevBlockHash string `json:"prev_block_hash"` // Bitcoin: Hash of the previous block in the chain.
	Nonce         uint64 `json:"nonce"`           // Bitcoin: Value identified to solve the hash solution.
	Difficulty    uint   `json:"difficulty"`      // Number of leading zero bits the hash required.
}

// NewBlock constructs a new block and performs the work to find a nonce that
// solves the POW puzzle. The genesis block uses an empty previous block hash.
func NewBlock(ctx context.Context, trans []Tx, prevBlockHash string, difficulty uint, ev EventHandler) (Block, error) {
	return newBlockAt(ctx, time.Now().UTC().Unix(), trans, prevBlockHash, difficulty, ev)
}

// newBlockAt seals a block for a fixed timestamp.
func newBlockAt(ctx context.Context, timeStamp int64, trans []Tx, prevBlockHash string, difficulty uint, ev EventHandler) (Block, error) {
	if len(trans) == 0 {
		return Block{}, errors.New("cannot construct block with no transactions")
	}

	if ev != nil {
		for _, tx := range trans {
			ev("database: NewBlock: MINING: tx[%s]", tx)
		}
	}

	pow, err := NewProofOfWork(prevBlockHash, trans, timeStamp, difficulty)
	if err != nil {
		return Block{}, err
	}

	nonce, hash, err := pow.Run(ctx, ev)
	if err != nil {
		return Block{}, err
	}

	// Take a copy so the caller can't change what was sealed.
	cpy := make([]Tx, len(trans))
	copy(cpy, trans)

	b := Block{
		TimeStamp:     timeStamp,
		Transactions:  cpy,
		Hash:          hash,
		PrevBlockHash: prevBlockHash,
		Nonce:         nonce,
		Difficulty:    difficulty,
	}

	return b, nil
}

// IsGenesis reports whether this block starts the chain.
func (b Block) IsGenesis() bool {
	return b.PrevBlockHash == ""
}

// ValidateBlock checks the block hash is the correct digest of the block
// fields and solves the puzzle for the recorded difficulty.
func (b Block) ValidateBlock() error {
	if len(b.Transactions) == 0 {
		return fmt.Errorf("block %s has no transactions", b.Hash)
	}

	for _, tx := range b.Transactions {
		if err := tx.ValidateID(); err != nil {
			return fmt.Errorf("block %s: %w", b.Hash, err)
		}
	}

	pow, err := NewProofOfWork(b.PrevBlockHash, b.Transactions, b.TimeStamp, b.Difficulty)
	if err != nil {
		return fmt.Errorf("block %s: %w", b.Hash, err)
	}

	return pow.Validate(b.Nonce, b.Hash)
}

// =============================================================================

// Serialize encodes the block for storage.
func Serialize(b Block) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("serialize block %s: %w", b.Hash, err)
	}

	return data, nil
}

// Deserialize decodes a block previously produced by Serialize.
func Deserialize(data []byte) (Block, error) {
	var b Block
	if err := json.Unmarshal(data, &b); err != nil {
		return Block{}, fmt.Errorf("deserialize block: %w", err)
	}

	if b.Hash == "" {
		return Block{}, errors.New("deserialize block: missing hash")
	}

	return b, nil
}
