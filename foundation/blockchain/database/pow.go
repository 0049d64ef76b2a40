package database

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/holiman/uint256"
)

// DefaultDifficulty is the number of leading zero bits a block hash needs
// when no other difficulty is configured.
const DefaultDifficulty = 16

// Difficulty limits. A difficulty of 0 would accept every hash and 256 would
// accept none.
const (
	MinDifficulty = 1
	MaxDifficulty = 255
)

// ErrMiningExhausted is returned when every nonce has been tried without
// solving the puzzle.
var ErrMiningExhausted = errors.New("proof of work nonce space exhausted")

// EventHandler defines a function that is called when events occur while
// sealing blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// ProofOfWork searches for the nonce that seals a block under a difficulty
// expressed as a number of leading zero bits.
type ProofOfWork struct {
	PrevBlockHash string
	ContentDigest string
	TimeStamp     int64
	Difficulty    uint
	MaxNonce      uint64

	target *uint256.Int
}

// NewProofOfWork constructs the puzzle for the mutable header fields of a block.
func NewProofOfWork(prevBlockHash string, trans []Tx, timeStamp int64, difficulty uint) (*ProofOfWork, error) {
	target, err := Target(difficulty)
	if err != nil {
		return nil, err
	}

	pow := ProofOfWork{
		PrevBlockHash: prevBlockHash,
		ContentDigest: ContentDigest(trans),
		TimeStamp:     timeStamp,
		Difficulty:    difficulty,
		MaxNonce:      math.MaxUint64,
		target:        target,
	}

	return &pow, nil
}

// Run performs the search starting at nonce zero and returns the first nonce
// that produces a hash below the target along with that hash.
func (pow *ProofOfWork) Run(ctx context.Context, ev EventHandler) (uint64, string, error) {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: ProofOfWork: MINING: started: prevBlk[%s]: difficulty[%d]", pow.PrevBlockHash, pow.Difficulty)
	defer ev("database: ProofOfWork: MINING: completed")

	if ctx.Err() != nil {
		ev("database: ProofOfWork: MINING: CANCELLED")
		return 0, "", ctx.Err()
	}

	var attempts uint64
	for nonce := uint64(0); ; nonce++ {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: ProofOfWork: MINING: attempts[%d]", attempts)

			if ctx.Err() != nil {
				ev("database: ProofOfWork: MINING: CANCELLED")
				return 0, "", ctx.Err()
			}
		}

		hash := sha256.Sum256(pow.prepareData(nonce))
		if pow.isSolved(hash) {
			hexHash := encodeHash(hash)
			ev("database: ProofOfWork: MINING: SOLVED: nonce[%d]: hash[%s]: attempts[%d]", nonce, hexHash, attempts)
			return nonce, hexHash, nil
		}

		if nonce == pow.MaxNonce {
			break
		}
	}

	ev("database: ProofOfWork: MINING: EXHAUSTED: attempts[%d]", attempts)
	return 0, "", ErrMiningExhausted
}

// hash computes the hash for the specified nonce.
func (pow *ProofOfWork) hash(nonce uint64) string {
	return encodeHash(sha256.Sum256(pow.prepareData(nonce)))
}

// Validate checks the specified nonce produces the specified hash and that
// the hash satisfies the difficulty.
func (pow *ProofOfWork) Validate(nonce uint64, hash string) error {
	raw := sha256.Sum256(pow.prepareData(nonce))

	if got := encodeHash(raw); got != hash {
		return fmt.Errorf("block hash mismatch, got %s, exp %s", hash, got)
	}

	if !pow.isSolved(raw) {
		return fmt.Errorf("%s invalid block hash, difficulty %d not met", hash, pow.Difficulty)
	}

	return nil
}

// prepareData builds the text that is hashed for the specified nonce.
func (pow *ProofOfWork) prepareData(nonce uint64) []byte {
	var sb strings.Builder
	sb.Grow(len(pow.PrevBlockHash) + len(pow.ContentDigest) + 48)

	sb.WriteString(pow.PrevBlockHash)
	sb.WriteString(pow.ContentDigest)
	sb.WriteString(strconv.FormatInt(pow.TimeStamp, 10))
	sb.WriteString(strconv.FormatUint(uint64(pow.Difficulty), 10))
	sb.WriteString(strconv.FormatUint(nonce, 10))

	return []byte(sb.String())
}

// isSolved compares the hash, read as a big endian number, with the target.
func (pow *ProofOfWork) isSolved(hash [sha256.Size]byte) bool {
	return new(uint256.Int).SetBytes32(hash[:]).Lt(pow.target)
}

// =============================================================================

// Target returns 2^(256-difficulty), the value a block hash must stay below.
func Target(difficulty uint) (*uint256.Int, error) {
	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return nil, fmt.Errorf("difficulty %d out of range [%d, %d]", difficulty, MinDifficulty, MaxDifficulty)
	}

	return new(uint256.Int).Lsh(uint256.NewInt(1), 256-difficulty), nil
}

// isHashSolved reports whether the hex encoded hash is below the target for
// the specified difficulty.
func isHashSolved(difficulty uint, hash string) bool {
	target, err := Target(difficulty)
	if err != nil {
		return false
	}

	raw, err := digest.Decode(hash)
	if err != nil {
		return false
	}

	return new(uint256.Int).SetBytes32(raw[:]).Lt(target)
}

// ContentDigest commits to an ordered list of transactions by hashing the
// concatenation of their ids.
func ContentDigest(trans []Tx) string {
	var sb strings.Builder
	for _, tx := range trans {
		sb.WriteString(tx.ID)
	}

	return digest.SumString(sb.String())
}

func encodeHash(hash [sha256.Size]byte) string {
	return digest.Encode(hash[:])
}
