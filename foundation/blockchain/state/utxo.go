package state

import (
	"errors"
	"fmt"
	"math"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// ErrValueOverflow is returned when the outputs of an address add up to more
// than an int64 can hold.
var ErrValueOverflow = errors.New("value overflow")

// UnspentOutput is an output together with the location it can be spent from.
type UnspentOutput struct {
	database.Outpoint
	Output database.TxOutput
}

// FindUnspentTransactions returns the transactions holding at least one
// output the address can unlock that no later input has spent. Transactions
// are ordered from the tip back to genesis and appear once each.
func (s *State) FindUnspentTransactions(address string) ([]database.Tx, error) {
	_, trans, err := s.findUnspent(address)
	if err != nil {
		return nil, err
	}

	return trans, nil
}

// FindSpendableOutputs collects unspent outputs of the address in scan order
// until their total covers the amount. The returned total may be less than
// the amount when the address does not hold enough value.
func (s *State) FindSpendableOutputs(address string, amount int64) (int64, []database.Outpoint, error) {
	outs, _, err := s.findUnspent(address)
	if err != nil {
		return 0, nil, err
	}

	var total int64
	var points []database.Outpoint

	for _, out := range outs {
		if total >= amount {
			break
		}
		if total, err = addValue(total, out.Output.Value); err != nil {
			return 0, nil, fmt.Errorf("address[%s]: %w", address, err)
		}
		points = append(points, out.Outpoint)
	}

	return total, points, nil
}

// FindUTXO returns every unspent output the address can unlock.
func (s *State) FindUTXO(address string) ([]database.TxOutput, error) {
	outs, _, err := s.findUnspent(address)
	if err != nil {
		return nil, err
	}

	utxo := make([]database.TxOutput, len(outs))
	for i, out := range outs {
		utxo[i] = out.Output
	}

	return utxo, nil
}

// QueryUnspentOutputs returns every unspent output of the address along with
// its outpoint.
func (s *State) QueryUnspentOutputs(address string) ([]UnspentOutput, error) {
	outs, _, err := s.findUnspent(address)
	return outs, err
}

// QueryBalance returns the sum of the unspent outputs of the address.
func (s *State) QueryBalance(address string) (int64, error) {
	outs, _, err := s.findUnspent(address)
	if err != nil {
		return 0, err
	}

	var balance int64
	for _, out := range outs {
		if balance, err = addValue(balance, out.Output.Value); err != nil {
			return 0, fmt.Errorf("address[%s]: %w", address, err)
		}
	}

	return balance, nil
}

// =============================================================================

// addValue adds an output value to a running total.
func addValue(total int64, value int64) (int64, error) {
	if value < 0 || total > math.MaxInt64-value {
		return 0, fmt.Errorf("adding %d to %d: %w", value, total, ErrValueOverflow)
	}

	return total + value, nil
}

// findUnspent walks the chain from the tip to genesis, visiting the
// transactions of each block from last to first. Spends are recorded before
// the outputs they consume are reached, so an output is reported only when
// nothing later on the chain spent it.
func (s *State) findUnspent(address string) ([]UnspentOutput, []database.Tx, error) {
	spent := make(map[string]map[int64]struct{})

	var outs []UnspentOutput
	var trans []database.Tx

	iter := s.Iterate()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			return nil, nil, err
		}

		for i := len(block.Transactions) - 1; i >= 0; i-- {
			tx := block.Transactions[i]

			var contributed bool
			for idx, out := range tx.VOut {
				if _, isSpent := spent[tx.ID][int64(idx)]; isSpent {
					continue
				}

				if out.CanBeUnlockedWith(address) {
					outs = append(outs, UnspentOutput{
						Outpoint: database.Outpoint{TxID: tx.ID, Index: int64(idx)},
						Output:   out,
					})
					contributed = true
				}
			}

			if contributed {
				trans = append(trans, tx)
			}

			if tx.IsCoinbase() {
				continue
			}

			for _, in := range tx.VIn {
				if !in.CanUnlockOutputWith(address) {
					continue
				}

				if spent[in.TxID] == nil {
					spent[in.TxID] = make(map[int64]struct{})
				}
				spent[in.TxID][in.VOut] = struct{}{}
			}
		}
	}

	return outs, trans, nil
}
