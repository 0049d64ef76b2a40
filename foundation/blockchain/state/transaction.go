package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// NewUTXOTransaction builds a transaction moving the amount from one address
// to another. Any value selected above the amount is returned to the sender
// as a change output.
func (s *State) NewUTXOTransaction(from string, to string, amount int64) (database.Tx, error) {
	switch {
	case from == "" || to == "":
		return database.Tx{}, fmt.Errorf("%w: from and to addresses are required", ErrInvalidTransfer)
	case amount <= 0:
		return database.Tx{}, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidTransfer, amount)
	}

	total, points, err := s.FindSpendableOutputs(from, amount)
	if err != nil {
		return database.Tx{}, err
	}

	if total < amount {
		return database.Tx{}, fmt.Errorf("%w: address[%s] balance[%d] needed[%d]", ErrInsufficientFunds, from, total, amount)
	}

	tx := database.Tx{
		VIn:  make([]database.TxInput, 0, len(points)),
		VOut: []database.TxOutput{{Value: amount, ScriptPubKey: to}},
	}

	for _, point := range points {
		tx.VIn = append(tx.VIn, database.TxInput{
			TxID:      point.TxID,
			VOut:      point.Index,
			ScriptSig: from,
		})
	}

	if change := total - amount; change > 0 {
		tx.VOut = append(tx.VOut, database.TxOutput{Value: change, ScriptPubKey: from})
	}

	if err := tx.SetID(); err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}

// Send builds a transfer and mines it into a block of its own. No block is
// written when the transfer cannot be built.
func (s *State) Send(ctx context.Context, from string, to string, amount int64) (database.Block, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.evHandler("state: Send: started: from[%s] to[%s] amount[%d]", from, to, amount)
	defer s.evHandler("state: Send: completed")

	tx, err := s.NewUTXOTransaction(from, to, amount)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: Send: tx[%s] inputs[%d] outputs[%d]", tx.ID, len(tx.VIn), len(tx.VOut))

	return s.mineNewBlock(ctx, []database.Tx{tx})
}
