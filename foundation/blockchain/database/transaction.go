package database

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
)

// Subsidy is the value created by every coinbase transaction.
const Subsidy = 10

// coinbaseVOut is the output index carried by the sentinel input of a
// coinbase transaction.
const coinbaseVOut = -1

// =============================================================================

// TxOutput represents value locked to an address.
type TxOutput struct {
	Value        int64  `json:"value"`          // Amount of value held by this output.
	ScriptPubKey string `json:"script_pub_key"` // Address able to unlock this output.
}

// CanBeUnlockedWith reports whether the specified credential unlocks the output.
func (out TxOutput) CanBeUnlockedWith(unlockData string) bool {
	return out.ScriptPubKey == unlockData
}

// TxInput references an output of a previous transaction being spent.
type TxInput struct {
	TxID      string `json:"txid"`       // Transaction holding the output being spent.
	VOut      int64  `json:"vout"`       // Index of the output inside that transaction.
	ScriptSig string `json:"script_sig"` // Credential used to unlock the referenced output.
}

// CanUnlockOutputWith reports whether the input was created by the
// specified credential.
func (in TxInput) CanUnlockOutputWith(unlockData string) bool {
	return in.ScriptSig == unlockData
}

// Outpoint identifies a single output on the chain.
type Outpoint struct {
	TxID  string `json:"txid"`
	Index int64  `json:"index"`
}

// String implements the fmt.Stringer interface.
func (op Outpoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxID, op.Index)
}

// =============================================================================

// Tx represents a transfer of value from a set of spent outputs to a set of
// new outputs.
type Tx struct {
	ID   string     `json:"id"`
	VIn  []TxInput  `json:"vin"`
	VOut []TxOutput `json:"vout"`
}

// NewCoinbaseTx constructs the reward transaction that creates new value for
// the specified address. When data is empty a reward note is used.
func NewCoinbaseTx(to string, data string) (Tx, error) {
	if data == "" {
		data = fmt.Sprintf("reward to '%s'", to)
	}

	tx := Tx{
		VIn: []TxInput{
			{
				TxID:      "",
				VOut:      coinbaseVOut,
				ScriptSig: data,
			},
		},
		VOut: []TxOutput{
			{
				Value:        Subsidy,
				ScriptPubKey: to,
			},
		},
	}

	if err := tx.SetID(); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// SetID computes the identity of the transaction from its inputs and outputs.
// The id is cleared before hashing so the result only depends on the content.
func (tx *Tx) SetID() error {
	tx.ID = ""

	id, err := digest.Hash(tx)
	if err != nil {
		return fmt.Errorf("set tx id: %w", err)
	}

	tx.ID = id
	return nil
}

// ValidateID checks the id matches the content of the transaction.
func (tx Tx) ValidateID() error {
	cpy := tx
	if err := cpy.SetID(); err != nil {
		return err
	}

	if cpy.ID != tx.ID {
		return fmt.Errorf("transaction id mismatch, got %s, exp %s", tx.ID, cpy.ID)
	}

	return nil
}

// IsCoinbase reports whether the transaction is a reward transaction with a
// single sentinel input.
func (tx Tx) IsCoinbase() bool {
	return len(tx.VIn) == 1 && tx.VIn[0].TxID == "" && tx.VIn[0].VOut == coinbaseVOut
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: vin[%d] vout[%d]", tx.ID, len(tx.VIn), len(tx.VOut))
	for _, out := range tx.VOut {
		fmt.Fprintf(&sb, " %s:%d", out.ScriptPubKey, out.Value)
	}
	return sb.String()
}
