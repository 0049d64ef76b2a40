package public

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
)

// SendRequest is the payload for moving value between addresses.
type SendRequest struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

// RewardRequest is the payload for mining a coinbase block.
type RewardRequest struct {
	To   string `json:"to" validate:"required"`
	Data string `json:"data" validate:"max=256"`
}

// =============================================================================

type output struct {
	Value        int64  `json:"value"`
	ScriptPubKey string `json:"script_pub_key"`
}

type input struct {
	TxID      string `json:"txid"`
	VOut      int64  `json:"vout"`
	ScriptSig string `json:"script_sig"`
}

type tx struct {
	ID       string   `json:"id"`
	Coinbase bool     `json:"coinbase"`
	VIn      []input  `json:"vin"`
	VOut     []output `json:"vout"`
}

type block struct {
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"prev_block_hash"`
	TimeStamp     int64  `json:"timestamp"`
	Nonce         uint64 `json:"nonce"`
	Difficulty    uint   `json:"difficulty"`
	Transactions  []tx   `json:"transactions"`
}

type utxo struct {
	TxID  string `json:"txid"`
	Index int64  `json:"index"`
	Value int64  `json:"value"`
}

type balance struct {
	Address      string `json:"address"`
	Balance      int64  `json:"balance"`
	LatestBlock  string `json:"latest_block"`
	UnspentCount int    `json:"unspent_count"`
	Unspent      []utxo `json:"unspent"`
}

type validation struct {
	Valid  bool   `json:"valid"`
	Length int    `json:"length"`
	Tip    string `json:"tip"`
}

// =============================================================================

func toTx(dbTx database.Tx) tx {
	t := tx{
		ID:       dbTx.ID,
		Coinbase: dbTx.IsCoinbase(),
		VIn:      make([]input, len(dbTx.VIn)),
		VOut:     make([]output, len(dbTx.VOut)),
	}

	for i, in := range dbTx.VIn {
		t.VIn[i] = input{TxID: in.TxID, VOut: in.VOut, ScriptSig: in.ScriptSig}
	}

	for i, out := range dbTx.VOut {
		t.VOut[i] = output{Value: out.Value, ScriptPubKey: out.ScriptPubKey}
	}

	return t
}

func toBlock(dbBlock database.Block) block {
	b := block{
		Hash:          dbBlock.Hash,
		PrevBlockHash: dbBlock.PrevBlockHash,
		TimeStamp:     dbBlock.TimeStamp,
		Nonce:         dbBlock.Nonce,
		Difficulty:    dbBlock.Difficulty,
		Transactions:  make([]tx, len(dbBlock.Transactions)),
	}

	for i, dbTx := range dbBlock.Transactions {
		b.Transactions[i] = toTx(dbTx)
	}

	return b
}

func toBalance(address string, latest string, outs []state.UnspentOutput) balance {
	bal := balance{
		Address:      address,
		LatestBlock:  latest,
		UnspentCount: len(outs),
		Unspent:      make([]utxo, len(outs)),
	}

	for i, out := range outs {
		bal.Balance += out.Output.Value
		bal.Unspent[i] = utxo{TxID: out.TxID, Index: out.Index, Value: out.Output.Value}
	}

	return bal
}
