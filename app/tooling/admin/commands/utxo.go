package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
)

// UTXO prints every unspent output of an address with its outpoint.
func UTXO(w io.Writer, args []string, st *state.State) error {
	if len(args) < 3 {
		return errors.New("usage: admin utxo <address>")
	}
	address := args[2]

	outs, err := st.QueryUnspentOutputs(address)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Tip: %s\n\n", st.RetrieveTip())

	var total int64
	for _, out := range outs {
		fmt.Fprintf(w, "Outpoint: %s  Value: %d\n", out.Outpoint, out.Output.Value)
		total += out.Output.Value
	}

	fmt.Fprintf(w, "\nAddress: %s  Outputs: %d  Total: %d\n", address, len(outs), total)
	return nil
}

// Transaction prints the transaction with the specified id and the block
// holding it.
func Transaction(w io.Writer, args []string, st *state.State) error {
	if len(args) < 3 {
		return errors.New("usage: admin tx <id>")
	}
	id := args[2]

	iter := st.Iterate()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			return err
		}

		for _, tx := range block.Transactions {
			if tx.ID != id {
				continue
			}

			fmt.Fprintf(w, "Block: %s\n", block.Hash)
			fmt.Fprintf(w, "Tx:    %s\n", tx)
			for _, in := range tx.VIn {
				fmt.Fprintf(w, "  In  %s:%d by %q\n", in.TxID, in.VOut, in.ScriptSig)
			}
			return nil
		}
	}

	return fmt.Errorf("transaction %s not found", id)
}
