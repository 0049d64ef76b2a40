package cmd

import (
	"fmt"
	"io"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

func newPrintCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print every block from the tip back to genesis.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.open(func(st *state.State) error {
				iter := st.Iterate()
				for !iter.Done() {
					block, err := iter.Next()
					if err != nil {
						return err
					}
					printBlock(cmd.OutOrStdout(), block)
				}
				return nil
			})
		},
	}
}

func printBlock(w io.Writer, block database.Block) {
	prev := block.PrevBlockHash
	if block.IsGenesis() {
		prev = "(genesis)"
	}

	pow := "true"
	if err := block.ValidateBlock(); err != nil {
		pow = fmt.Sprintf("false (%v)", err)
	}

	fmt.Fprintf(w, "Prev. hash: %s\n", prev)
	fmt.Fprintf(w, "Hash:       %s\n", block.Hash)
	fmt.Fprintf(w, "Timestamp:  %d\n", block.TimeStamp)
	fmt.Fprintf(w, "Nonce:      %d\n", block.Nonce)
	fmt.Fprintf(w, "Difficulty: %d\n", block.Difficulty)
	fmt.Fprintf(w, "PoW:        %s\n", pow)

	for _, tx := range block.Transactions {
		fmt.Fprintf(w, "  Tx %s\n", tx.ID)
		for _, in := range tx.VIn {
			if tx.IsCoinbase() {
				fmt.Fprintf(w, "    In  coinbase %q\n", in.ScriptSig)
				continue
			}
			fmt.Fprintf(w, "    In  %s:%d by %s\n", in.TxID, in.VOut, in.ScriptSig)
		}
		for i, out := range tx.VOut {
			fmt.Fprintf(w, "    Out %d: %d to %s\n", i, out.Value, out.ScriptPubKey)
		}
	}

	fmt.Fprintln(w)
}
