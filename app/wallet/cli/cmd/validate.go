package cmd

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every block in the ledger.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.open(func(st *state.State) error {
				n, err := st.ValidateChain()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Chain is valid: %d blocks\n", n)
				return nil
			})
		},
	}
}
