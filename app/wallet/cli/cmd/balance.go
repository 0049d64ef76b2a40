package cmd

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

func newBalanceCmd(opts *options) *cobra.Command {
	var address string

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Print the balance of an address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.open(func(st *state.State) error {
				outs, err := st.FindUTXO(address)
				if err != nil {
					return err
				}

				var balance int64
				for _, out := range outs {
					balance += out.Value
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Balance of '%s': %d\n", address, balance)
				return nil
			})
		},
	}

	balanceCmd.Flags().StringVarP(&address, "address", "a", "", "Address to report on.")
	balanceCmd.MarkFlagRequired("address")

	return balanceCmd
}
