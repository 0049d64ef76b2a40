package cmd

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

func newSendCmd(opts *options) *cobra.Command {
	var (
		from   string
		to     string
		amount int64
	)

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send value from one address to another.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.open(func(st *state.State) error {
				block, err := st.Send(cmd.Context(), from, to, amount)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Success! block %s\n", block.Hash)
				return nil
			})
		},
	}

	sendCmd.Flags().StringVarP(&from, "from", "f", "", "Address sending the value.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address receiving the value.")
	sendCmd.Flags().Int64VarP(&amount, "amount", "m", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("from")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")

	return sendCmd
}
