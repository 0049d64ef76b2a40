package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateCmd(opts *options) *cobra.Command {
	var address string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new ledger rewarding the genesis address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.create(cmd.Context(), address)
			if err != nil {
				return err
			}
			defer st.Shutdown()

			fmt.Fprintf(cmd.OutOrStdout(), "Done! genesis block %s\n", st.RetrieveTip())
			return nil
		},
	}

	createCmd.Flags().StringVarP(&address, "address", "a", "", "Address receiving the genesis reward.")
	createCmd.MarkFlagRequired("address")

	return createCmd
}
