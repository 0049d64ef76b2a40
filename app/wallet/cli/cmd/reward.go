package cmd

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

func newRewardCmd(opts *options) *cobra.Command {
	var (
		to   string
		data string
	)

	rewardCmd := &cobra.Command{
		Use:   "reward",
		Short: "Mine a block paying the subsidy to an address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.open(func(st *state.State) error {
				block, err := st.MineReward(cmd.Context(), to, data)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Success! block %s\n", block.Hash)
				return nil
			})
		},
	}

	rewardCmd.Flags().StringVarP(&to, "to", "t", "", "Address receiving the reward.")
	rewardCmd.Flags().StringVar(&data, "data", "", "Note stored in the coinbase input.")
	rewardCmd.MarkFlagRequired("to")

	return rewardCmd
}
