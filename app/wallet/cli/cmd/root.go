// Package cmd contains the ledger cli commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/utxochain/foundation/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options holds the flags shared by every command.
type options struct {
	dbPath      string
	genesisFile string
	verbose     bool
}

// Execute runs the cli with the specified arguments.
func Execute(args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return root.ExecuteContext(ctx)
}

// NewRootCmd constructs the command tree.
func NewRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:          "ledger",
		Short:        "Work with a local utxo ledger",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.dbPath, "db", "d", "zblock/blocks.db", "Path to the ledger file.")
	rootCmd.PersistentFlags().StringVarP(&opts.genesisFile, "genesis", "g", "", "Optional genesis json file.")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log mining events to stderr.")

	rootCmd.AddCommand(
		newCreateCmd(&opts),
		newBalanceCmd(&opts),
		newSendCmd(&opts),
		newRewardCmd(&opts),
		newPrintCmd(&opts),
		newValidateCmd(&opts),
	)

	return rootCmd
}

// config builds the state configuration from the flags. The returned
// function releases the logger.
func (opts *options) config() (state.Config, func(), error) {
	gen := genesis.Default()
	if opts.genesisFile != "" {
		var err error
		if gen, err = genesis.Load(opts.genesisFile); err != nil {
			return state.Config{}, nil, err
		}
	}

	cfg := state.Config{
		Genesis: gen,
	}

	if !opts.verbose {
		return cfg, func() {}, nil
	}

	log, err := logger.New("LEDGER", "stderr")
	if err != nil {
		return state.Config{}, nil, fmt.Errorf("constructing logger: %w", err)
	}

	cfg.EvHandler = evHandler(log)

	return cfg, func() { log.Sync() }, nil
}

func evHandler(log *zap.SugaredLogger) state.EventHandler {
	return func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}
}

// create makes a new chain in the ledger file.
func (opts *options) create(ctx context.Context, address string) (*state.State, error) {
	cfg, sync, err := opts.config()
	if err != nil {
		return nil, err
	}
	defer sync()

	store, err := disk.New(opts.dbPath)
	if err != nil {
		return nil, err
	}
	cfg.Storage = store

	st, err := state.Create(ctx, cfg, address)
	if err != nil {
		store.Close()
		return nil, err
	}

	return st, nil
}

// open loads the existing chain from the ledger file and calls the function.
func (opts *options) open(fn func(st *state.State) error) error {
	cfg, sync, err := opts.config()
	if err != nil {
		return err
	}
	defer sync()

	store, err := disk.New(opts.dbPath)
	if err != nil {
		return err
	}
	cfg.Storage = store

	st, err := state.Open(cfg)
	if err != nil {
		store.Close()
		return err
	}
	defer st.Shutdown()

	return fn(st)
}
