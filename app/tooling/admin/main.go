// This program performs administrative tasks against a local ledger file.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/utxochain/app/tooling/admin/commands"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/utxochain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

// dbPath is the ledger file the admin commands inspect.
const dbPath = "zblock/blocks.db"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("admin", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	log.Infow("admin", "version", build, "args", os.Args[1:])

	if len(os.Args) < 2 {
		return errors.New("usage: admin genesis <path> [difficulty] | utxo <address> | tx <id>")
	}

	// The genesis command doesn't need an existing ledger.
	if os.Args[1] == "genesis" {
		return commands.Genesis(os.Stdout, os.Args)
	}

	store, err := disk.New(dbPath)
	if err != nil {
		return err
	}

	st, err := state.Open(state.Config{
		Storage:   store,
		Genesis:   genesis.Default(),
		EvHandler: func(v string, args ...any) {
			log.Infow(fmt.Sprintf(v, args...))
		},
	})
	if err != nil {
		store.Close()
		return err
	}
	defer st.Shutdown()

	return processCommands(os.Args, st)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string, st *state.State) error {
	switch args[1] {
	case "utxo":
		if err := commands.UTXO(os.Stdout, args, st); err != nil {
			return fmt.Errorf("getting unspent outputs: %w", err)
		}
	case "tx":
		if err := commands.Transaction(os.Stdout, args, st); err != nil {
			return fmt.Errorf("getting transaction: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}
