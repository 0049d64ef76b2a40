// This program provides a command line interface to a local ledger file.
package main

import (
	"os"

	"github.com/ardanlabs/utxochain/app/wallet/cli/cmd"
)

func main() {
	if err := cmd.Execute(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
