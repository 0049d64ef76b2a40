// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
)

// Genesis writes a genesis file holding the default settings, optionally
// with a different difficulty.
func Genesis(w io.Writer, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: admin genesis <path> [difficulty]")
	}
	path := args[2]

	gen := genesis.Default()
	if len(args) > 3 {
		difficulty, err := strconv.ParseUint(args[3], 10, 8)
		if err != nil {
			return fmt.Errorf("parsing difficulty: %w", err)
		}
		gen.Difficulty = uint(difficulty)
	}

	if err := gen.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	fmt.Fprintf(w, "Genesis written to %s: difficulty %d\n", path, gen.Difficulty)
	return nil
}
