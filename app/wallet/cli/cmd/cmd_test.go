package cmd_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/utxochain/app/wallet/cli/cmd"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type ledger struct {
	dbPath  string
	genesis string
}

func newLedger(t *testing.T) ledger {
	dir := t.TempDir()

	gen := filepath.Join(dir, "genesis.json")
	if err := os.WriteFile(gen, []byte(`{"difficulty": 8}`), 0600); err != nil {
		t.Fatalf("Should be able to write the genesis file: %v", err)
	}

	return ledger{
		dbPath:  filepath.Join(dir, "blocks.db"),
		genesis: gen,
	}
}

func (l ledger) run(args ...string) (string, error) {
	var out bytes.Buffer

	root := cmd.NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", l.dbPath, "--genesis", l.genesis}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestLedgerCommands(t *testing.T) {
	l := newLedger(t)

	t.Log("Given the need to run the ledger from the command line.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen working through a create, send and print session.", testID)
		{
			if _, err := l.run("balance", "--address", "alice"); !errors.Is(err, state.ErrChainNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould fail before the ledger exists: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail before the ledger exists.", success, testID)

			out, err := l.run("create", "--address", "alice")
			if err != nil || !strings.HasPrefix(out, "Done!") {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the ledger: %q %v", failed, testID, out, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to create the ledger.", success, testID)

			if _, err := l.run("create", "--address", "bob"); !errors.Is(err, state.ErrChainExists) {
				t.Fatalf("\t%s\tTest %d:\tShould not create the ledger twice: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not create the ledger twice.", success, testID)

			out, err = l.run("send", "--from", "alice", "--to", "bob", "--amount", "4")
			if err != nil || !strings.HasPrefix(out, "Success!") {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send: %q %v", failed, testID, out, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to send.", success, testID)

			balances := map[string]string{
				"alice": "Balance of 'alice': 6\n",
				"bob":   "Balance of 'bob': 4\n",
			}
			for address, exp := range balances {
				out, err := l.run("balance", "--address", address)
				if err != nil || out != exp {
					t.Fatalf("\t%s\tTest %d:\tShould print %q: got %q %v", failed, testID, exp, out, err)
				}
				t.Logf("\t%s\tTest %d:\tShould print %q.", success, testID, strings.TrimSpace(exp))
			}

			if _, err := l.run("send", "--from", "bob", "--to", "carol", "--amount", "5"); !errors.Is(err, state.ErrInsufficientFunds) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to overspend: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to overspend.", success, testID)

			if _, err := l.run("reward", "--to", "carol", "--data", "welcome"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reward carol: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to reward carol.", success, testID)

			out, err = l.run("print")
			if err != nil || strings.Count(out, "Prev. hash:") != 3 || !strings.Contains(out, "(genesis)") {
				t.Fatalf("\t%s\tTest %d:\tShould print 3 blocks ending at genesis: %v\n%s", failed, testID, err, out)
			}
			t.Logf("\t%s\tTest %d:\tShould print 3 blocks ending at genesis.", success, testID)

			out, err = l.run("validate")
			if err != nil || out != "Chain is valid: 3 blocks\n" {
				t.Fatalf("\t%s\tTest %d:\tShould validate the ledger: %q %v", failed, testID, out, err)
			}
			t.Logf("\t%s\tTest %d:\tShould validate the ledger.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a required flag is missing.", testID)
		{
			if _, err := l.run("send", "--from", "alice", "--to", "bob"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould require the amount.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould require the amount.", success, testID)
		}
	}
}
