package state_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/utxochain/foundation/events"
	"github.com/ardanlabs/utxochain/foundation/logger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// testDifficulty keeps mining fast while still exercising the search.
const testDifficulty = 8

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Difficulty: testDifficulty,
	}
}

func newChain(t *testing.T, address string) (*state.State, *memory.Memory) {
	t.Helper()

	store := memory.New()

	st, err := state.Create(context.Background(), state.Config{
		Storage: store,
		Genesis: testGenesis(),
	}, address)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create the chain: %v", failed, err)
	}

	return st, store
}

func balanceOf(t *testing.T, st *state.State, address string) int64 {
	t.Helper()

	balance, err := st.QueryBalance(address)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to query the balance of %s: %v", failed, address, err)
	}

	return balance
}

// payout builds a coinbase style transaction carrying an arbitrary value.
func payout(t *testing.T, to string, value int64) database.Tx {
	t.Helper()

	tx, err := database.NewCoinbaseTx(to, fmt.Sprintf("payout of %d", value))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create coinbase tx: %v", failed, err)
	}

	tx.VOut[0].Value = value
	if err := tx.SetID(); err != nil {
		t.Fatalf("\t%s\tShould be able to set the tx id: %v", failed, err)
	}

	return tx
}

func lengthOf(t *testing.T, st *state.State) int {
	t.Helper()

	n, err := st.Length()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to get the chain length: %v", failed, err)
	}

	return n
}

// =============================================================================

func TestSend(t *testing.T) {
	t.Log("Given the need to move value between addresses.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen alice sends 4 of her genesis reward to bob.", testID)
		{
			st, _ := newChain(t, "alice")

			if b := balanceOf(t, st, "alice"); b != database.Subsidy {
				t.Fatalf("\t%s\tTest %d:\tShould start alice with the subsidy: got %d", failed, testID, b)
			}
			t.Logf("\t%s\tTest %d:\tShould start alice with the subsidy.", success, testID)

			block, err := st.Send(context.Background(), "alice", "bob", 4)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to send.", success, testID)

			if st.RetrieveTip() != block.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould move the tip to the new block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould move the tip to the new block.", success, testID)

			if a, b := balanceOf(t, st, "alice"), balanceOf(t, st, "bob"); a != 6 || b != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould leave alice with 6 and bob with 4: got %d and %d", failed, testID, a, b)
			}
			t.Logf("\t%s\tTest %d:\tShould leave alice with 6 and bob with 4.", success, testID)

			if n := lengthOf(t, st); n != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould have a chain of 2 blocks: got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould have a chain of 2 blocks.", success, testID)

			tx := block.Transactions[0]
			if len(tx.VIn) != 1 || len(tx.VOut) != 2 || tx.VOut[1].Value != 6 || tx.VOut[1].ScriptPubKey != "alice" {
				t.Fatalf("\t%s\tTest %d:\tShould pay the change back to alice: %s", failed, testID, tx)
			}
			t.Logf("\t%s\tTest %d:\tShould pay the change back to alice.", success, testID)

			trans, err := st.FindUnspentTransactions("alice")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to find unspent transactions: %v", failed, testID, err)
			}

			if len(trans) != 1 || trans[0].ID != tx.ID {
				t.Fatalf("\t%s\tTest %d:\tShould only report the transfer for alice: got %d", failed, testID, len(trans))
			}
			t.Logf("\t%s\tTest %d:\tShould only report the transfer for alice.", success, testID)

			n, err := st.ValidateChain()
			if err != nil || n != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould validate the chain: n[%d] err[%v]", failed, testID, n, err)
			}
			t.Logf("\t%s\tTest %d:\tShould validate the chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen value travels back and forth.", testID)
		{
			st, _ := newChain(t, "alice")
			ctx := context.Background()

			steps := []struct {
				from, to string
				amount   int64
			}{
				{"alice", "bob", 4},
				{"bob", "alice", 4},
				{"alice", "carol", 7},
				{"carol", "bob", 2},
			}

			for _, step := range steps {
				if _, err := st.Send(ctx, step.from, step.to, step.amount); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to send %d from %s to %s: %v", failed, testID, step.amount, step.from, step.to, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould be able to perform every transfer.", success, testID)

			exp := map[string]int64{"alice": 3, "bob": 2, "carol": 5}
			for address, want := range exp {
				if got := balanceOf(t, st, address); got != want {
					t.Fatalf("\t%s\tTest %d:\tShould have %d for %s: got %d", failed, testID, want, address, got)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould end with the expected balances.", success, testID)

			if n := lengthOf(t, st); n != len(steps)+1 {
				t.Fatalf("\t%s\tTest %d:\tShould have one block per transfer plus genesis: got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould have one block per transfer plus genesis.", success, testID)
		}
	}
}

func TestSendFailures(t *testing.T) {
	t.Log("Given the need to reject transfers that can't be made.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the sender doesn't hold enough value.", testID)
		{
			st, store := newChain(t, "alice")
			keys := store.Keys()
			tip := st.RetrieveTip()

			_, err := st.Send(context.Background(), "alice", "bob", 11)
			if !errors.Is(err, state.ErrInsufficientFunds) {
				t.Fatalf("\t%s\tTest %d:\tShould get insufficient funds: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get insufficient funds.", success, testID)

			if store.Keys() != keys || st.RetrieveTip() != tip || lengthOf(t, st) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not write anything to storage.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not write anything to storage.", success, testID)

			if a := balanceOf(t, st, "alice"); a != database.Subsidy {
				t.Fatalf("\t%s\tTest %d:\tShould leave alice untouched: got %d", failed, testID, a)
			}
			t.Logf("\t%s\tTest %d:\tShould leave alice untouched.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the transfer itself is malformed.", testID)
		{
			st, _ := newChain(t, "alice")

			tt := []struct {
				name     string
				from, to string
				amount   int64
			}{
				{"zero", "alice", "bob", 0},
				{"negative", "alice", "bob", -3},
				{"no-from", "", "bob", 1},
				{"no-to", "alice", "", 1},
			}

			for _, tst := range tt {
				_, err := st.Send(context.Background(), tst.from, tst.to, tst.amount)
				if !errors.Is(err, state.ErrInvalidTransfer) {
					t.Fatalf("\t%s\tTest %d:\tShould reject the %s transfer: %v", failed, testID, tst.name, err)
				}
				t.Logf("\t%s\tTest %d:\tShould reject the %s transfer.", success, testID, tst.name)
			}

			if n := lengthOf(t, st); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not write any block: got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould not write any block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the mining is cancelled.", testID)
		{
			st, _ := newChain(t, "alice")

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := st.Send(ctx, "alice", "bob", 1)
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest %d:\tShould get a cancelled error: %v", failed, testID, err)
			}

			if n := lengthOf(t, st); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not write any block: got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould stop without writing a block.", success, testID)
		}
	}
}

func TestSameBlockSpend(t *testing.T) {
	t.Log("Given the need to resolve spends within a single block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a block holds a transfer and a spend of its output.", testID)
		{
			st, _ := newChain(t, "alice")

			tx1, err := st.NewUTXOTransaction("alice", "bob", 4)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to build the transfer: %v", failed, testID, err)
			}

			tx2 := database.Tx{
				VIn:  []database.TxInput{{TxID: tx1.ID, VOut: 0, ScriptSig: "bob"}},
				VOut: []database.TxOutput{{Value: 4, ScriptPubKey: "carol"}},
			}
			if err := tx2.SetID(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to set the id: %v", failed, testID, err)
			}

			if _, err := st.MineNewBlock(context.Background(), []database.Tx{tx1, tx2}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

			exp := map[string]int64{"alice": 6, "bob": 0, "carol": 4}
			for address, want := range exp {
				if got := balanceOf(t, st, address); got != want {
					t.Fatalf("\t%s\tTest %d:\tShould have %d for %s: got %d", failed, testID, want, address, got)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould not count the output bob spent in the same block.", success, testID)
		}
	}
}

func TestSpendableOutputs(t *testing.T) {
	t.Log("Given the need to select outputs covering an amount.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen an address holds several outputs.", testID)
		{
			st, _ := newChain(t, "alice")
			ctx := context.Background()

			for range 2 {
				if _, err := st.MineReward(ctx, "alice", ""); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine a reward: %v", failed, testID, err)
				}
			}

			total, points, err := st.FindSpendableOutputs("alice", 15)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to find outputs: %v", failed, testID, err)
			}

			if total != 20 || len(points) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould stop once the amount is covered: total[%d] points[%d]", failed, testID, total, len(points))
			}
			t.Logf("\t%s\tTest %d:\tShould stop once the amount is covered.", success, testID)

			latest, err := st.RetrieveLatestBlock()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get the latest block: %v", failed, testID, err)
			}

			if points[0].TxID != latest.Transactions[0].ID || points[0].Index != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould select the newest output first: %s", failed, testID, points[0])
			}
			t.Logf("\t%s\tTest %d:\tShould select the newest output first.", success, testID)

			total, points, err = st.FindSpendableOutputs("alice", 100)
			if err != nil || total != 30 || len(points) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould return everything when short: total[%d] points[%d] err[%v]", failed, testID, total, len(points), err)
			}
			t.Logf("\t%s\tTest %d:\tShould return everything when short.", success, testID)

			utxo, err := st.FindUTXO("nobody")
			if err != nil || len(utxo) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould find nothing for an unknown address: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould find nothing for an unknown address.", success, testID)
		}
	}
}

func TestConservation(t *testing.T) {
	t.Log("Given the need to never create or destroy value outside coinbase.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen rewards and transfers are mixed.", testID)
		{
			st, _ := newChain(t, "alice")
			ctx := context.Background()

			if _, err := st.MineReward(ctx, "bob", "bonus"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine a reward: %v", failed, testID, err)
			}

			transfers := []struct {
				from, to string
				amount   int64
			}{
				{"alice", "bob", 3},
				{"bob", "carol", 12},
				{"carol", "alice", 5},
				{"alice", "dave", 9},
			}
			for _, tr := range transfers {
				if _, err := st.Send(ctx, tr.from, tr.to, tr.amount); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
				}
			}

			var sum int64
			for _, address := range []string{"alice", "bob", "carol", "dave"} {
				sum += balanceOf(t, st, address)
			}

			if sum != 2*database.Subsidy {
				t.Fatalf("\t%s\tTest %d:\tShould hold exactly two subsidies across addresses: got %d", failed, testID, sum)
			}
			t.Logf("\t%s\tTest %d:\tShould hold exactly two subsidies across addresses.", success, testID)

			blocks, err := st.QueryBlocks()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query blocks: %v", failed, testID, err)
			}

			for _, block := range blocks {
				for _, tx := range block.Transactions {
					if tx.IsCoinbase() {
						continue
					}

					var out int64
					for _, o := range tx.VOut {
						out += o.Value
					}

					in, err := inputValue(blocks, tx)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould resolve every input: %v", failed, testID, err)
					}

					if in != out {
						t.Fatalf("\t%s\tTest %d:\tShould balance inputs and outputs for tx %s: in[%d] out[%d]", failed, testID, tx.ID, in, out)
					}
				}
			}
			t.Logf("\t%s\tTest %d:\tShould balance inputs and outputs for every transfer.", success, testID)
		}
	}
}

func inputValue(blocks []database.Block, tx database.Tx) (int64, error) {
	index := make(map[string]database.Tx)
	for _, block := range blocks {
		for _, t := range block.Transactions {
			index[t.ID] = t
		}
	}

	var sum int64
	for _, in := range tx.VIn {
		prev, exists := index[in.TxID]
		if !exists || in.VOut < 0 || int(in.VOut) >= len(prev.VOut) {
			return 0, fmt.Errorf("unresolved input %s:%d", in.TxID, in.VOut)
		}
		sum += prev.VOut[in.VOut].Value
	}

	return sum, nil
}

func TestMineReward(t *testing.T) {
	t.Log("Given the need to reward an address with new value.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen bob is rewarded with a note.", testID)
		{
			st, _ := newChain(t, "alice")

			block, err := st.MineReward(context.Background(), "bob", "found a block")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the reward: %v", failed, testID, err)
			}

			tx := block.Transactions[0]
			if !tx.IsCoinbase() || tx.VIn[0].ScriptSig != "found a block" {
				t.Fatalf("\t%s\tTest %d:\tShould record the note in the coinbase input: %s", failed, testID, tx)
			}
			t.Logf("\t%s\tTest %d:\tShould record the note in the coinbase input.", success, testID)

			if b := balanceOf(t, st, "bob"); b != database.Subsidy {
				t.Fatalf("\t%s\tTest %d:\tShould credit bob with the subsidy: got %d", failed, testID, b)
			}
			t.Logf("\t%s\tTest %d:\tShould credit bob with the subsidy.", success, testID)

			if _, err := st.MineReward(context.Background(), "", ""); !errors.Is(err, state.ErrInvalidTransfer) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a reward without an address: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a reward without an address.", success, testID)

			if _, err := st.MineReward(context.Background(), "bob", "found a block"); !errors.Is(err, state.ErrInvalidTransfer) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a reward repeating an existing transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a reward repeating an existing transaction.", success, testID)

			if _, err := st.MineNewBlock(context.Background(), nil); !errors.Is(err, state.ErrNoTransactions) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an empty block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an empty block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a transaction carries outputs without value.", testID)
		{
			st, store := newChain(t, "alice")
			keys := store.Keys()

			for _, value := range []int64{0, -5} {
				if _, err := st.MineNewBlock(context.Background(), []database.Tx{payout(t, "bob", value)}); !errors.Is(err, state.ErrInvalidTransfer) {
					t.Fatalf("\t%s\tTest %d:\tShould reject an output of %d: %v", failed, testID, value, err)
				}
				t.Logf("\t%s\tTest %d:\tShould reject an output of %d.", success, testID, value)
			}

			if store.Keys() != keys {
				t.Fatalf("\t%s\tTest %d:\tShould not write a block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not write a block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the outputs of an address exceed an int64.", testID)
		{
			st, _ := newChain(t, "alice")

			if _, err := st.MineNewBlock(context.Background(), []database.Tx{payout(t, "bob", math.MaxInt64)}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the large output: %v", failed, testID, err)
			}

			if _, err := st.MineReward(context.Background(), "bob", ""); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reward bob: %v", failed, testID, err)
			}

			if _, err := st.QueryBalance("bob"); !errors.Is(err, state.ErrValueOverflow) {
				t.Fatalf("\t%s\tTest %d:\tShould report the overflowing balance: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the overflowing balance.", success, testID)

			if _, err := st.Send(context.Background(), "bob", "carol", math.MaxInt64); !errors.Is(err, state.ErrValueOverflow) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to spend the overflowing outputs: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to spend the overflowing outputs.", success, testID)
		}
	}
}

func TestCreateOpen(t *testing.T) {
	t.Log("Given the need to create and reopen a chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen using an in memory store.", testID)
		{
			store := memory.New()
			cfg := state.Config{Storage: store, Genesis: testGenesis()}

			if _, err := state.Open(cfg); !errors.Is(err, state.ErrChainNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould not open an empty store: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not open an empty store.", success, testID)

			st, err := state.Create(context.Background(), cfg, "alice")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the chain: %v", failed, testID, err)
			}

			genesisBlock, err := st.RetrieveLatestBlock()
			if err != nil || !genesisBlock.IsGenesis() || genesisBlock.Difficulty != testDifficulty {
				t.Fatalf("\t%s\tTest %d:\tShould start with the genesis block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould start with the genesis block.", success, testID)

			if _, err := state.Create(context.Background(), cfg, "bob"); !errors.Is(err, state.ErrChainExists) {
				t.Fatalf("\t%s\tTest %d:\tShould not create the chain twice: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not create the chain twice.", success, testID)

			reopened, err := state.Open(cfg)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the chain: %v", failed, testID, err)
			}

			if reopened.RetrieveTip() != st.RetrieveTip() {
				t.Fatalf("\t%s\tTest %d:\tShould open at the same tip.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould open at the same tip.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen reopened with a different difficulty.", testID)
		{
			_, store := newChain(t, "alice")

			reopened, err := state.Open(state.Config{Storage: store, Genesis: genesis.Genesis{Difficulty: 2}})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the chain: %v", failed, testID, err)
			}

			block, err := reopened.MineReward(context.Background(), "bob", "")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine a reward: %v", failed, testID, err)
			}

			if block.Difficulty != testDifficulty {
				t.Fatalf("\t%s\tTest %d:\tShould mine at the chain difficulty %d: got %d", failed, testID, testDifficulty, block.Difficulty)
			}
			t.Logf("\t%s\tTest %d:\tShould mine at the chain difficulty.", success, testID)

			if _, err := reopened.Send(context.Background(), "alice", "bob", 3); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
			}

			blocks, err := reopened.QueryBlocks()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query blocks: %v", failed, testID, err)
			}

			for _, b := range blocks {
				if b.Difficulty != testDifficulty {
					t.Fatalf("\t%s\tTest %d:\tShould keep one difficulty for every block: %s has %d", failed, testID, b.Hash, b.Difficulty)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould keep one difficulty for every block.", success, testID)

			if n, err := reopened.ValidateChain(); err != nil || n != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould validate the chain: n[%d] err[%v]", failed, testID, n, err)
			}
			t.Logf("\t%s\tTest %d:\tShould validate the chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the configuration is incomplete.", testID)
		{
			if _, err := state.Create(context.Background(), state.Config{Genesis: testGenesis()}, "alice"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould require storage.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould require storage.", success, testID)

			if _, err := state.Create(context.Background(), state.Config{Storage: memory.New()}, "alice"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould require a valid difficulty.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould require a valid difficulty.", success, testID)

			cfg := state.Config{Storage: memory.New(), Genesis: testGenesis()}
			if _, err := state.Create(context.Background(), cfg, ""); !errors.Is(err, state.ErrInvalidTransfer) {
				t.Fatalf("\t%s\tTest %d:\tShould require a genesis address: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould require a genesis address.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen using a disk store.", testID)
		{
			dbPath := filepath.Join(t.TempDir(), "zblock", "blocks.db")

			store, err := disk.New(dbPath)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the store: %v", failed, testID, err)
			}

			st, err := state.Create(context.Background(), state.Config{Storage: store, Genesis: testGenesis()}, "alice")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the chain: %v", failed, testID, err)
			}

			if _, err := st.Send(context.Background(), "alice", "bob", 4); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
			}

			if err := st.Shutdown(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to shutdown: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to send and shutdown.", success, testID)

			store, err = disk.New(dbPath)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reopen the store: %v", failed, testID, err)
			}

			st, err = state.Open(state.Config{Storage: store, Genesis: testGenesis()})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the chain: %v", failed, testID, err)
			}
			defer st.Shutdown()

			if a, b := balanceOf(t, st, "alice"), balanceOf(t, st, "bob"); a != 6 || b != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the balances across restarts: got %d and %d", failed, testID, a, b)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the balances across restarts.", success, testID)

			if n, err := st.ValidateChain(); err != nil || n != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould validate the reopened chain: n[%d] err[%v]", failed, testID, n, err)
			}
			t.Logf("\t%s\tTest %d:\tShould validate the reopened chain.", success, testID)
		}
	}
}

func TestCorruption(t *testing.T) {
	t.Log("Given the need to surface corrupted storage as errors.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the latest block can't be decoded.", testID)
		{
			st, store := newChain(t, "alice")
			store.Put(st.RetrieveTip(), []byte("garbage"))

			if _, err := st.QueryBalance("alice"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail to query the balance.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail to query the balance.", success, testID)

			if _, err := st.Send(context.Background(), "alice", "bob", 1); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail to send.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail to send.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a stored transaction was altered.", testID)
		{
			st, store := newChain(t, "alice")

			block, err := st.RetrieveLatestBlock()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get the latest block: %v", failed, testID, err)
			}

			block.Transactions[0].VOut[0].Value = 1_000
			data, err := database.Serialize(block)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to serialize: %v", failed, testID, err)
			}
			store.Put(block.Hash, data)

			if _, err := st.ValidateChain(); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould detect the altered transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould detect the altered transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a block is stored under the wrong key.", testID)
		{
			st, store := newChain(t, "alice")

			block, err := st.RetrieveLatestBlock()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get the latest block: %v", failed, testID, err)
			}

			data, err := database.Serialize(block)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to serialize: %v", failed, testID, err)
			}
			store.Put("0xfeed", data)
			store.Put(database.TipKey, []byte("0xfeed"))

			reopened, err := state.Open(state.Config{Storage: store, Genesis: testGenesis()})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the chain: %v", failed, testID, err)
			}

			if _, err := reopened.Length(); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould detect the mismatched key.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould detect the mismatched key.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a block links forward to the tip.", testID)
		{
			st, store := newChain(t, "alice")

			tip, err := st.MineReward(context.Background(), "bob", "")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine a reward: %v", failed, testID, err)
			}

			genesisBlock, err := store.GetBlock(tip.PrevBlockHash)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get the genesis block: %v", failed, testID, err)
			}

			genesisBlock.PrevBlockHash = tip.Hash
			data, err := database.Serialize(genesisBlock)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to serialize: %v", failed, testID, err)
			}
			store.Put(genesisBlock.Hash, data)

			if _, err := st.Length(); !errors.Is(err, state.ErrChainCycle) {
				t.Fatalf("\t%s\tTest %d:\tShould detect the cycle when counting blocks: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould detect the cycle when counting blocks.", success, testID)

			if _, err := st.QueryBalance("alice"); !errors.Is(err, state.ErrChainCycle) {
				t.Fatalf("\t%s\tTest %d:\tShould detect the cycle when resolving outputs: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould detect the cycle when resolving outputs.", success, testID)

			if _, err := st.MineReward(context.Background(), "carol", ""); !errors.Is(err, state.ErrChainCycle) {
				t.Fatalf("\t%s\tTest %d:\tShould detect the cycle before mining: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould detect the cycle before mining.", success, testID)

			if _, err := st.ValidateChain(); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail validation.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail validation.", success, testID)
		}
	}
}

func TestConcurrentSends(t *testing.T) {
	t.Log("Given the need to serialize writers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen alice sends to bob from several goroutines.", testID)
		{
			st, _ := newChain(t, "alice")

			const senders = 5

			var wg sync.WaitGroup
			errs := make(chan error, senders)

			for range senders {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := st.Send(context.Background(), "alice", "bob", 2); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to send from every goroutine.", success, testID)

			if a, b := balanceOf(t, st, "alice"), balanceOf(t, st, "bob"); a != 0 || b != 10 {
				t.Fatalf("\t%s\tTest %d:\tShould never spend an output twice: alice[%d] bob[%d]", failed, testID, a, b)
			}
			t.Logf("\t%s\tTest %d:\tShould never spend an output twice.", success, testID)

			if n, err := st.ValidateChain(); err != nil || n != senders+1 {
				t.Fatalf("\t%s\tTest %d:\tShould validate the chain: n[%d] err[%v]", failed, testID, n, err)
			}
			t.Logf("\t%s\tTest %d:\tShould validate the chain.", success, testID)
		}
	}
}

func TestEvents(t *testing.T) {
	t.Log("Given the need to report blockchain activity.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a logger and event stream are attached.", testID)
		{
			log, err := logger.New("TEST", filepath.Join(t.TempDir(), "test.log"))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct a logger: %v", failed, testID, err)
			}
			defer log.Sync()

			evts := events.New()
			ch := evts.Acquire("test", "state")

			ev := func(v string, args ...any) {
				s := fmt.Sprintf(v, args...)
				log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
				evts.Send(events.Topic(s), s)
			}

			st, err := state.Create(context.Background(), state.Config{
				Storage:   memory.New(),
				Genesis:   testGenesis(),
				EvHandler: ev,
			}, "alice")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the chain: %v", failed, testID, err)
			}

			if _, err := st.Send(context.Background(), "alice", "bob", 1); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
			}

			if len(ch) == 0 {
				t.Fatalf("\t%s\tTest %d:\tShould receive state events.", failed, testID)
			}

			for len(ch) > 0 {
				if e := <-ch; e.Topic != "state" {
					t.Fatalf("\t%s\tTest %d:\tShould only receive state events: %+v", failed, testID, e)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould only receive state events.", success, testID)
		}
	}
}
