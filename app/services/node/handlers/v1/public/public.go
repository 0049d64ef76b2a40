// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
	"github.com/ardanlabs/utxochain/foundation/events"
	"github.com/ardanlabs/utxochain/foundation/validate"
	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// statusMap classifies the expected ledger errors for the client.
var statusMap = errs.StatusMap{
	state.ErrInsufficientFunds: http.StatusBadRequest,
	state.ErrInvalidTransfer:   http.StatusBadRequest,
	state.ErrNoTransactions:    http.StatusBadRequest,
	state.ErrChainNotFound:     http.StatusNotFound,
}

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client. The optional
// topic query parameters restrict which events are streamed.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, r.URL.Query()["topic"]...)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(evt); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Blocks returns every block from the tip back to genesis.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlocks, err := h.State.QueryBlocks()
	if err != nil {
		return fmt.Errorf("query blocks: %w", err)
	}

	blocks := make([]block, len(dbBlocks))
	for i, dbBlock := range dbBlocks {
		blocks[i] = toBlock(dbBlock)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// LatestBlock returns the block at the tip of the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlock, err := h.State.RetrieveLatestBlock()
	if err != nil {
		return fmt.Errorf("latest block: %w", err)
	}

	return web.Respond(ctx, w, toBlock(dbBlock), http.StatusOK)
}

// ValidateChain checks every block from the tip back to genesis.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validation{
		Tip: h.State.RetrieveTip(),
	}

	n, err := h.State.ValidateChain()
	if err != nil {
		h.Log.Errorw("validate chain", "traceid", web.GetTraceID(ctx), "ERROR", err)
		return web.Respond(ctx, w, resp, http.StatusConflict)
	}

	resp.Valid = true
	resp.Length = n

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balance returns the balance and unspent outputs of an address.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	outs, err := h.State.QueryUnspentOutputs(address)
	if err != nil {
		return fmt.Errorf("query unspent outputs: address[%s]: %w", address, err)
	}

	return web.Respond(ctx, w, toBalance(address, h.State.RetrieveTip(), outs), http.StatusOK)
}

// Send moves value between addresses and mines the transfer into a block.
func (h Handlers) Send(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req SendRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	h.Log.Infow("send", "traceid", web.GetTraceID(ctx), "from", req.From, "to", req.To, "amount", req.Amount)

	dbBlock, err := h.State.Send(ctx, req.From, req.To, req.Amount)
	if err != nil {
		return statusMap.Classify(err)
	}

	return web.Respond(ctx, w, toBlock(dbBlock), http.StatusCreated)
}

// Reward mines a block paying the subsidy to an address.
func (h Handlers) Reward(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req RewardRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	h.Log.Infow("reward", "traceid", web.GetTraceID(ctx), "to", req.To)

	dbBlock, err := h.State.MineReward(ctx, req.To, req.Data)
	if err != nil {
		return statusMap.Classify(err)
	}

	return web.Respond(ctx, w, toBlock(dbBlock), http.StatusCreated)
}
