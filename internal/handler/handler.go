// Package handler replays newline-delimited JSON commands against an
// engine and writes one JSON line per command.
package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/efreitasn/tradingcore/internal/domain"
	"github.com/efreitasn/tradingcore/internal/engine"
)

const maxLineSize = 1 << 20

// command is one input line: {"command": "place", "args": {...}}.
type command struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args"`
}

// successResponse wraps the result of a command that succeeded.
type successResponse struct {
	Command string `json:"command"`
	Result  any    `json:"result"`
}

type commandFunc func(args json.RawMessage) (any, error)

// Handler dispatches commands to an engine.
type Handler struct {
	engine *engine.Engine
	log    *zap.Logger
	routes map[string]commandFunc
}

// New creates a Handler for e. A nil logger disables command logging.
func New(e *engine.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{engine: e, log: log}

	h.routes = map[string]commandFunc{
		// Accounts.
		"deposit":         h.Deposit,
		"withdraw":        h.Withdraw,
		"deposit_shares":  h.DepositShares,
		"withdraw_shares": h.WithdrawShares,
		"portfolio":       h.GetPortfolio,

		// Orders.
		"place":       h.PlaceOrder,
		"cancel":      h.CancelOrder,
		"status":      h.GetOrder,
		"list_orders": h.ListOrders,

		// Market data.
		"depth":  h.GetDepth,
		"quote":  h.GetQuote,
		"trades": h.GetTrades,
	}
	return h
}

// Run reads commands from r until EOF or ctx is cancelled and writes each
// result to w. Blank lines and lines starting with '#' are skipped. It
// returns the number of commands handled.
func (h *Handler) Run(ctx context.Context, r io.Reader, w io.Writer) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	handled := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return handled, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		h.Handle(w, line)
		handled++
	}
	return handled, scanner.Err()
}

// Handle executes a single command line and writes its result to w.
func (h *Handler) Handle(w io.Writer, line []byte) {
	start := time.Now()

	var cmd command
	if err := ParseJSON(line, &cmd); err != nil {
		WriteError(w, "", "invalid_request", err.Error())
		return
	}

	fn, ok := h.routes[cmd.Command]
	if !ok {
		WriteError(w, cmd.Command, "unknown_command", fmt.Sprintf("unknown command %q", cmd.Command))
		return
	}

	status := "ok"
	result, err := fn(cmd.Args)
	if err != nil {
		code, message := mapError(err)
		if code == "internal_error" {
			h.log.Error("command failed", zap.String("command", cmd.Command), zap.Error(err))
		}
		WriteError(w, cmd.Command, code, message)
		status = code
	} else {
		WriteJSON(w, successResponse{Command: cmd.Command, Result: result})
	}

	h.log.Debug("command",
		zap.String("command", cmd.Command),
		zap.String("status", status),
		zap.Duration("duration", time.Since(start)),
	)
}

// requestError marks malformed command arguments.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

// parseArgs decodes command arguments, tagging failures as request errors.
func parseArgs(args json.RawMessage, v any) error {
	if err := ParseJSON(args, v); err != nil {
		return &requestError{err: err}
	}
	return nil
}

// mapError maps engine errors to an error code and message.
func mapError(err error) (string, string) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return "invalid_request", reqErr.Error()
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return "validation_error", validationErr.Message
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return "order_not_found", err.Error()
	case errors.Is(err, domain.ErrAlreadyTerminal):
		return "order_not_cancellable", err.Error()
	case errors.Is(err, domain.ErrDuplicateOrder):
		return "duplicate_order_id", err.Error()
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds", err.Error()
	case errors.Is(err, domain.ErrInsufficientShares):
		return "insufficient_shares", err.Error()
	case errors.Is(err, domain.ErrSymbolNotFound):
		return "symbol_not_found", err.Error()
	default:
		return "internal_error", "An unexpected error occurred"
	}
}
