package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/broker"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

// ExecuteParams describes one validated trade to execute.
type ExecuteParams struct {
	Symbol string
	Action domain.Action
	Qty    int64
	// StopLoss, when set, triggers a protective stop order after the
	// primary order fills.
	StopLoss *decimal.Decimal
}

// Executor sequences a primary market order and a dependent protective
// stop order through the gateway.
//
// The two submissions are strictly sequential: the protective order is
// only attempted once the primary order's fill status is known. Execute
// returns a result value on every path and never retries — a failed
// protective submission leaves an open, unprotected position, which is
// reported distinctly so the caller can raise an urgent alert instead of
// a routine trade failure.
type Executor struct {
	gateway broker.OrderGateway
	log     *slog.Logger
}

// NewExecutor creates an Executor bound to the given order gateway.
func NewExecutor(gateway broker.OrderGateway, log *slog.Logger) *Executor {
	return &Executor{
		gateway: gateway,
		log:     log.With("component", "order_executor"),
	}
}

// Execute runs one execution attempt and reports the tagged outcome.
func (e *Executor) Execute(ctx context.Context, p ExecuteParams) domain.OrderResult {
	now := time.Now()

	if p.Symbol == "" {
		return rejected("symbol is required", nil, now)
	}
	side, ok := sideFor(p.Action)
	if !ok {
		return rejected(fmt.Sprintf("action %q is not executable", p.Action), nil, now)
	}
	if p.Qty < 1 {
		return rejected(fmt.Sprintf("quantity must be at least 1, got %d", p.Qty), nil, now)
	}

	primary, err := e.gateway.CreateOrder(ctx, domain.OrderRequest{
		Symbol:      p.Symbol,
		Side:        side,
		Qty:         p.Qty,
		Type:        domain.OrderTypeMarket,
		TimeInForce: domain.TimeInForceDay,
	})
	if err != nil {
		e.log.Error("primary order submission failed", "symbol", p.Symbol, "error", err)
		return rejected(err.Error(), nil, now)
	}

	if !primary.Filled() {
		e.log.Warn("primary order not filled", "symbol", p.Symbol, "status", primary.Status)
		return rejected(fmt.Sprintf("primary order status %q", primary.Status), primary, now)
	}

	e.log.Info("primary order filled",
		"symbol", p.Symbol, "side", side, "qty", p.Qty, "order_id", primary.ID)

	// No protective order requested: the trade is complete.
	if p.StopLoss == nil {
		return domain.OrderResult{
			Success:   true,
			State:     domain.ExecutionExecuted,
			MainOrder: primary,
			Timestamp: now,
		}
	}

	stopPrice := *p.StopLoss
	protective, err := e.gateway.CreateOrder(ctx, domain.OrderRequest{
		Symbol:      p.Symbol,
		Side:        side.Opposite(),
		Qty:         p.Qty,
		Type:        domain.OrderTypeStop,
		TimeInForce: domain.TimeInForceGTC,
		StopPrice:   &stopPrice,
	})
	if err != nil {
		// The position is open and unprotected. This must not collapse
		// into a generic failure: the primary fill and the protective
		// error are reported separately.
		e.log.Error("protective order failed after fill",
			"symbol", p.Symbol, "order_id", primary.ID, "error", err)
		return domain.OrderResult{
			Success:        true,
			State:          domain.ExecutionPartiallyProtected,
			MainOrder:      primary,
			PartialFailure: true,
			Error:          fmt.Sprintf("%v: %v", domain.ErrPartialExecution, err),
			Timestamp:      now,
		}
	}

	e.log.Info("protective order placed",
		"symbol", p.Symbol, "stop_price", stopPrice.String(), "order_id", protective.ID)

	return domain.OrderResult{
		Success:       true,
		State:         domain.ExecutionExecuted,
		MainOrder:     primary,
		StopLossOrder: protective,
		Timestamp:     now,
	}
}

// Positions is a read-only pass-through to the gateway.
func (e *Executor) Positions(ctx context.Context) ([]domain.Position, error) {
	return e.gateway.GetPositions(ctx)
}

// Liquidate cancels all open orders and flattens every position.
func (e *Executor) Liquidate(ctx context.Context) ([]domain.Order, error) {
	e.log.Warn("liquidating all positions")
	return e.gateway.CloseAllPositions(ctx)
}

func sideFor(a domain.Action) (domain.Side, bool) {
	switch a {
	case domain.ActionBuy:
		return domain.SideBuy, true
	case domain.ActionSell:
		return domain.SideSell, true
	default:
		return "", false
	}
}

func rejected(msg string, primary *domain.Order, ts time.Time) domain.OrderResult {
	return domain.OrderResult{
		Success:   false,
		State:     domain.ExecutionRejected,
		MainOrder: primary,
		Error:     msg,
		Timestamp: ts,
	}
}
