// Package broker defines the gateway capabilities the trading engine
// depends on and provides the Alpaca and simulator implementations.
//
// The engine never talks to a brokerage SDK directly: it receives these
// interfaces explicitly, which keeps every component substitutable with a
// test double.
package broker

import (
	"context"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

// AccountProvider returns the current account state. Implementations must
// fetch fresh on every call; results are snapshots that may already be
// stale when used.
type AccountProvider interface {
	GetAccount(ctx context.Context) (*domain.AccountSnapshot, error)
}

// QuoteProvider returns the latest quote for a symbol.
type QuoteProvider interface {
	GetLatestQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// OrderGateway submits orders to the exchange and exposes the read-only
// position operations that share the same brokerage connection.
type OrderGateway interface {
	// CreateOrder submits one order and returns the broker's view of it,
	// including fill status.
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)

	// GetPositions returns all currently open positions.
	GetPositions(ctx context.Context) ([]domain.Position, error)

	// CancelAllOrders cancels every open order on the account.
	CancelAllOrders(ctx context.Context) error

	// CloseAllPositions cancels open orders and then flattens all
	// positions, returning the liquidation orders.
	CloseAllPositions(ctx context.Context) ([]domain.Order, error)
}

// MarketClock reports whether the market is currently open.
type MarketClock interface {
	IsMarketOpen(ctx context.Context) (bool, error)
}

// Gateway aggregates every brokerage capability the bot uses.
type Gateway interface {
	AccountProvider
	QuoteProvider
	OrderGateway
	MarketClock

	// Name returns the gateway identifier (e.g. "alpaca", "simulator").
	Name() string
}
