package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/util"
)

// Read-path retry policy. Order submissions are never retried: a timed
// out PlaceOrder may still have been accepted upstream, and a duplicate
// entry is worse than a skipped cycle.
const (
	readAttempts  = 3
	readBaseDelay = 200 * time.Millisecond
)

// Compile-time interface check.
var _ Gateway = (*AlpacaGateway)(nil)

// AlpacaGateway implements Gateway against the Alpaca trading and
// market-data APIs.
type AlpacaGateway struct {
	trading *alpaca.Client
	md      *marketdata.Client
}

// NewAlpacaGateway creates an AlpacaGateway configured with the given
// credentials and API endpoints. baseURL points at the trading API,
// dataURL at the market-data API; empty values fall back to the SDK
// defaults.
func NewAlpacaGateway(apiKey, apiSecret, baseURL, dataURL string) *AlpacaGateway {
	tradingOpts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		tradingOpts.BaseURL = baseURL
	}

	mdOpts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		mdOpts.BaseURL = dataURL
	}

	return &AlpacaGateway{
		trading: alpaca.NewClient(tradingOpts),
		md:      marketdata.NewClient(mdOpts),
	}
}

// Name returns "alpaca".
func (g *AlpacaGateway) Name() string { return "alpaca" }

// MarketData exposes the underlying market-data client for the signal
// pipeline (bars, news), which shares the gateway's credentials.
func (g *AlpacaGateway) MarketData() *marketdata.Client { return g.md }

// GetAccount fetches the current account snapshot from the trading API.
func (g *AlpacaGateway) GetAccount(ctx context.Context) (*domain.AccountSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var acct *alpaca.Account
	err := util.Retry(ctx, readAttempts, readBaseDelay, func() error {
		var err error
		acct, err = g.trading.GetAccount()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: GetAccount: %w", domain.ErrService, err)
	}

	return &domain.AccountSnapshot{
		PortfolioValue: acct.PortfolioValue,
		BuyingPower:    acct.BuyingPower,
	}, nil
}

// GetLatestQuote fetches the latest NBBO quote for symbol.
func (g *AlpacaGateway) GetLatestQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var q *marketdata.Quote
	err := util.Retry(ctx, readAttempts, readBaseDelay, func() error {
		var err error
		q, err = g.md.GetLatestQuote(symbol, marketdata.GetLatestQuoteRequest{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: GetLatestQuote %s: %w", domain.ErrService, symbol, err)
	}

	return &domain.Quote{
		Symbol:   symbol,
		AskPrice: decimal.NewFromFloat(q.AskPrice),
		BidPrice: decimal.NewFromFloat(q.BidPrice),
	}, nil
}

// CreateOrder submits an order through the trading API and returns the
// broker's view of it.
func (g *AlpacaGateway) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qty := decimal.NewFromInt(req.Qty)
	placeReq := alpaca.PlaceOrderRequest{
		Symbol:      req.Symbol,
		Qty:         &qty,
		Side:        alpaca.Side(req.Side),
		Type:        alpaca.OrderType(req.Type),
		TimeInForce: alpaca.TimeInForce(req.TimeInForce),
	}
	if req.StopPrice != nil {
		stop := *req.StopPrice
		placeReq.StopPrice = &stop
	}

	order, err := g.trading.PlaceOrder(placeReq)
	if err != nil {
		return nil, fmt.Errorf("%w: PlaceOrder %s %s: %w", domain.ErrService, req.Side, req.Symbol, err)
	}

	return fromAlpacaOrder(order), nil
}

// GetPositions returns all open positions on the account.
func (g *AlpacaGateway) GetPositions(ctx context.Context) ([]domain.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	positions, err := g.trading.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("%w: GetPositions: %w", domain.ErrService, err)
	}

	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		pos := domain.Position{
			Symbol:        p.Symbol,
			Qty:           p.Qty,
			AvgEntryPrice: p.AvgEntryPrice,
		}
		if p.CurrentPrice != nil {
			pos.CurrentPrice = *p.CurrentPrice
		}
		if p.UnrealizedPL != nil {
			pos.UnrealizedPL = *p.UnrealizedPL
		}
		out = append(out, pos)
	}
	return out, nil
}

// CancelAllOrders cancels every open order on the account.
func (g *AlpacaGateway) CancelAllOrders(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := g.trading.CancelAllOrders(); err != nil {
		return fmt.Errorf("%w: CancelAllOrders: %w", domain.ErrService, err)
	}
	return nil
}

// CloseAllPositions cancels open orders and flattens every position.
func (g *AlpacaGateway) CloseAllPositions(ctx context.Context) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	orders, err := g.trading.CloseAllPositions(alpaca.CloseAllPositionsRequest{
		CancelOrders: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: CloseAllPositions: %w", domain.ErrService, err)
	}

	out := make([]domain.Order, 0, len(orders))
	for i := range orders {
		out = append(out, *fromAlpacaOrder(&orders[i]))
	}
	return out, nil
}

// IsMarketOpen reports the market state from the Alpaca clock endpoint.
func (g *AlpacaGateway) IsMarketOpen(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	clock, err := g.trading.GetClock()
	if err != nil {
		return false, fmt.Errorf("%w: GetClock: %w", domain.ErrService, err)
	}
	return clock.IsOpen, nil
}

// fromAlpacaOrder converts the SDK order into the domain view.
func fromAlpacaOrder(o *alpaca.Order) *domain.Order {
	order := &domain.Order{
		ID:          o.ID,
		Symbol:      o.Symbol,
		Side:        domain.Side(o.Side),
		Type:        domain.OrderType(o.Type),
		TimeInForce: domain.TimeInForce(o.TimeInForce),
		Status:      domain.OrderStatus(o.Status),
		SubmittedAt: o.SubmittedAt,
	}
	if o.Qty != nil {
		order.Qty = o.Qty.IntPart()
	}
	if o.FilledAvgPrice != nil {
		price := *o.FilledAvgPrice
		order.FilledAvgPrice = &price
	}
	if o.StopPrice != nil {
		stop := *o.StopPrice
		order.StopPrice = &stop
	}
	return order
}
