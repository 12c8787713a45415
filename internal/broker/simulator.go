package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

// Compile-time interface check.
var _ Gateway = (*Simulator)(nil)

// Simulator implements Gateway in memory for paper trading and tests. It
// fills market orders immediately at the configured mark price, accepts
// stop orders without filling them, and keeps positions and cash
// consistent across fills.
type Simulator struct {
	mu sync.Mutex

	cash       decimal.Decimal
	marks      map[string]decimal.Decimal
	positions  map[string]*domain.Position
	orders     []*domain.Order
	marketOpen bool
	nextID     int

	// failures maps an order type to an error that the next CreateOrder of
	// that type returns, simulating a gateway failure.
	failures map[domain.OrderType]error
}

// NewSimulator creates a Simulator with the given starting cash. The
// market starts open.
func NewSimulator(startingCash decimal.Decimal) *Simulator {
	return &Simulator{
		cash:       startingCash,
		marks:      make(map[string]decimal.Decimal),
		positions:  make(map[string]*domain.Position),
		marketOpen: true,
		failures:   make(map[domain.OrderType]error),
	}
}

// Name returns "simulator".
func (s *Simulator) Name() string { return "simulator" }

// SetPrice sets the mark price used for quotes and fills of symbol.
func (s *Simulator) SetPrice(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[symbol] = price
}

// SetMarketOpen toggles the simulated market clock.
func (s *Simulator) SetMarketOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marketOpen = open
}

// FailOrders makes the next CreateOrder of the given type return err.
// Passing a nil error clears the injection.
func (s *Simulator) FailOrders(t domain.OrderType, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, t)
		return
	}
	s.failures[t] = err
}

// GetAccount reports cash plus marked-to-market positions.
func (s *Simulator) GetAccount(_ context.Context) (*domain.AccountSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	portfolio := s.cash
	for _, p := range s.positions {
		portfolio = portfolio.Add(p.Qty.Mul(s.markLocked(p.Symbol)))
	}
	return &domain.AccountSnapshot{
		PortfolioValue: portfolio,
		BuyingPower:    s.cash,
	}, nil
}

// GetLatestQuote returns the mark price as both bid and ask.
func (s *Simulator) GetLatestQuote(_ context.Context, symbol string) (*domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mark, ok := s.marks[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no mark price for %s", domain.ErrService, symbol)
	}
	return &domain.Quote{Symbol: symbol, AskPrice: mark, BidPrice: mark}, nil
}

// CreateOrder fills market orders at the mark price and books stop orders
// as accepted.
func (s *Simulator) CreateOrder(_ context.Context, req domain.OrderRequest) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failures[req.Type]; ok {
		return nil, fmt.Errorf("%w: %s order: %w", domain.ErrService, req.Type, err)
	}
	if req.Qty <= 0 {
		return nil, fmt.Errorf("%w: order quantity must be positive", domain.ErrInput)
	}

	s.nextID++
	order := &domain.Order{
		ID:          fmt.Sprintf("sim-%d", s.nextID),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Qty:         req.Qty,
		Type:        req.Type,
		TimeInForce: req.TimeInForce,
		SubmittedAt: time.Now(),
	}
	if req.StopPrice != nil {
		stop := *req.StopPrice
		order.StopPrice = &stop
	}

	switch req.Type {
	case domain.OrderTypeMarket:
		mark, ok := s.marks[req.Symbol]
		if !ok {
			order.Status = domain.OrderStatusRejected
			s.orders = append(s.orders, order)
			return order, nil
		}
		s.fillLocked(order, mark)
	case domain.OrderTypeStop:
		order.Status = domain.OrderStatusAccepted
	default:
		return nil, fmt.Errorf("%w: unsupported order type %q", domain.ErrInput, req.Type)
	}

	s.orders = append(s.orders, order)
	return order, nil
}

// fillLocked settles a market order against cash and positions. Caller
// holds the lock.
func (s *Simulator) fillLocked(order *domain.Order, price decimal.Decimal) {
	qty := decimal.NewFromInt(order.Qty)
	notional := qty.Mul(price)

	if order.Side == domain.SideBuy {
		if notional.GreaterThan(s.cash) {
			order.Status = domain.OrderStatusRejected
			return
		}
		s.cash = s.cash.Sub(notional)
		pos, ok := s.positions[order.Symbol]
		if !ok {
			pos = &domain.Position{Symbol: order.Symbol, AvgEntryPrice: price}
			s.positions[order.Symbol] = pos
		}
		total := pos.Qty.Add(qty)
		pos.AvgEntryPrice = pos.AvgEntryPrice.Mul(pos.Qty).Add(notional).Div(total)
		pos.Qty = total
	} else {
		s.cash = s.cash.Add(notional)
		if pos, ok := s.positions[order.Symbol]; ok {
			pos.Qty = pos.Qty.Sub(qty)
			if pos.Qty.LessThanOrEqual(decimal.Zero) {
				delete(s.positions, order.Symbol)
			}
		}
	}

	order.Status = domain.OrderStatusFilled
	fill := price
	order.FilledAvgPrice = &fill
}

// GetPositions returns copies of the simulated positions with current
// marks and unrealized P&L.
func (s *Simulator) GetPositions(_ context.Context) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Position, 0, len(s.positions))
	for _, p := range s.positions {
		mark := s.markLocked(p.Symbol)
		out = append(out, domain.Position{
			Symbol:        p.Symbol,
			Qty:           p.Qty,
			AvgEntryPrice: p.AvgEntryPrice,
			CurrentPrice:  mark,
			UnrealizedPL:  mark.Sub(p.AvgEntryPrice).Mul(p.Qty),
		})
	}
	return out, nil
}

// CancelAllOrders cancels every order still working (new or accepted).
func (s *Simulator) CancelAllOrders(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.Status == domain.OrderStatusNew || o.Status == domain.OrderStatusAccepted {
			o.Status = domain.OrderStatusCanceled
		}
	}
	return nil
}

// CloseAllPositions cancels working orders and flattens every position at
// the mark price.
func (s *Simulator) CloseAllPositions(ctx context.Context) ([]domain.Order, error) {
	if err := s.CancelAllOrders(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	symbols := make([]string, 0, len(s.positions))
	for sym := range s.positions {
		symbols = append(symbols, sym)
	}
	s.mu.Unlock()

	var closed []domain.Order
	for _, sym := range symbols {
		s.mu.Lock()
		pos := s.positions[sym]
		if pos == nil {
			s.mu.Unlock()
			continue
		}
		qty := pos.Qty.IntPart()
		s.mu.Unlock()

		order, err := s.CreateOrder(ctx, domain.OrderRequest{
			Symbol:      sym,
			Side:        domain.SideSell,
			Qty:         qty,
			Type:        domain.OrderTypeMarket,
			TimeInForce: domain.TimeInForceDay,
		})
		if err != nil {
			return closed, err
		}
		closed = append(closed, *order)
	}
	return closed, nil
}

// IsMarketOpen reports the simulated market state.
func (s *Simulator) IsMarketOpen(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marketOpen, nil
}

// markLocked returns the mark price or zero. Caller holds the lock.
func (s *Simulator) markLocked(symbol string) decimal.Decimal {
	if mark, ok := s.marks[symbol]; ok {
		return mark
	}
	return decimal.Zero
}
