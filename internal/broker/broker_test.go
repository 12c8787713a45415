package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

func TestAlpacaGatewayName(t *testing.T) {
	g := NewAlpacaGateway("key", "secret", "https://paper-api.alpaca.markets", "")
	if got := g.Name(); got != "alpaca" {
		t.Errorf("AlpacaGateway.Name() = %q, want %q", got, "alpaca")
	}
	if g.MarketData() == nil {
		t.Error("AlpacaGateway.MarketData() returned nil")
	}
}

func TestSimulatorMarketOrderFillsAndMovesCash(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulator(decimal.NewFromInt(10000))
	sim.SetPrice("AAPL", decimal.NewFromInt(100))

	order, err := sim.CreateOrder(ctx, domain.OrderRequest{
		Symbol:      "AAPL",
		Side:        domain.SideBuy,
		Qty:         10,
		Type:        domain.OrderTypeMarket,
		TimeInForce: domain.TimeInForceDay,
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if !order.Filled() {
		t.Fatalf("market order status = %q, want filled", order.Status)
	}
	if order.FilledAvgPrice == nil || !order.FilledAvgPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("FilledAvgPrice = %v, want 100", order.FilledAvgPrice)
	}

	acct, err := sim.GetAccount(ctx)
	if err != nil {
		t.Fatalf("GetAccount returned error: %v", err)
	}
	if !acct.BuyingPower.Equal(decimal.NewFromInt(9000)) {
		t.Errorf("BuyingPower = %s, want 9000", acct.BuyingPower)
	}
	// Portfolio value is unchanged right after a fill at the mark price.
	if !acct.PortfolioValue.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("PortfolioValue = %s, want 10000", acct.PortfolioValue)
	}

	positions, err := sim.GetPositions(ctx)
	if err != nil {
		t.Fatalf("GetPositions returned error: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("len(positions) = %d, want 1", len(positions))
	}
	if !positions[0].Qty.Equal(decimal.NewFromInt(10)) {
		t.Errorf("position qty = %s, want 10", positions[0].Qty)
	}
}

func TestSimulatorRejectsUnaffordableBuy(t *testing.T) {
	sim := NewSimulator(decimal.NewFromInt(500))
	sim.SetPrice("AAPL", decimal.NewFromInt(100))

	order, err := sim.CreateOrder(context.Background(), domain.OrderRequest{
		Symbol:      "AAPL",
		Side:        domain.SideBuy,
		Qty:         10,
		Type:        domain.OrderTypeMarket,
		TimeInForce: domain.TimeInForceDay,
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if order.Status != domain.OrderStatusRejected {
		t.Errorf("order status = %q, want rejected", order.Status)
	}
}

func TestSimulatorStopOrderAccepted(t *testing.T) {
	sim := NewSimulator(decimal.NewFromInt(10000))
	sim.SetPrice("AAPL", decimal.NewFromInt(100))
	stop := decimal.NewFromInt(95)

	order, err := sim.CreateOrder(context.Background(), domain.OrderRequest{
		Symbol:      "AAPL",
		Side:        domain.SideSell,
		Qty:         10,
		Type:        domain.OrderTypeStop,
		TimeInForce: domain.TimeInForceGTC,
		StopPrice:   &stop,
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if order.Status != domain.OrderStatusAccepted {
		t.Errorf("stop order status = %q, want accepted", order.Status)
	}
	if order.StopPrice == nil || !order.StopPrice.Equal(stop) {
		t.Errorf("StopPrice = %v, want 95", order.StopPrice)
	}
}

func TestSimulatorFailureInjection(t *testing.T) {
	sim := NewSimulator(decimal.NewFromInt(10000))
	sim.SetPrice("AAPL", decimal.NewFromInt(100))
	sim.FailOrders(domain.OrderTypeStop, errors.New("gateway down"))

	stop := decimal.NewFromInt(95)
	_, err := sim.CreateOrder(context.Background(), domain.OrderRequest{
		Symbol:      "AAPL",
		Side:        domain.SideSell,
		Qty:         10,
		Type:        domain.OrderTypeStop,
		TimeInForce: domain.TimeInForceGTC,
		StopPrice:   &stop,
	})
	if err == nil {
		t.Fatal("CreateOrder should fail after FailOrders injection")
	}
	if !errors.Is(err, domain.ErrService) {
		t.Errorf("injected error %v is not a service error", err)
	}

	// Market orders are unaffected.
	order, err := sim.CreateOrder(context.Background(), domain.OrderRequest{
		Symbol:      "AAPL",
		Side:        domain.SideBuy,
		Qty:         1,
		Type:        domain.OrderTypeMarket,
		TimeInForce: domain.TimeInForceDay,
	})
	if err != nil {
		t.Fatalf("market CreateOrder returned error: %v", err)
	}
	if !order.Filled() {
		t.Errorf("market order status = %q, want filled", order.Status)
	}
}

func TestSimulatorCloseAllPositions(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulator(decimal.NewFromInt(10000))
	sim.SetPrice("AAPL", decimal.NewFromInt(100))

	if _, err := sim.CreateOrder(ctx, domain.OrderRequest{
		Symbol: "AAPL", Side: domain.SideBuy, Qty: 10,
		Type: domain.OrderTypeMarket, TimeInForce: domain.TimeInForceDay,
	}); err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	stop := decimal.NewFromInt(95)
	stopOrder, err := sim.CreateOrder(ctx, domain.OrderRequest{
		Symbol: "AAPL", Side: domain.SideSell, Qty: 10,
		Type: domain.OrderTypeStop, TimeInForce: domain.TimeInForceGTC, StopPrice: &stop,
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	closed, err := sim.CloseAllPositions(ctx)
	if err != nil {
		t.Fatalf("CloseAllPositions returned error: %v", err)
	}
	if len(closed) != 1 {
		t.Fatalf("len(closed) = %d, want 1", len(closed))
	}
	if stopOrder.Status != domain.OrderStatusCanceled {
		t.Errorf("stop order status = %q, want canceled", stopOrder.Status)
	}

	positions, err := sim.GetPositions(ctx)
	if err != nil {
		t.Fatalf("GetPositions returned error: %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("len(positions) = %d after liquidation, want 0", len(positions))
	}

	acct, _ := sim.GetAccount(ctx)
	if !acct.BuyingPower.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("BuyingPower after flat = %s, want 10000", acct.BuyingPower)
	}
}

func TestSimulatorMarketClock(t *testing.T) {
	sim := NewSimulator(decimal.Zero)
	open, err := sim.IsMarketOpen(context.Background())
	if err != nil {
		t.Fatalf("IsMarketOpen returned error: %v", err)
	}
	if !open {
		t.Error("simulator market should start open")
	}
	sim.SetMarketOpen(false)
	open, _ = sim.IsMarketOpen(context.Background())
	if open {
		t.Error("simulator market should be closed after SetMarketOpen(false)")
	}
}
