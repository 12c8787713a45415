package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSideOpposite(t *testing.T) {
	if got := SideBuy.Opposite(); got != SideSell {
		t.Errorf("SideBuy.Opposite() = %q, want %q", got, SideSell)
	}
	if got := SideSell.Opposite(); got != SideBuy {
		t.Errorf("SideSell.Opposite() = %q, want %q", got, SideBuy)
	}
}

func TestTradeParamsRiskPerShare(t *testing.T) {
	p := TradeParams{
		EntryPrice:  decimal.NewFromInt(50),
		StopLoss:    decimal.NewFromInt(49),
		PriceTarget: decimal.NewFromInt(54),
	}
	if got := p.RiskPerShare(); !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("RiskPerShare() = %s, want 1", got)
	}
	if got := p.RewardPerShare(); !got.Equal(decimal.NewFromInt(4)) {
		t.Errorf("RewardPerShare() = %s, want 4", got)
	}

	// Short setup: stop above entry, target below.
	short := TradeParams{
		EntryPrice:  decimal.NewFromInt(100),
		StopLoss:    decimal.NewFromInt(102),
		PriceTarget: decimal.NewFromInt(96),
	}
	if got := short.RiskPerShare(); !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("short RiskPerShare() = %s, want 2", got)
	}
	if got := short.RewardPerShare(); !got.Equal(decimal.NewFromInt(4)) {
		t.Errorf("short RewardPerShare() = %s, want 4", got)
	}
}

func TestOrderFilled(t *testing.T) {
	var nilOrder *Order
	if nilOrder.Filled() {
		t.Error("nil order reported as filled")
	}
	if (&Order{Status: OrderStatusAccepted}).Filled() {
		t.Error("accepted order reported as filled")
	}
	if !(&Order{Status: OrderStatusFilled}).Filled() {
		t.Error("filled order not reported as filled")
	}
}

func TestEnumValues(t *testing.T) {
	// Wire values match the Alpaca API strings.
	if ActionBuy != "buy" || ActionSell != "sell" || ActionHold != "hold" {
		t.Error("Action constants have unexpected values")
	}
	if OrderTypeMarket != "market" || OrderTypeStop != "stop" {
		t.Error("OrderType constants have unexpected values")
	}
	if TimeInForceDay != "day" || TimeInForceGTC != "gtc" {
		t.Error("TimeInForce constants have unexpected values")
	}
}
