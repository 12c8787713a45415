// Package domain defines the shared value types exchanged between the
// decision pipeline, the risk engine, and the broker gateway.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the direction requested by a trade decision.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Side is the direction of a concrete order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the closing side for a position opened on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType is the supported order type set: market entries and stop
// protective orders.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeStop   OrderType = "stop"
)

// TimeInForce controls how long an order stays working.
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "day"
	TimeInForceGTC TimeInForce = "gtc"
)

// OrderStatus is the broker-reported lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusNew      OrderStatus = "new"
	OrderStatusAccepted OrderStatus = "accepted"
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusRejected OrderStatus = "rejected"
	OrderStatusCanceled OrderStatus = "canceled"
)

// TradeDecision is the typed output of the decision pipeline. The risk
// engine only reads it; ownership stays with the caller. StopLoss and
// PriceTarget are optional — the validator fills defaults when absent.
type TradeDecision struct {
	Symbol      string
	Action      Action
	StopLoss    *decimal.Decimal
	PriceTarget *decimal.Decimal

	// Advisory fields carried through to notifications.
	Confidence float64
	Rationale  string
}

// AccountSnapshot is a point-in-time read of the brokerage account. It is
// fetched fresh for every validation and must never be cached across
// cycles: buying power is externally mutable and may be stale by the time
// an order is submitted.
type AccountSnapshot struct {
	PortfolioValue decimal.Decimal
	BuyingPower    decimal.Decimal
}

// Quote is the latest ask for a symbol, fetched fresh per validation.
type Quote struct {
	Symbol   string
	AskPrice decimal.Decimal
	BidPrice decimal.Decimal
}

// TradeParams are the merged entry/stop/target prices a trade is sized
// against. EntryPrice is always positive when produced by the validator.
type TradeParams struct {
	EntryPrice  decimal.Decimal
	StopLoss    decimal.Decimal
	PriceTarget decimal.Decimal
}

// RiskPerShare is the absolute distance between entry and stop. A zero
// distance means the trade cannot be sized.
func (p TradeParams) RiskPerShare() decimal.Decimal {
	return p.EntryPrice.Sub(p.StopLoss).Abs()
}

// RewardPerShare is the absolute distance between target and entry.
func (p TradeParams) RewardPerShare() decimal.Decimal {
	return p.PriceTarget.Sub(p.EntryPrice).Abs()
}

// RiskValidationResult is the terminal verdict of one validation call.
// It is produced once and never mutated.
type RiskValidationResult struct {
	Valid           bool
	Reason          string
	Quantity        int64
	RiskRewardRatio *decimal.Decimal
	// Params carries the merged entry/stop/target the trade was sized
	// against, so the caller submits the same stop the risk check saw.
	// Nil on invalid or hold verdicts.
	Params  *TradeParams
	Details map[string]string
}

// OrderRequest describes one order to be submitted through the gateway.
type OrderRequest struct {
	Symbol      string
	Side        Side
	Qty         int64
	Type        OrderType
	TimeInForce TimeInForce
	StopPrice   *decimal.Decimal
}

// Order is the gateway's view of a submitted order.
type Order struct {
	ID             string
	Symbol         string
	Side           Side
	Qty            int64
	Type           OrderType
	TimeInForce    TimeInForce
	Status         OrderStatus
	FilledAvgPrice *decimal.Decimal
	StopPrice      *decimal.Decimal
	SubmittedAt    time.Time
}

// Filled reports whether the broker confirmed a fill.
func (o *Order) Filled() bool {
	return o != nil && o.Status == OrderStatusFilled
}

// ExecutionState tags the terminal outcome of one execution attempt.
type ExecutionState string

const (
	// ExecutionExecuted: primary filled and the protective order, when
	// required, was accepted.
	ExecutionExecuted ExecutionState = "executed"
	// ExecutionPartiallyProtected: primary filled but the protective order
	// failed. The position is open and unprotected; callers must treat
	// this as urgent.
	ExecutionPartiallyProtected ExecutionState = "partially_protected"
	// ExecutionRejected: the primary order never filled.
	ExecutionRejected ExecutionState = "rejected"
)

// OrderResult is the outcome of one execution attempt. The core never
// retries it; any retry policy belongs to the scheduler.
type OrderResult struct {
	Success        bool
	State          ExecutionState
	MainOrder      *Order
	StopLossOrder  *Order
	PartialFailure bool
	Error          string
	Timestamp      time.Time
}

// Position is a read-only view of an open brokerage position.
type Position struct {
	Symbol        string
	Qty           decimal.Decimal
	AvgEntryPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	UnrealizedPL  decimal.Decimal
}
