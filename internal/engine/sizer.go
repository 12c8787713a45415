// Package engine implements the risk-managed trade execution core:
// position sizing, pre-trade risk validation, and two-phase order
// execution with partial-failure reporting.
package engine

import (
	"github.com/shopspring/decimal"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// Sizer computes a trade-safe share quantity from risk parameters and
// account state. It is a pure function of its inputs: no side effects, no
// clock, no network.
type Sizer struct {
	// riskPct is the percent of portfolio value risked per trade.
	riskPct decimal.Decimal
	// minShares is the smallest share count worth trading.
	minShares int64
}

// NewSizer creates a Sizer with the given risk percentage and minimum
// position size. Non-positive arguments fall back to the defaults
// (1% risk, 1 share).
func NewSizer(riskPct float64, minShares int64) *Sizer {
	if riskPct <= 0 {
		riskPct = 1
	}
	if minShares <= 0 {
		minShares = 1
	}
	return &Sizer{
		riskPct:   decimal.NewFromFloat(riskPct),
		minShares: minShares,
	}
}

// Size returns the share quantity to trade, or 0 when the trade cannot be
// sized: zero risk per share, non-positive prices, or not enough buying
// power for even the minimum position.
//
// The candidate quantity is the lesser of the risk-budget bound
// floor(portfolioValue × riskPct/100 ÷ riskPerShare) and the affordability
// bound floor(buyingPower ÷ entryPrice). When the candidate rounds below
// the minimum position size, the minimum is still allowed as long as it is
// affordable — a bounded exception to the risk cap so rounding alone never
// blocks a trade.
func (s *Sizer) Size(params domain.TradeParams, acct domain.AccountSnapshot) int64 {
	if params.EntryPrice.LessThanOrEqual(decimal.Zero) ||
		params.StopLoss.LessThanOrEqual(decimal.Zero) {
		return 0
	}

	riskPerShare := params.RiskPerShare()
	if riskPerShare.IsZero() {
		return 0
	}

	maxRiskAmount := acct.PortfolioValue.Mul(s.riskPct).Div(oneHundred)
	byRisk := maxRiskAmount.Div(riskPerShare).IntPart()
	byFunds := acct.BuyingPower.Div(params.EntryPrice).IntPart()

	qty := byRisk
	if byFunds < qty {
		qty = byFunds
	}

	if qty < s.minShares {
		minCost := params.EntryPrice.Mul(decimal.NewFromInt(s.minShares))
		if minCost.LessThanOrEqual(acct.BuyingPower) {
			return s.minShares
		}
		return 0
	}

	return qty
}

// MinShares returns the configured minimum position size.
func (s *Sizer) MinShares() int64 { return s.minShares }

// RiskPct returns the configured risk percentage.
func (s *Sizer) RiskPct() decimal.Decimal { return s.riskPct }
