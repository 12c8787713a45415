package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/broker"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/config"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

// Stable rejection reasons, used as alerting keys by the caller.
const (
	ReasonEmptySymbol       = "empty symbol"
	ReasonHold              = "hold"
	ReasonFetchFailed       = "market data unavailable"
	ReasonUnsizeable        = "unsizeable"
	ReasonInsufficientFunds = "insufficient funds"
	ReasonBelowMinRatio     = "risk/reward below minimum"
)

// Validator applies the capital-preservation rules to a trade decision:
// it fetches fresh account and quote snapshots, fills in default stop and
// target prices, sizes the position, and checks the reward/risk ratio.
//
// Validate never returns an error: every failure mode is folded into the
// returned RiskValidationResult so nothing can raise past the scheduler
// boundary.
type Validator struct {
	accounts broker.AccountProvider
	quotes   broker.QuoteProvider
	sizer    *Sizer

	minRatio  decimal.Decimal
	stopPct   decimal.Decimal // default stop distance, percent below entry
	targetPct decimal.Decimal // default target distance, percent above entry

	log *slog.Logger
}

// NewValidator creates a Validator wired to the given providers with the
// configured risk parameters.
func NewValidator(accounts broker.AccountProvider, quotes broker.QuoteProvider, cfg config.TradingConfig, log *slog.Logger) *Validator {
	return &Validator{
		accounts:  accounts,
		quotes:    quotes,
		sizer:     NewSizer(cfg.RiskPercentage, cfg.MinPositionSize),
		minRatio:  decimal.NewFromFloat(cfg.MinRiskRewardRatio),
		stopPct:   decimal.NewFromFloat(cfg.DefaultStopLossPct),
		targetPct: decimal.NewFromFloat(cfg.DefaultTakeProfitPct),
		log:       log.With("component", "risk_validator"),
	}
}

// Validate evaluates one trade decision and returns the verdict.
func (v *Validator) Validate(ctx context.Context, decision domain.TradeDecision) domain.RiskValidationResult {
	if decision.Symbol == "" {
		return invalid(ReasonEmptySymbol, nil)
	}

	// Hold is always valid and never sized; no provider calls are made.
	if decision.Action == domain.ActionHold {
		return domain.RiskValidationResult{Valid: true, Reason: ReasonHold}
	}

	quote, acct, err := v.fetchSnapshots(ctx, decision.Symbol)
	if err != nil {
		v.log.Warn("snapshot fetch failed", "symbol", decision.Symbol, "error", err)
		return invalid(ReasonFetchFailed, map[string]string{"error": err.Error()})
	}

	if quote.AskPrice.LessThanOrEqual(decimal.Zero) {
		return invalid(ReasonUnsizeable, map[string]string{
			"current_price": quote.AskPrice.String(),
		})
	}

	params := v.buildParams(quote.AskPrice, decision)
	riskPerShare := params.RiskPerShare()

	if riskPerShare.IsZero() {
		return invalid(ReasonUnsizeable, map[string]string{
			"current_price": params.EntryPrice.String(),
			"stop_loss":     params.StopLoss.String(),
		})
	}

	qty := v.sizer.Size(params, *acct)
	if qty == 0 {
		minQty := decimal.NewFromInt(v.sizer.MinShares())
		return invalid(ReasonInsufficientFunds, map[string]string{
			"current_price":  params.EntryPrice.String(),
			"required_funds": params.EntryPrice.Mul(minQty).String(),
			"buying_power":   acct.BuyingPower.String(),
		})
	}

	ratio := params.RewardPerShare().Div(riskPerShare)
	if ratio.LessThan(v.minRatio) {
		result := invalid(ReasonBelowMinRatio, map[string]string{
			"risk_reward_ratio": ratio.String(),
			"minimum_required":  v.minRatio.String(),
		})
		result.RiskRewardRatio = &ratio
		return result
	}

	cost := params.EntryPrice.Mul(decimal.NewFromInt(qty))
	v.log.Info("trade validated",
		"symbol", decision.Symbol,
		"action", decision.Action,
		"quantity", qty,
		"risk_reward_ratio", ratio.String(),
	)

	return domain.RiskValidationResult{
		Valid:           true,
		Quantity:        qty,
		RiskRewardRatio: &ratio,
		Params:          &params,
		Details: map[string]string{
			"entry_price":    params.EntryPrice.String(),
			"stop_loss":      params.StopLoss.String(),
			"price_target":   params.PriceTarget.String(),
			"estimated_cost": cost.String(),
			"buying_power":   acct.BuyingPower.String(),
		},
	}
}

// buildParams merges the quote's ask with the decision's stop/target,
// applying the configured default offsets when the decision omits them.
func (v *Validator) buildParams(entry decimal.Decimal, decision domain.TradeDecision) domain.TradeParams {
	params := domain.TradeParams{EntryPrice: entry}

	if decision.StopLoss != nil && decision.StopLoss.GreaterThan(decimal.Zero) {
		params.StopLoss = *decision.StopLoss
	} else {
		// entry × (1 − stopPct/100)
		params.StopLoss = entry.Mul(decimal.NewFromInt(1).Sub(v.stopPct.Div(oneHundred)))
	}

	if decision.PriceTarget != nil && decision.PriceTarget.GreaterThan(decimal.Zero) {
		params.PriceTarget = *decision.PriceTarget
	} else {
		// entry × (1 + targetPct/100)
		params.PriceTarget = entry.Mul(decimal.NewFromInt(1).Add(v.targetPct.Div(oneHundred)))
	}

	return params
}

// fetchSnapshots retrieves the quote and the account concurrently. Both
// reads are independent; fetching them in parallel keeps validation
// latency inside the cycle budget. The first error wins.
func (v *Validator) fetchSnapshots(ctx context.Context, symbol string) (*domain.Quote, *domain.AccountSnapshot, error) {
	var (
		wg       sync.WaitGroup
		quote    *domain.Quote
		acct     *domain.AccountSnapshot
		quoteErr error
		acctErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		quote, quoteErr = v.quotes.GetLatestQuote(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		acct, acctErr = v.accounts.GetAccount(ctx)
	}()
	wg.Wait()

	if quoteErr != nil {
		return nil, nil, fmt.Errorf("fetching quote: %w", quoteErr)
	}
	if acctErr != nil {
		return nil, nil, fmt.Errorf("fetching account: %w", acctErr)
	}
	return quote, acct, nil
}

func invalid(reason string, details map[string]string) domain.RiskValidationResult {
	return domain.RiskValidationResult{
		Valid:   false,
		Reason:  reason,
		Details: details,
	}
}
