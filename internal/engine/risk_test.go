package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/config"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

type stubAccounts struct {
	snapshot domain.AccountSnapshot
	err      error
	calls    int
}

func (s *stubAccounts) GetAccount(ctx context.Context) (*domain.AccountSnapshot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	snap := s.snapshot
	return &snap, nil
}

type stubQuotes struct {
	ask   decimal.Decimal
	err   error
	calls int
}

func (s *stubQuotes) GetLatestQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Quote{Symbol: symbol, AskPrice: s.ask, BidPrice: s.ask}, nil
}

func testTradingConfig() config.TradingConfig {
	return config.TradingConfig{
		RiskPercentage:       1.0,
		MinRiskRewardRatio:   2.0,
		MinPositionSize:      1,
		DefaultStopLossPct:   2.0,
		DefaultTakeProfitPct: 4.0,
	}
}

func newTestValidator(accounts *stubAccounts, quotes *stubQuotes) *Validator {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewValidator(accounts, quotes, testTradingConfig(), log)
}

func buyDecision(symbol string) domain.TradeDecision {
	return domain.TradeDecision{Symbol: symbol, Action: domain.ActionBuy}
}

func TestValidateEmptySymbol(t *testing.T) {
	accounts := &stubAccounts{}
	quotes := &stubQuotes{}
	v := newTestValidator(accounts, quotes)

	res := v.Validate(context.Background(), buyDecision(""))

	assert.False(t, res.Valid)
	assert.Equal(t, ReasonEmptySymbol, res.Reason)
	assert.Zero(t, accounts.calls, "empty symbol must be rejected before any fetch")
	assert.Zero(t, quotes.calls)
}

func TestValidateHoldShortCircuits(t *testing.T) {
	accounts := &stubAccounts{}
	quotes := &stubQuotes{}
	v := newTestValidator(accounts, quotes)

	res := v.Validate(context.Background(), domain.TradeDecision{
		Symbol: "AAPL",
		Action: domain.ActionHold,
	})

	assert.True(t, res.Valid)
	assert.Equal(t, ReasonHold, res.Reason)
	assert.Zero(t, res.Quantity)
	assert.Nil(t, res.Params)
	assert.Zero(t, accounts.calls, "hold must not touch the brokerage")
	assert.Zero(t, quotes.calls)
}

func TestValidateDefaultStopAndTarget(t *testing.T) {
	// With a 100.00 ask the defaults put the stop at 98.00 and the
	// target at 104.00, a ratio of exactly 2.0. The boundary passes.
	accounts := &stubAccounts{snapshot: domain.AccountSnapshot{
		PortfolioValue: decimal.NewFromInt(100000),
		BuyingPower:    decimal.NewFromInt(50000),
	}}
	quotes := &stubQuotes{ask: decimal.NewFromInt(100)}
	v := newTestValidator(accounts, quotes)

	res := v.Validate(context.Background(), buyDecision("AAPL"))

	require.True(t, res.Valid, "reason: %s details: %v", res.Reason, res.Details)
	require.NotNil(t, res.Params)
	assert.True(t, res.Params.StopLoss.Equal(decimal.NewFromInt(98)), "stop %s", res.Params.StopLoss)
	assert.True(t, res.Params.PriceTarget.Equal(decimal.NewFromInt(104)), "target %s", res.Params.PriceTarget)
	require.NotNil(t, res.RiskRewardRatio)
	assert.True(t, res.RiskRewardRatio.Equal(decimal.NewFromInt(2)))
	// 100000 * 1% / 2.00 = 500 by risk, 50000 / 100 = 500 by funds.
	assert.Equal(t, int64(500), res.Quantity)
	assert.Equal(t, "100", res.Details["entry_price"])
}

func TestValidateExplicitPricesWin(t *testing.T) {
	accounts := &stubAccounts{snapshot: domain.AccountSnapshot{
		PortfolioValue: decimal.NewFromInt(100000),
		BuyingPower:    decimal.NewFromInt(50000),
	}}
	quotes := &stubQuotes{ask: decimal.NewFromInt(100)}
	v := newTestValidator(accounts, quotes)

	stop := decimal.NewFromInt(95)
	target := decimal.NewFromInt(115)
	res := v.Validate(context.Background(), domain.TradeDecision{
		Symbol:      "AAPL",
		Action:      domain.ActionBuy,
		StopLoss:    &stop,
		PriceTarget: &target,
	})

	require.True(t, res.Valid)
	require.NotNil(t, res.Params)
	assert.True(t, res.Params.StopLoss.Equal(stop))
	assert.True(t, res.Params.PriceTarget.Equal(target))
	require.NotNil(t, res.RiskRewardRatio)
	assert.True(t, res.RiskRewardRatio.Equal(decimal.NewFromInt(3)))
}

func TestValidateBelowMinimumRatio(t *testing.T) {
	accounts := &stubAccounts{snapshot: domain.AccountSnapshot{
		PortfolioValue: decimal.NewFromInt(100000),
		BuyingPower:    decimal.NewFromInt(50000),
	}}
	quotes := &stubQuotes{ask: decimal.NewFromInt(100)}
	v := newTestValidator(accounts, quotes)

	stop := decimal.NewFromInt(95)
	target := decimal.NewFromInt(105) // ratio 1.0
	res := v.Validate(context.Background(), domain.TradeDecision{
		Symbol:      "AAPL",
		Action:      domain.ActionBuy,
		StopLoss:    &stop,
		PriceTarget: &target,
	})

	assert.False(t, res.Valid)
	assert.Equal(t, ReasonBelowMinRatio, res.Reason)
	require.NotNil(t, res.RiskRewardRatio)
	assert.True(t, res.RiskRewardRatio.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "2", res.Details["minimum_required"])
}

func TestValidateStopEqualsEntry(t *testing.T) {
	accounts := &stubAccounts{snapshot: domain.AccountSnapshot{
		PortfolioValue: decimal.NewFromInt(100000),
		BuyingPower:    decimal.NewFromInt(50000),
	}}
	quotes := &stubQuotes{ask: decimal.NewFromInt(100)}
	v := newTestValidator(accounts, quotes)

	stop := decimal.NewFromInt(100)
	res := v.Validate(context.Background(), domain.TradeDecision{
		Symbol:   "AAPL",
		Action:   domain.ActionBuy,
		StopLoss: &stop,
	})

	assert.False(t, res.Valid)
	assert.Equal(t, ReasonUnsizeable, res.Reason)
}

func TestValidateZeroAsk(t *testing.T) {
	accounts := &stubAccounts{snapshot: domain.AccountSnapshot{
		PortfolioValue: decimal.NewFromInt(100000),
		BuyingPower:    decimal.NewFromInt(50000),
	}}
	quotes := &stubQuotes{ask: decimal.Zero}
	v := newTestValidator(accounts, quotes)

	res := v.Validate(context.Background(), buyDecision("AAPL"))

	assert.False(t, res.Valid)
	assert.Equal(t, ReasonUnsizeable, res.Reason)
}

func TestValidateInsufficientFunds(t *testing.T) {
	accounts := &stubAccounts{snapshot: domain.AccountSnapshot{
		PortfolioValue: decimal.NewFromInt(100000),
		BuyingPower:    decimal.NewFromInt(50),
	}}
	quotes := &stubQuotes{ask: decimal.NewFromInt(100)}
	v := newTestValidator(accounts, quotes)

	res := v.Validate(context.Background(), buyDecision("AAPL"))

	assert.False(t, res.Valid)
	assert.Equal(t, ReasonInsufficientFunds, res.Reason)
	assert.Equal(t, "100", res.Details["required_funds"])
	assert.Equal(t, "50", res.Details["buying_power"])
}

func TestValidateFetchErrors(t *testing.T) {
	quoteErr := errors.New("quote feed down")
	acctErr := errors.New("account service down")

	cases := []struct {
		name     string
		accounts *stubAccounts
		quotes   *stubQuotes
		want     string
	}{
		{
			name:     "quote fetch fails",
			accounts: &stubAccounts{snapshot: domain.AccountSnapshot{}},
			quotes:   &stubQuotes{err: quoteErr},
			want:     "quote feed down",
		},
		{
			name:     "account fetch fails",
			accounts: &stubAccounts{err: acctErr},
			quotes:   &stubQuotes{ask: decimal.NewFromInt(100)},
			want:     "account service down",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newTestValidator(tc.accounts, tc.quotes)
			res := v.Validate(context.Background(), buyDecision("AAPL"))

			assert.False(t, res.Valid)
			assert.Equal(t, ReasonFetchFailed, res.Reason)
			assert.Contains(t, res.Details["error"], tc.want)
		})
	}
}
