package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

func dec(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func TestTradeExecutedSuccess(t *testing.T) {
	a := TradeExecuted("AAPL", domain.OrderResult{
		Success: true,
		State:   domain.ExecutionExecuted,
		MainOrder: &domain.Order{
			Side:           domain.SideBuy,
			Qty:            100,
			Status:         domain.OrderStatusFilled,
			FilledAvgPrice: dec(100.25),
		},
		StopLossOrder: &domain.Order{
			Status:    domain.OrderStatusAccepted,
			StopPrice: dec(98),
		},
		Timestamp: time.Now(),
	})

	assert.Equal(t, LevelSuccess, a.Level)
	assert.Contains(t, a.Title, "AAPL")
	assert.Contains(t, a.Body, "buy 100 AAPL @ 100.25")
	assert.Contains(t, a.Body, "Stop-loss at 98.00")
}

func TestTradeExecutedPartialFailureIsUrgent(t *testing.T) {
	a := TradeExecuted("AAPL", domain.OrderResult{
		Success:        true,
		State:          domain.ExecutionPartiallyProtected,
		PartialFailure: true,
		MainOrder:      &domain.Order{Status: domain.OrderStatusFilled},
		Error:          "partial execution: stop rejected",
	})

	assert.Equal(t, LevelUrgent, a.Level)
	assert.Contains(t, a.Title, "UNPROTECTED")
	assert.Contains(t, a.Body, "stop rejected")
	assert.Contains(t, a.Body, "manually")
}

func TestTradeExecutedRejected(t *testing.T) {
	a := TradeExecuted("AAPL", domain.OrderResult{
		Success: false,
		State:   domain.ExecutionRejected,
		Error:   "insufficient buying power",
	})

	assert.Equal(t, LevelWarning, a.Level)
	assert.Contains(t, a.Body, "insufficient buying power")
}

func TestTradeRejectedIncludesRatio(t *testing.T) {
	ratio := decimal.NewFromFloat(1.37)
	a := TradeRejected("AAPL", domain.RiskValidationResult{
		Reason:          "risk/reward below minimum",
		RiskRewardRatio: &ratio,
	})

	assert.Equal(t, LevelInfo, a.Level)
	assert.Contains(t, a.Body, "1.37")
}

func TestShutdown(t *testing.T) {
	a := Shutdown("AAPL", decimal.Zero)
	assert.Contains(t, a.Body, "No open position")

	a = Shutdown("AAPL", decimal.NewFromInt(100))
	assert.Contains(t, a.Body, "100 shares")
	assert.Contains(t, a.Body, "Protective orders remain working")
}

type recordingNotifier struct {
	alerts []Alert
	err    error
}

func (r *recordingNotifier) Send(ctx context.Context, a Alert) error {
	r.alerts = append(r.alerts, a)
	return r.err
}

func TestMultiSendsToAllSinks(t *testing.T) {
	a := &recordingNotifier{}
	b := &recordingNotifier{err: errors.New("sink down")}
	c := &recordingNotifier{}

	err := Multi{a, b, c}.Send(context.Background(), Alert{Level: LevelInfo, Title: "t"})

	require.Error(t, err)
	assert.Len(t, a.alerts, 1)
	assert.Len(t, c.alerts, 1, "a failing sink must not block the others")
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Send(context.Background(), Alert{}))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "a\\_b \\*c\\* \\`d\\` \\[e]", escapeMarkdown("a_b *c* `d` [e]"))
}
