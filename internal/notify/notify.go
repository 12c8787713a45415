// Package notify delivers trade and lifecycle alerts to configured sinks.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

// Level grades an alert for routing and formatting.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	// LevelUrgent is reserved for states needing operator action, such as
	// an unprotected open position.
	LevelUrgent Level = "urgent"
)

// Alert is one notification.
type Alert struct {
	Level Level
	Title string
	Body  string
}

// Notifier delivers alerts. Implementations must be safe for concurrent
// use; delivery failures are returned, never retried internally.
type Notifier interface {
	Send(ctx context.Context, a Alert) error
}

// Multi fans one alert out to several sinks. Every sink is attempted; the
// first error is returned.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, a Alert) error {
	var firstErr error
	for _, n := range m {
		if err := n.Send(ctx, a); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Discard drops every alert. Used when no sink is configured.
type Discard struct{}

func (Discard) Send(context.Context, Alert) error { return nil }

// TradeExecuted builds the alert for a completed execution attempt. The
// level tracks the outcome: a partially protected position is urgent.
func TradeExecuted(symbol string, res domain.OrderResult) Alert {
	switch {
	case res.State == domain.ExecutionPartiallyProtected:
		return Alert{
			Level: LevelUrgent,
			Title: fmt.Sprintf("%s position UNPROTECTED", symbol),
			Body: fmt.Sprintf("Entry filled but the stop-loss order failed: %s\nPlace a protective order manually.",
				res.Error),
		}
	case res.Success:
		var b strings.Builder
		if res.MainOrder != nil {
			fmt.Fprintf(&b, "%s %d %s", res.MainOrder.Side, res.MainOrder.Qty, symbol)
			if res.MainOrder.FilledAvgPrice != nil {
				fmt.Fprintf(&b, " @ %s", res.MainOrder.FilledAvgPrice.StringFixed(2))
			}
		}
		if res.StopLossOrder != nil && res.StopLossOrder.StopPrice != nil {
			fmt.Fprintf(&b, "\nStop-loss at %s", res.StopLossOrder.StopPrice.StringFixed(2))
		}
		return Alert{
			Level: LevelSuccess,
			Title: fmt.Sprintf("%s trade executed", symbol),
			Body:  b.String(),
		}
	default:
		return Alert{
			Level: LevelWarning,
			Title: fmt.Sprintf("%s order rejected", symbol),
			Body:  res.Error,
		}
	}
}

// TradeRejected builds the alert for a trade stopped by risk validation.
func TradeRejected(symbol string, res domain.RiskValidationResult) Alert {
	body := res.Reason
	if ratio := res.RiskRewardRatio; ratio != nil {
		body = fmt.Sprintf("%s (risk/reward %s)", res.Reason, ratio.Round(2))
	}
	return Alert{
		Level: LevelInfo,
		Title: fmt.Sprintf("%s trade skipped", symbol),
		Body:  body,
	}
}

// CycleError builds the alert for a decision-cycle failure.
func CycleError(symbol string, err error) Alert {
	return Alert{
		Level: LevelWarning,
		Title: fmt.Sprintf("%s cycle failed", symbol),
		Body:  err.Error(),
	}
}

// Shutdown builds the alert sent when the bot stops.
func Shutdown(symbol string, openQty decimal.Decimal) Alert {
	body := "No open position."
	if !openQty.IsZero() {
		body = fmt.Sprintf("Open position: %s shares. Protective orders remain working.", openQty)
	}
	return Alert{
		Level: LevelInfo,
		Title: fmt.Sprintf("%s bot stopped", symbol),
		Body:  body,
	}
}
