package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// Indicators is a compact technical snapshot computed from daily bars.
type Indicators struct {
	LastClose float64
	SMAFast   float64 // 5-day
	SMASlow   float64 // 20-day
	RSI       float64 // 14-day
}

const (
	smaFastPeriod = 5
	smaSlowPeriod = 20
	rsiPeriod     = 14
)

// IndicatorSource computes the indicator snapshot from Alpaca daily bars.
type IndicatorSource struct {
	md *marketdata.Client
}

// NewIndicatorSource creates an indicator source backed by the given
// marketdata client.
func NewIndicatorSource(md *marketdata.Client) *IndicatorSource {
	return &IndicatorSource{md: md}
}

// Snapshot fetches recent daily bars and computes the indicators. It needs
// at least 21 bars; calendar gaps mean the lookback is padded generously.
func (s *IndicatorSource) Snapshot(ctx context.Context, symbol string) (*Indicators, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -60)
	bars, err := s.md.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      "iex",
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars: %w", err)
	}

	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		closes = append(closes, b.Close)
	}
	return Compute(closes)
}

// Compute calculates the indicator snapshot from a chronological series of
// closing prices.
func Compute(closes []float64) (*Indicators, error) {
	if len(closes) < smaSlowPeriod+1 {
		return nil, fmt.Errorf("need at least %d closes, got %d", smaSlowPeriod+1, len(closes))
	}
	return &Indicators{
		LastClose: closes[len(closes)-1],
		SMAFast:   SMA(closes, smaFastPeriod),
		SMASlow:   SMA(closes, smaSlowPeriod),
		RSI:       RSI(closes, rsiPeriod),
	}, nil
}

// Signal condenses the snapshot into a one-word trend label. Bullish when
// the fast average is above the slow one and RSI is not overbought, bearish
// when it is below and RSI is not oversold, neutral otherwise.
func (in *Indicators) Signal() string {
	switch {
	case in.SMAFast > in.SMASlow && in.RSI < 70:
		return "bullish"
	case in.SMAFast < in.SMASlow && in.RSI > 30:
		return "bearish"
	default:
		return "neutral"
	}
}

// SMA returns the simple moving average of the last period closes.
func SMA(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period {
		return 0
	}
	var sum float64
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period)
}

// RSI returns the relative strength index over the last period price
// changes. 100 when there are no losses in the window, 50 when the window
// is flat.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 0
	}

	var gains, losses float64
	window := closes[len(closes)-period-1:]
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}

	rs := (gains / float64(period)) / (losses / float64(period))
	return 100 - 100/(1+rs)
}
