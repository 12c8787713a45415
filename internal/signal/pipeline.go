package signal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

// ArticleSource fetches recent articles for a symbol.
type ArticleSource interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]Article, error)
}

// IndicatorProvider computes a technical snapshot for a symbol.
type IndicatorProvider interface {
	Snapshot(ctx context.Context, symbol string) (*Indicators, error)
}

// PricePredictor returns the external model's forecast for a symbol.
type PricePredictor interface {
	Predict(ctx context.Context, symbol string) (*Prediction, error)
}

// DecisionMaker turns assembled signals into a trade decision.
type DecisionMaker interface {
	Decide(ctx context.Context, in DecisionInput) (*domain.TradeDecision, error)
}

// newsWindow is how far back the pipeline looks for articles.
const newsWindow = 24 * time.Hour

// Pipeline gathers all signals for a symbol and asks the decision maker
// for an action. Auxiliary sources degrade gracefully: a failed news,
// indicator, or prediction fetch is logged and the decision proceeds
// without it. Only the decision call itself is required.
type Pipeline struct {
	news       ArticleSource
	indicators IndicatorProvider
	predictor  PricePredictor
	decider    DecisionMaker
	log        *slog.Logger
}

// NewPipeline assembles the signal pipeline. Any of news, indicators, and
// predictor may be nil to disable that source; decider must be non-nil.
func NewPipeline(news ArticleSource, indicators IndicatorProvider, predictor PricePredictor, decider DecisionMaker, log *slog.Logger) *Pipeline {
	return &Pipeline{
		news:       news,
		indicators: indicators,
		predictor:  predictor,
		decider:    decider,
		log:        log.With("component", "signal_pipeline"),
	}
}

// Decide produces one trade decision for symbol.
func (p *Pipeline) Decide(ctx context.Context, symbol string) (*domain.TradeDecision, error) {
	in := DecisionInput{Symbol: symbol}

	if p.news != nil {
		end := time.Now()
		articles, err := p.news.Fetch(ctx, symbol, end.Add(-newsWindow), end)
		if err != nil {
			p.log.Warn("news fetch failed", "symbol", symbol, "error", err)
		} else {
			in.Sentiment = ScoreArticles(articles)
			for _, a := range articles {
				in.Headlines = append(in.Headlines, a.Headline)
			}
		}
	}

	if p.indicators != nil {
		snapshot, err := p.indicators.Snapshot(ctx, symbol)
		if err != nil {
			p.log.Warn("indicator snapshot failed", "symbol", symbol, "error", err)
		} else {
			in.Indicators = snapshot
		}
	}

	if p.predictor != nil {
		prediction, err := p.predictor.Predict(ctx, symbol)
		if err != nil {
			p.log.Warn("prediction failed", "symbol", symbol, "error", err)
		} else {
			in.Prediction = prediction
		}
	}

	decision, err := p.decider.Decide(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("requesting decision: %w", err)
	}

	p.log.Info("decision received",
		"symbol", symbol,
		"action", decision.Action,
		"confidence", decision.Confidence,
	)
	return decision, nil
}
