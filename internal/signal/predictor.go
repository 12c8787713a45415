package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

// Prediction is the price-model output for one symbol.
type Prediction struct {
	CurrentPrice    float64 `json:"current_price"`
	PredictedPrice  float64 `json:"predicted_price"`
	PredictedChange float64 `json:"predicted_change_percent"`
	ConfidenceScore float64 `json:"confidence_score"`
	Timestamp       string  `json:"timestamp"`
}

// Predictor calls the external price-prediction service.
type Predictor struct {
	client *resty.Client
}

// NewPredictor creates a Predictor for the service at baseURL.
func NewPredictor(baseURL string, timeout time.Duration) *Predictor {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &Predictor{client: client}
}

// Predict fetches the model's forecast for symbol.
func (p *Predictor) Predict(ctx context.Context, symbol string) (*Prediction, error) {
	var out Prediction
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&out).
		Get("/predict")
	if err != nil {
		return nil, fmt.Errorf("%w: prediction service: %w", domain.ErrService, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: prediction service returned %s", domain.ErrService, resp.Status())
	}
	if out.PredictedPrice <= 0 {
		return nil, fmt.Errorf("%w: prediction service returned empty forecast", domain.ErrService)
	}
	return &out, nil
}
