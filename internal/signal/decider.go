package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/domain"
)

// DecisionInput bundles everything the decision call sees for one cycle.
type DecisionInput struct {
	Symbol     string
	Sentiment  Sentiment
	Indicators *Indicators
	Prediction *Prediction
	Headlines  []string
}

// Decider turns a cycle's signals into a typed trade decision via a
// chat-completions API. A response that cannot be parsed is a cycle error,
// never a silent hold: the caller must see decision failures.
type Decider struct {
	client *resty.Client
	model  string
}

// NewDecider creates a Decider against an OpenAI-compatible endpoint.
func NewDecider(baseURL, apiKey, model string, timeout time.Duration) *Decider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &Decider{client: client, model: model}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// rawDecision is the JSON contract the model is prompted to emit.
type rawDecision struct {
	Action      string  `json:"action"`
	StopLoss    float64 `json:"stop_loss"`
	PriceTarget float64 `json:"price_target"`
	Confidence  float64 `json:"confidence"`
	Rationale   string  `json:"rationale"`
}

const systemPrompt = `You are a trading assistant for a single-symbol equity bot.
Reply with a single JSON object, no prose:
{"action": "buy"|"sell"|"hold", "stop_loss": number, "price_target": number, "confidence": 0.0-1.0, "rationale": "one sentence"}
Set stop_loss and price_target to 0 to accept the bot's defaults. Prefer "hold" when signals conflict.`

// Decide requests one trade decision for the given inputs.
func (d *Decider) Decide(ctx context.Context, in DecisionInput) (*domain.TradeDecision, error) {
	req := chatRequest{
		Model:       d.model,
		Temperature: 0.2,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(in)},
		},
	}

	var out chatResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%w: decision service: %w", domain.ErrService, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: decision service returned %s", domain.ErrService, resp.Status())
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: decision service returned no choices", domain.ErrService)
	}

	return parseDecision(in.Symbol, out.Choices[0].Message.Content)
}

// parseDecision decodes the model's reply, unwrapping a markdown code
// fence if present.
func parseDecision(symbol, content string) (*domain.TradeDecision, error) {
	var raw rawDecision
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		clean := extractJSON(content)
		if err := json.Unmarshal([]byte(clean), &raw); err != nil {
			return nil, fmt.Errorf("parsing decision reply: %w", err)
		}
	}

	action := domain.Action(strings.ToLower(strings.TrimSpace(raw.Action)))
	switch action {
	case domain.ActionBuy, domain.ActionSell, domain.ActionHold:
	default:
		return nil, fmt.Errorf("decision reply has unknown action %q", raw.Action)
	}

	decision := &domain.TradeDecision{
		Symbol:     symbol,
		Action:     action,
		Confidence: raw.Confidence,
		Rationale:  raw.Rationale,
	}
	if raw.StopLoss > 0 {
		v := decimal.NewFromFloat(raw.StopLoss)
		decision.StopLoss = &v
	}
	if raw.PriceTarget > 0 {
		v := decimal.NewFromFloat(raw.PriceTarget)
		decision.PriceTarget = &v
	}
	return decision, nil
}

func buildPrompt(in DecisionInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Symbol: %s\n", in.Symbol)

	if in.Indicators != nil {
		fmt.Fprintf(&b, "Last close: %.2f\nSMA5: %.2f\nSMA20: %.2f\nRSI14: %.1f\nTrend: %s\n",
			in.Indicators.LastClose, in.Indicators.SMAFast, in.Indicators.SMASlow, in.Indicators.RSI,
			in.Indicators.Signal())
	}
	if in.Prediction != nil {
		fmt.Fprintf(&b, "Model forecast: %.2f (%+.2f%%, confidence %.2f)\n",
			in.Prediction.PredictedPrice, in.Prediction.PredictedChange, in.Prediction.ConfidenceScore)
	}
	fmt.Fprintf(&b, "News sentiment: %s (score %.2f over %d articles)\n",
		in.Sentiment.Label, in.Sentiment.Score, in.Sentiment.Articles)

	if len(in.Headlines) > 0 {
		b.WriteString("Recent headlines:\n")
		max := len(in.Headlines)
		if max > 10 {
			max = 10
		}
		for _, h := range in.Headlines[:max] {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	return b.String()
}

// extractJSON pulls the body out of a ```json fenced block.
func extractJSON(text string) string {
	start := strings.Index(text, "```")
	if start == -1 {
		return text
	}
	start += 3
	if strings.HasPrefix(text[start:], "json") {
		start += 4
	}
	for start < len(text) && text[start] == '\n' {
		start++
	}
	end := strings.Index(text[start:], "```")
	if end == -1 {
		return text
	}
	return text[start : start+end]
}
