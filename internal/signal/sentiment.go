package signal

import "strings"

// Sentiment is an aggregate score over a batch of articles. Score is in
// [-1, 1]; Label is one of "positive", "negative", "neutral".
type Sentiment struct {
	Score    float64
	Label    string
	Articles int
}

var positiveWords = map[string]bool{
	"beat": true, "beats": true, "bullish": true, "buy": true,
	"gain": true, "gains": true, "growth": true, "jump": true,
	"jumps": true, "outperform": true, "profit": true, "rally": true,
	"record": true, "rise": true, "rises": true, "soar": true,
	"soars": true, "strong": true, "surge": true, "surges": true,
	"upgrade": true, "upgraded": true, "win": true, "wins": true,
}

var negativeWords = map[string]bool{
	"bearish": true, "crash": true, "cut": true, "cuts": true,
	"decline": true, "declines": true, "downgrade": true,
	"downgraded": true, "drop": true, "drops": true, "fall": true,
	"falls": true, "fear": true, "lawsuit": true, "loss": true,
	"losses": true, "miss": true, "misses": true, "plunge": true,
	"plunges": true, "recall": true, "sell": true, "slump": true,
	"tumble": true, "tumbles": true, "warning": true, "weak": true,
}

// ScoreArticles scores a batch of articles by keyword counting. A crude
// baseline signal for the decision prompt, not a classifier: the AI call
// receives the headlines too and can override it.
func ScoreArticles(articles []Article) Sentiment {
	if len(articles) == 0 {
		return Sentiment{Label: "neutral"}
	}

	var pos, neg int
	for _, a := range articles {
		text := strings.ToLower(a.Headline + " " + a.Content)
		for _, word := range strings.FieldsFunc(text, func(r rune) bool {
			return !('a' <= r && r <= 'z')
		}) {
			if positiveWords[word] {
				pos++
			} else if negativeWords[word] {
				neg++
			}
		}
	}

	total := pos + neg
	s := Sentiment{Articles: len(articles), Label: "neutral"}
	if total == 0 {
		return s
	}

	s.Score = float64(pos-neg) / float64(total)
	switch {
	case s.Score > 0.2:
		s.Label = "positive"
	case s.Score < -0.2:
		s.Label = "negative"
	}
	return s
}
