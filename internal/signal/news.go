// Package signal assembles the inputs to a trade decision: recent news
// with sentiment, technical indicators, an external price prediction, and
// the AI decision call that turns them into a typed action.
package signal

import (
	"context"
	"encoding/xml"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/util"
)

// Article is a single news article from any source.
type Article struct {
	Time     time.Time
	Source   string
	Headline string
	Content  string
}

// NewsFetcher pulls recent articles for one symbol from Alpaca and Google
// News RSS. Sources fail independently: one source erroring does not drop
// the other's articles.
type NewsFetcher struct {
	md         *marketdata.Client
	httpClient *http.Client
	limiter    *util.RateLimiter
}

// NewNewsFetcher creates a fetcher backed by the given marketdata client.
// Fetch calls are rate limited to 30 per minute.
func NewNewsFetcher(md *marketdata.Client) *NewsFetcher {
	return &NewsFetcher{
		md:         md,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    util.NewRateLimiter(30),
	}
}

// Fetch returns articles from all sources in the [start, end] window,
// oldest first. It returns an error only when every source failed.
func (f *NewsFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]Article, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var articles []Article
	var firstErr error

	alpaca, err := f.fetchAlpaca(symbol, start, end)
	if err != nil {
		firstErr = err
	} else {
		articles = append(articles, alpaca...)
	}

	google, err := f.fetchGoogle(ctx, symbol, start, end)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		articles = append(articles, google...)
	}

	if len(articles) == 0 && firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].Time.Before(articles[j].Time)
	})
	return articles, nil
}

func (f *NewsFetcher) fetchAlpaca(symbol string, start, end time.Time) ([]Article, error) {
	raw, err := f.md.GetNews(marketdata.GetNewsRequest{
		Symbols:            []string{symbol},
		Start:              start,
		End:                end,
		TotalLimit:         50,
		IncludeContent:     true,
		ExcludeContentless: true,
		Sort:               marketdata.SortAsc,
	})
	if err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(raw))
	for _, a := range raw {
		body := ""
		if a.Content != "" {
			body = ExtractSymbolContent(a.Content, symbol)
		} else if a.Summary != "" {
			body = a.Summary
		}
		articles = append(articles, Article{
			Time:     a.CreatedAt,
			Source:   "alpaca",
			Headline: a.Headline,
			Content:  body,
		})
	}
	return articles, nil
}

type rssResponse struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description"`
}

func (f *NewsFetcher) fetchGoogle(ctx context.Context, symbol string, start, end time.Time) ([]Article, error) {
	q := url.QueryEscape(symbol + " stock")
	u := "https://news.google.com/rss/search?q=" + q + "&hl=en-US&gl=US&ceid=US:en"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rss rssResponse
	if err := xml.NewDecoder(resp.Body).Decode(&rss); err != nil {
		return nil, err
	}

	var articles []Article
	for _, item := range rss.Channel.Items {
		t, err := time.Parse(time.RFC1123Z, item.PubDate)
		if err != nil {
			t, err = time.Parse(time.RFC1123, item.PubDate)
			if err != nil {
				continue
			}
		}
		if t.Before(start) || t.After(end) {
			continue
		}
		headline := item.Title
		// Google appends " - <publisher>" to every title.
		if idx := strings.LastIndex(headline, " - "); idx > 0 {
			headline = headline[:idx]
		}
		articles = append(articles, Article{
			Time:     t,
			Source:   "google",
			Headline: headline,
			Content:  StripHTML(item.Desc),
		})
	}
	return articles, nil
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)
var htmlParaRe = regexp.MustCompile(`(?i)</?(p|br|div|li|h[1-6])\b[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// ExtractSymbolContent extracts paragraphs mentioning the symbol from HTML
// content. Falls back to the full stripped HTML if no paragraph matches.
func ExtractSymbolContent(rawHTML, symbol string) string {
	chunks := htmlParaRe.Split(rawHTML, -1)
	var matched []string
	upper := strings.ToUpper(symbol)
	for _, chunk := range chunks {
		plain := StripHTML(chunk)
		if plain == "" {
			continue
		}
		if strings.Contains(strings.ToUpper(plain), upper) {
			matched = append(matched, plain)
		}
	}
	if len(matched) > 0 {
		return strings.Join(matched, " ")
	}
	return StripHTML(rawHTML)
}
