package research

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/core/telegram/netutil"
	"github.com/m3rciful/scholarbot/internal/metrics"
)

const (
	userAgent      = "scholarbot/1.0 (+https://t.me)"
	resultsPerHost = 3
	snippetLimit   = 400
)

// Default public endpoints.
const (
	WikipediaURL  = "https://en.wikipedia.org"
	DuckDuckGoURL = "https://api.duckduckgo.com"
	OpenAlexURL   = "https://api.openalex.org"
)

var tagRe = regexp.MustCompile(`<[^>]+>`)

func newHTTP(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(1).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.Request != nil && netutil.Retryable(r.Request.Method, r.StatusCode(), err)
		})
}

func clean(s string) string {
	s = html.UnescapeString(tagRe.ReplaceAllString(s, ""))
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > snippetLimit {
		s = string(r[:snippetLimit]) + "…"
	}
	return s
}

// Wikipedia queries the MediaWiki full-text search.
type Wikipedia struct{ http *resty.Client }

func NewWikipedia(baseURL string, timeout time.Duration) *Wikipedia {
	return &Wikipedia{http: newHTTP(baseURL, timeout)}
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) Search(ctx context.Context, query string) ([]Result, error) {
	var body struct {
		Query struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	resp, err := w.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":   "query",
			"list":     "search",
			"srsearch": query,
			"srlimit":  strconv.Itoa(resultsPerHost),
			"format":   "json",
		}).
		SetResult(&body).
		Get("/w/api.php")
	if err != nil {
		return nil, fmt.Errorf("wikipedia request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("wikipedia status %d", resp.StatusCode())
	}
	out := make([]Result, 0, len(body.Query.Search))
	for _, s := range body.Query.Search {
		out = append(out, Result{
			Source:  w.Name(),
			Title:   s.Title,
			Snippet: clean(s.Snippet),
			URL:     "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(s.Title, " ", "_"),
		})
	}
	return out, nil
}

// DuckDuckGo uses the instant answer API.
type DuckDuckGo struct{ http *resty.Client }

func NewDuckDuckGo(baseURL string, timeout time.Duration) *DuckDuckGo {
	return &DuckDuckGo{http: newHTTP(baseURL, timeout)}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	var body struct {
		Heading       string `json:"Heading"`
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	resp, err := d.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":             query,
			"format":        "json",
			"no_html":       "1",
			"skip_disambig": "1",
		}).
		SetResult(&body).
		// the API answers with application/x-javascript
		ForceContentType("application/json").
		Get("/")
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("duckduckgo status %d", resp.StatusCode())
	}
	var out []Result
	if body.AbstractText != "" {
		out = append(out, Result{Source: d.Name(), Title: body.Heading, Snippet: clean(body.AbstractText), URL: body.AbstractURL})
	}
	for _, t := range body.RelatedTopics {
		if len(out) >= resultsPerHost {
			break
		}
		if t.Text == "" {
			continue
		}
		out = append(out, Result{Source: d.Name(), Snippet: clean(t.Text), URL: t.FirstURL})
	}
	return out, nil
}

// OpenAlex searches scholarly works.
type OpenAlex struct{ http *resty.Client }

func NewOpenAlex(baseURL string, timeout time.Duration) *OpenAlex {
	return &OpenAlex{http: newHTTP(baseURL, timeout)}
}

func (o *OpenAlex) Name() string { return "openalex" }

func (o *OpenAlex) Search(ctx context.Context, query string) ([]Result, error) {
	var body struct {
		Results []struct {
			DisplayName     string `json:"display_name"`
			PublicationYear int    `json:"publication_year"`
			DOI             string `json:"doi"`
			ID              string `json:"id"`
		} `json:"results"`
	}
	resp, err := o.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search":   query,
			"per-page": strconv.Itoa(resultsPerHost),
		}).
		SetResult(&body).
		Get("/works")
	if err != nil {
		return nil, fmt.Errorf("openalex request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openalex status %d", resp.StatusCode())
	}
	out := make([]Result, 0, len(body.Results))
	for _, w := range body.Results {
		url := w.DOI
		if url == "" {
			url = w.ID
		}
		snippet := ""
		if w.PublicationYear > 0 {
			snippet = "Published " + strconv.Itoa(w.PublicationYear)
		}
		out = append(out, Result{Source: o.Name(), Title: clean(w.DisplayName), Snippet: snippet, URL: url})
	}
	return out, nil
}

// SearXNG queries a self-hosted metasearch instance.
type SearXNG struct{ http *resty.Client }

func NewSearXNG(baseURL string, timeout time.Duration) *SearXNG {
	return &SearXNG{http: newHTTP(baseURL, timeout)}
}

func (s *SearXNG) Name() string { return "searxng" }

func (s *SearXNG) Search(ctx context.Context, query string) ([]Result, error) {
	var body struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetQueryParam("format", "json").
		SetQueryParam("safesearch", "1").
		SetResult(&body).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("searxng request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("searxng status %d", resp.StatusCode())
	}
	out := make([]Result, 0, resultsPerHost)
	for _, r := range body.Results {
		if len(out) >= resultsPerHost {
			break
		}
		out = append(out, Result{Source: s.Name(), Title: clean(r.Title), Snippet: clean(r.Content), URL: r.URL})
	}
	return out, nil
}

// Gather queries every searcher concurrently and waits for all of them. A
// failing backend contributes no results. Output keeps the searcher order.
func Gather(ctx context.Context, searchers []Searcher, query string) []Result {
	buckets := make([][]Result, len(searchers))
	var g errgroup.Group
	for i, s := range searchers {
		g.Go(func() error {
			start := time.Now()
			res, err := s.Search(ctx, query)
			metrics.RecordSearch(s.Name(), err)
			if err != nil {
				logger.Warn(ctx, logger.CompSearch, "search.failed",
					slog.String("backend", s.Name()),
					slog.Duration("took", logger.Took(start)),
					slog.String("err", err.Error()),
				)
				return nil
			}
			buckets[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var out []Result
	for _, b := range buckets {
		out = append(out, b...)
	}
	return out
}

// ContextBlob renders results for inclusion in a system prompt.
func ContextBlob(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] (%s) %s", i+1, r.Source, r.Title)
		if r.Snippet != "" {
			b.WriteString(" - ")
			b.WriteString(r.Snippet)
		}
		if r.URL != "" {
			b.WriteString(" <")
			b.WriteString(r.URL)
			b.WriteString(">")
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
