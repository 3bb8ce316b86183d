package research

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/internal/metrics"
)

// Options configure a Client.
type Options struct {
	// Providers are tried in order; each gets exactly one attempt.
	Providers []Provider
	Searchers []Searcher
	// Timeout bounds a single provider call.
	Timeout time.Duration
	// MaxHistory keeps only the newest history entries.
	MaxHistory int
}

// Client maps every failure to a degraded Reply.
type Client struct {
	providers  []Provider
	searchers  []Searcher
	timeout    time.Duration
	maxHistory int
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 20
	}
	return &Client{
		providers:  opts.Providers,
		searchers:  opts.Searchers,
		timeout:    opts.Timeout,
		maxHistory: opts.MaxHistory,
	}
}

// Complete answers req. It never fails: when every provider errors the
// Reply holds Unavailable and Degraded is set.
func (c *Client) Complete(ctx context.Context, req Request) Reply {
	start := time.Now()
	system := req.Persona.SystemPrompt()
	if req.Search && len(c.searchers) > 0 {
		query := req.Query
		if query == "" {
			query = req.Prompt
		}
		if blob := ContextBlob(Gather(ctx, c.searchers, query)); blob != "" {
			system += "\n\nUse these search results as context when they are relevant:\n" + blob
		}
	}

	msgs := append(TrimHistory(req.History, c.maxHistory), Message{Role: RoleUser, Content: req.Prompt})
	text, ok := c.first(ctx, Completion{System: system, Messages: msgs})
	if !ok {
		logger.Warn(ctx, logger.CompResearch, "research.degraded",
			slog.String("persona", string(req.Persona)),
			slog.Duration("took", logger.Took(start)),
		)
		return Reply{Text: Unavailable, Degraded: true}
	}

	logger.Debug(ctx, logger.CompResearch, "research.done",
		slog.String("persona", string(req.Persona)),
		slog.Int("history", len(msgs)-1),
		slog.Int("chars", len(text)),
		slog.Duration("took", logger.Took(start)),
	)
	return Reply{Text: text}
}

func (c *Client) first(ctx context.Context, comp Completion) (string, bool) {
	for _, p := range c.providers {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		text, err := p.Complete(callCtx, comp)
		cancel()
		metrics.RecordCompletion(p.Name(), err, time.Since(start))
		if err == nil {
			return text, true
		}
		logger.Error(ctx, logger.CompResearch, "provider.failed",
			slog.String("provider", p.Name()),
			slog.Duration("took", logger.Took(start)),
			slog.String("err", err.Error()),
		)
	}
	return "", false
}

// TrimHistory returns at most max of the newest entries of h as a fresh slice.
func TrimHistory(h []Message, max int) []Message {
	if max > 0 && len(h) > max {
		h = h[len(h)-max:]
	}
	out := make([]Message, len(h), len(h)+1)
	copy(out, h)
	return out
}
