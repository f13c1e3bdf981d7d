package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"resty.dev/v3"

	"marketpulse/internal/fetcher"
	"marketpulse/internal/instrument"
	"marketpulse/internal/metrics"
)

const (
	// DefaultBaseURL is the Google News RSS search endpoint.
	DefaultBaseURL = "https://news.google.com/rss/search"
	// DefaultRegionTerm is appended to every search query.
	DefaultRegionTerm = "philippines"
	// DefaultLanguage is the feed language, used in hl and ceid.
	DefaultLanguage = "en"
	// DefaultCountry is the feed edition, used in hl, gl and ceid.
	DefaultCountry = "PH"

	defaultTimeout = 10 * time.Second
	feedAccept     = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8"
)

// Config describes the news search endpoint and how queries are scoped.
type Config struct {
	BaseURL    string
	RegionTerm string
	Language   string
	Country    string
	Timeout    time.Duration
	Policy     fetcher.RetryPolicy
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RegionTerm == "" {
		c.RegionTerm = DefaultRegionTerm
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.Country == "" {
		c.Country = DefaultCountry
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Policy.MaxAttempts == 0 {
		c.Policy = fetcher.DefaultRetryPolicy()
	}
	return c
}

// Feed opens news sessions against a search feed endpoint.
type Feed struct {
	cfg    Config
	logger *zap.Logger
}

// NewFeed creates a Feed
func NewFeed(cfg Config, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{cfg: cfg.withDefaults(), logger: logger}
}

// Open implements fetcher.NewsOpener. The returned session owns one pooled
// HTTP client; Close releases its idle connections.
func (f *Feed) Open() fetcher.NewsSession {
	return &Session{
		cfg: f.cfg,
		client: fetcher.NewHTTPClient(fetcher.HTTPOptions{
			BaseURL: f.cfg.BaseURL,
			Accept:  feedAccept,
			Timeout: f.cfg.Timeout,
		}),
		logger: f.logger,
	}
}

// Session fetches headlines over a shared HTTP client. Safe for concurrent use.
type Session struct {
	cfg    Config
	client *resty.Client
	logger *zap.Logger
}

// Query returns the search parameters used for inst.
func (s *Session) Query(inst instrument.Instrument) map[string]string {
	return map[string]string{
		"q":    fmt.Sprintf("%s stock %s", inst.Name(), s.cfg.RegionTerm),
		"hl":   fmt.Sprintf("%s-%s", s.cfg.Language, s.cfg.Country),
		"gl":   s.cfg.Country,
		"ceid": fmt.Sprintf("%s:%s", s.cfg.Country, s.cfg.Language),
	}
}

// FetchNews returns the title of the most recent feed entry for inst.
func (s *Session) FetchNews(ctx context.Context, inst instrument.Instrument) fetcher.Result[string] {
	start := time.Now()
	log := s.logger.With(
		zap.String("ticker", inst.Name()),
		zap.String("action", fetcher.ActionFetchNews),
	)

	headline, attempts, err := fetcher.Retry(ctx, s.cfg.Policy, func(ctx context.Context) (string, error) {
		return s.fetchOnce(ctx, inst)
	}, func(attempt int, err error, wait time.Duration) {
		log.Debug("retrying fetch",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.String("error_kind", fetcher.Kind(err)),
			zap.Error(err))
	})

	var result fetcher.Result[string]
	switch {
	case err == nil:
		result = fetcher.Success(headline, attempts)
		log.Info("status",
			zap.String("status", string(result.Status)),
			zap.Int("attempts", attempts))
	case fetcher.IsNoData(err):
		result = fetcher.NoData[string](attempts)
		log.Info("status",
			zap.String("status", string(result.Status)),
			zap.Int("attempts", attempts))
	default:
		result = fetcher.Failed[string](err, attempts)
		log.Error("status",
			zap.String("status", string(result.Status)),
			zap.String("error_kind", fetcher.Kind(err)),
			zap.Int("attempts", attempts),
			zap.Error(err))
	}

	metrics.ObserveFetch(fetcher.ActionFetchNews, string(result.Status), attempts, start)
	return result
}

func (s *Session) fetchOnce(ctx context.Context, inst instrument.Instrument) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(s.Query(inst)).
		Get("")

	if err != nil {
		return "", fetcher.ClassifyTransportError(fmt.Errorf("failed to fetch news for %s: %w", inst.Name(), err))
	}

	if !resp.IsSuccess() {
		return "", fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	return firstTitle(resp.String())
}

// firstTitle parses an RSS or Atom document and returns its first entry's title.
func firstTitle(body string) (string, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return "", fetcher.NewParseError(err)
	}

	if len(feed.Items) == 0 || strings.TrimSpace(feed.Items[0].Title) == "" {
		return "", fetcher.ErrNoData
	}

	return feed.Items[0].Title, nil
}

// Close implements fetcher.NewsSession
func (s *Session) Close() error {
	return s.client.Close()
}
