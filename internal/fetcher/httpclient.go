package fetcher

import (
	"time"

	"resty.dev/v3"
)

const (
	defaultUserAgent = "marketpulse/1.0"
	defaultTimeout   = 10 * time.Second
)

// HTTPOptions configures a pooled HTTP session.
type HTTPOptions struct {
	BaseURL string
	Accept  string
	Timeout time.Duration
}

// NewHTTPClient creates a pooled HTTP client. Resty's own retry is disabled:
// retries are driven by Retry so that every fault, including decode
// failures, shares one backoff schedule.
func NewHTTPClient(opts HTTPOptions) *resty.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", defaultUserAgent).
		SetRetryCount(0)

	if opts.Accept != "" {
		client.SetHeader("Accept", opts.Accept)
	}

	return client
}
