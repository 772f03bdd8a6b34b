package codegolf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schaermu/golfsync/internal/solution"
)

const (
	// DefaultBaseURL is the public code.golf site
	DefaultBaseURL = "https://code.golf"
	// ExportPath returns every solution of the authenticated golfer
	ExportPath = "/golfer/export"
	// SessionCookie carries the session token
	SessionCookie = "__Host-session"

	defaultUserAgent      = "golfsync"
	defaultMaxAttempts    = 3
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultTimeout        = 30 * time.Second
	maxResponseSize       = 32 * 1024 * 1024
)

// Options configures a Client. It is built once at startup and carries the
// session explicitly.
type Options struct {
	BaseURL        string
	Session        string
	UserAgent      string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// OnlyScoring keeps only solutions for this scoring metric when set
	OnlyScoring string
	// KeepScoringName disables collapsing identical bytes/chars solutions
	KeepScoringName bool

	HTTPClient *http.Client
}

// Client fetches solutions from code.golf
type Client struct {
	opts    Options
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	maxBody int64
}

// NewClient creates a client for the given options. A session that is not a
// UUID is rejected before any request is made.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	opts.Session = strings.TrimSpace(opts.Session)
	if opts.Session == "" {
		return nil, &AuthenticationError{Reason: "no session token provided"}
	}
	if _, err := uuid.Parse(opts.Session); err != nil {
		return nil, &AuthenticationError{
			Reason: fmt.Sprintf("session token is not a valid UUID, make sure it is the value of the %q cookie", SessionCookie),
		}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		opts:    opts,
		baseURL: u.String(),
		http:    httpClient,
		logger:  logger,
		sleep:   sleepContext,
		maxBody: maxResponseSize,
	}, nil
}

// FetchSolutions downloads the export and returns normalized records sorted
// by key. Transport failures are retried with exponential backoff.
func (c *Client) FetchSolutions(ctx context.Context) ([]solution.Record, error) {
	export, err := c.fetchWithRetry(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("export downloaded", "solutions", len(export.Solutions))

	records := normalize(export.Solutions, normalizeOptions{
		OnlyScoring:     c.opts.OnlyScoring,
		KeepScoringName: c.opts.KeepScoringName,
	}, c.logger)

	c.logger.Info("solutions normalized", "records", len(records))
	return records, nil
}

func (c *Client) fetchWithRetry(ctx context.Context) (*exportResponse, error) {
	backoff := c.opts.InitialBackoff
	for attempt := 1; ; attempt++ {
		export, err := c.fetchExport(ctx)
		if err == nil {
			return export, nil
		}

		var te *TransportError
		if !errors.As(err, &te) {
			return nil, err
		}
		te.Attempts = attempt
		if !te.Retryable || attempt >= c.opts.MaxAttempts {
			return nil, te
		}

		c.logger.Warn("export request failed, retrying",
			"attempt", attempt,
			"max_attempts", c.opts.MaxAttempts,
			"backoff", backoff,
			"error", te.Err)

		if err := c.sleep(ctx, backoff); err != nil {
			te.Err = fmt.Errorf("%w (retry aborted: %w)", te.Err, err)
			return nil, te
		}
		backoff *= 2
		if backoff > c.opts.MaxBackoff {
			backoff = c.opts.MaxBackoff
		}
	}
}

// fetchExport performs a single export request
func (c *Client) fetchExport(ctx context.Context) (*exportResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ExportPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.opts.Session})

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Retryable: ctx.Err() == nil, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Retryable: true, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthenticationError{StatusCode: resp.StatusCode, Reason: "session token rejected, it may have expired"}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &TransportError{StatusCode: resp.StatusCode, Retryable: true, Err: errors.New(http.StatusText(resp.StatusCode))}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	if int64(len(body)) > c.maxBody {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("response too large (limit %d bytes)", c.maxBody)}
	}

	var export exportResponse
	if err := json.Unmarshal(body, &export); err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("parse export: %w", err)}
	}
	return &export, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
