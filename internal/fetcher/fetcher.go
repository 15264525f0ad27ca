package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/pkg/utils"
)

// FetchError is returned when a URL could not be retrieved after all retry
// attempts. It carries the last observed HTTP status and the last cause.
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("failed to fetch %s after %d attempts (last status %d)", e.URL, e.Attempts, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves URLs with retry, exponential backoff and per-domain
// politeness. Safe for concurrent use.
type Fetcher struct {
	client        *http.Client
	limiter       *domainLimiter
	userAgent     string
	maxRetries    int
	retryDelay    time.Duration
	maxRetryDelay time.Duration
	logger        logging.Logger
}

// New creates a Fetcher from the crawler configuration
func New(cfg *config.Config) *Fetcher {
	maxRetries := cfg.Crawler.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := cfg.Crawler.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	maxRetryDelay := cfg.Crawler.MaxRetryDelay
	if maxRetryDelay <= 0 {
		maxRetryDelay = 30 * time.Second
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Crawler.RequestTimeout,
		},
		limiter:       newDomainLimiter(cfg.Crawler.RateLimit),
		userAgent:     cfg.Crawler.UserAgent,
		maxRetries:    maxRetries,
		retryDelay:    retryDelay,
		maxRetryDelay: maxRetryDelay,
		logger:        logging.GetGlobalLogger().WithField("component", "fetcher"),
	}
}

// Fetch retrieves a URL and returns its body
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.do(ctx, http.MethodGet, url, "", nil, nil)
}

// FetchWithHeaders retrieves a URL with extra request headers
func (f *Fetcher) FetchWithHeaders(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return f.do(ctx, http.MethodGet, url, "", nil, headers)
}

// FetchWithBody performs a request with an explicit method and body, for
// sources whose listings sit behind a POST API
func (f *Fetcher) FetchWithBody(ctx context.Context, method, url, contentType string, body []byte) ([]byte, error) {
	return f.do(ctx, method, url, contentType, body, nil)
}

// do runs the retrying request loop. Non-2xx responses are treated as
// transient and retried; a 429 response waits three times the normal backoff
// before the next attempt.
func (f *Fetcher) do(ctx context.Context, method, url, contentType string, reqBody []byte, headers map[string]string) ([]byte, error) {
	var lastErr error
	lastStatus := 0

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := f.limiter.Wait(ctx, utils.ExtractDomain(url)); err != nil {
			return nil, err
		}

		f.logger.Debug("Fetching URL", map[string]interface{}{
			"url":     url,
			"attempt": attempt,
			"max":     f.maxRetries,
		})

		body, status, err := f.doRequest(ctx, method, url, contentType, reqBody, headers)
		if err == nil && status >= 200 && status < 300 {
			return body, nil
		}

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = err
			f.logger.Warn("Fetch attempt failed", map[string]interface{}{
				"url":     url,
				"attempt": attempt,
				"error":   err.Error(),
			})
		} else {
			lastStatus = status
			lastErr = fmt.Errorf("HTTP error: %d", status)
			f.logger.Warn("HTTP error response", map[string]interface{}{
				"url":     url,
				"attempt": attempt,
				"status":  status,
			})
		}

		if attempt < f.maxRetries {
			delay := f.retryBackoff(attempt)
			if status == http.StatusTooManyRequests {
				// Rate limited, wait considerably longer
				delay *= 3
			}
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, &FetchError{
		URL:        url,
		StatusCode: lastStatus,
		Attempts:   f.maxRetries,
		Err:        lastErr,
	}
}

func (f *Fetcher) doRequest(ctx context.Context, method, url, contentType string, reqBody []byte, headers map[string]string) ([]byte, int, error) {
	var bodyReader io.Reader
	if len(reqBody) > 0 {
		bodyReader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return body, resp.StatusCode, nil
}

// retryBackoff computes the exponential backoff with jitter for an attempt:
// min(base*2^(attempt-1) + uniform(0, base*2^(attempt-1)/4), cap)
func (f *Fetcher) retryBackoff(attempt int) time.Duration {
	base := f.retryDelay << (attempt - 1)
	jitter := time.Duration(0)
	if base/4 > 0 {
		jitter = time.Duration(rand.Int63n(int64(base / 4)))
	}
	delay := base + jitter
	if delay > f.maxRetryDelay {
		delay = f.maxRetryDelay
	}
	return delay
}

// sleepContext sleeps for the given duration, returning early with the
// context error when cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
