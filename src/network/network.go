package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"chart-stream/src/helpers"
	"chart-stream/src/logger"
	"chart-stream/src/models"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxBodyBytes          = 64 << 20
	userAgent             = "chart-stream/1.0"
)

// HTTPFetcher downloads data files served over http(s).
type HTTPFetcher struct {
	Client     *http.Client
	MaxRetries int
	Logger     *logger.Logger
}

// -----------------------------------------------------------------------------

func NewHTTPFetcher(cfg *models.MConfig, log *logger.Logger) *HTTPFetcher {
	timeout := defaultRequestTimeout
	retries := 0
	if cfg != nil {
		if cfg.Data.RequestTimeout > 0 {
			timeout = time.Duration(cfg.Data.RequestTimeout) * time.Second
		}
		retries = cfg.Data.MaxRetries
	}

	return &HTTPFetcher{
		Client:     &http.Client{Timeout: timeout},
		MaxRetries: retries,
		Logger:     log,
	}
}

// -----------------------------------------------------------------------------

// Get performs a GET request, retrying transport errors and 429/5xx responses
// with quadratic backoff.
func (f *HTTPFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for i := 0; i <= f.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i*i) * time.Second):
			}
		}

		body, retry, err := f.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			break
		}
		f.Logger.Info("Request to %s failed (attempt %d/%d): %v", url, i+1, f.MaxRetries+1, err)
	}

	return nil, helpers.NewDataError(fmt.Sprintf("fetch %s", url), lastErr)
}

// -----------------------------------------------------------------------------

func (f *HTTPFetcher) do(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("bad status: %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}
