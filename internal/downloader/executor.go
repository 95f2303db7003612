// Package downloader fetches raw media bytes with bounded retries, a
// shared connection ceiling and an optional bytes/second rate limit.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// PartSuffix marks in-progress downloads; the file is renamed into place
// only after the body was written completely.
const PartSuffix = ".part"

const copyChunkSize = 64 * 1024

// Config controls retry, pacing and concurrency behavior.
type Config struct {
	MaxRetries     int // 0 disables retry, negative retries indefinitely
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxConnections int
	RateLimit      int64         // bytes per second, 0 for unlimited
	Sleep          time.Duration // delay before each item's first fetch
}

type httpStatusError struct {
	StatusCode int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("download failed: status=%d", e.StatusCode)
}

// Executor performs media fetches. One Executor is shared by all items of
// a run; its semaphore enforces the maximum-connections ceiling.
type Executor struct {
	client  *http.Client
	cfg     Config
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

func New(client *http.Client, cfg Config) *Executor {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 3 * time.Second
	}
	if cfg.MaxConnections < 1 {
		cfg.MaxConnections = 1
	}
	e := &Executor{
		client: client,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConnections)),
	}
	if cfg.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), copyChunkSize)
	}
	return e
}

// Pause applies the configured per-item sleep delay. Applied once before
// an item's downloads, not between the legs of the same item.
func (e *Executor) Pause(ctx context.Context) error {
	if e.cfg.Sleep <= 0 {
		return nil
	}
	return waitBackoff(ctx, e.cfg.Sleep)
}

// Fetch downloads url into destPath. The transfer is retried on transport
// failure up to the configured count; the destination only appears under
// its final name after a complete download.
func (e *Executor) Fetch(ctx context.Context, url, destPath string) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)

	var lastErr error
	for attempt := 0; e.cfg.MaxRetries < 0 || attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := waitBackoff(ctx, e.backoffFor(attempt-1)); err != nil {
				return err
			}
		}
		lastErr = e.fetchOnce(ctx, url, destPath)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (e *Executor) fetchOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{StatusCode: resp.StatusCode}
	}

	partPath := destPath + PartSuffix
	f, err := os.Create(partPath)
	if err != nil {
		return err
	}
	if err := e.copyBody(ctx, f, resp.Body); err != nil {
		f.Close()
		os.Remove(partPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(partPath)
		return err
	}
	return os.Rename(partPath, destPath)
}

// copyBody copies in fixed chunks so the rate limiter can pace the
// transfer and cancellation is observed between chunks.
func (e *Executor) copyBody(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, copyChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if e.limiter != nil {
				if err := e.limiter.WaitN(ctx, n); err != nil {
					return err
				}
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func (e *Executor) backoffFor(attempt int) time.Duration {
	backoff := e.cfg.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > e.cfg.MaxBackoff {
			return e.cfg.MaxBackoff
		}
	}
	return backoff
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return true
}

func waitBackoff(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
