package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"
)

// Operation performs one round trip and returns the raw response.
type Operation func(ctx context.Context) (*Response, error)

// ExecutorConfig holds retry configuration.
type ExecutorConfig struct {
	// Retries is the number of additional attempts after the first
	// failure. A persistently-failing operation runs Retries+1 times.
	Retries int
	// RetryDelay is the fixed wait between attempts. Defaults to 300ms.
	RetryDelay time.Duration
}

// Executor runs operations against the console API with bounded retry
// and uniform error shaping. Retries are unconditional on error kind:
// there is no distinction between transient and permanent failures.
// It holds no shared mutable state other than its configuration and
// request counters.
type Executor struct {
	client     *Client
	retries    int
	retryDelay time.Duration

	totalRequests   int64
	successRequests int64
	failedRequests  int64
	retriedRequests int64
}

// NewExecutor creates an executor over the given transport.
func NewExecutor(client *Client, cfg ExecutorConfig) *Executor {
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = 300 * time.Millisecond
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	return &Executor{
		client:     client,
		retries:    retries,
		retryDelay: retryDelay,
	}
}

// Client returns the underlying transport.
func (e *Executor) Client() *Client { return e.client }

// Do invokes op, retrying on any failure until the attempt budget is
// spent, then returns the normalized API error. A non-2xx response
// counts as a failure.
func (e *Executor) Do(ctx context.Context, op Operation) (*Response, error) {
	var lastErr *Error

	for attempt := 0; attempt <= e.retries; attempt++ {
		if attempt > 0 {
			atomic.AddInt64(&e.retriedRequests, 1)
			observeRetry()
			select {
			case <-ctx.Done():
				atomic.AddInt64(&e.failedRequests, 1)
				return nil, normalizeError(ctx.Err())
			case <-time.After(e.retryDelay):
			}
		}

		atomic.AddInt64(&e.totalRequests, 1)
		start := time.Now()
		resp, err := op(ctx)
		if err != nil {
			lastErr = normalizeError(err)
			observeRequest(0, time.Since(start))
			continue
		}
		observeRequest(resp.StatusCode, time.Since(start))
		if resp.StatusCode >= http.StatusBadRequest {
			lastErr = errorFromResponse(resp)
			continue
		}

		atomic.AddInt64(&e.successRequests, 1)
		return resp, nil
	}

	atomic.AddInt64(&e.failedRequests, 1)
	e.client.log.WithError(lastErr).Error("request failed after retries")
	return nil, lastErr
}

// Metrics returns the executor's request counters.
func (e *Executor) Metrics() map[string]int64 {
	return map[string]int64{
		"total_requests":   atomic.LoadInt64(&e.totalRequests),
		"success_requests": atomic.LoadInt64(&e.successRequests),
		"failed_requests":  atomic.LoadInt64(&e.failedRequests),
		"retried_requests": atomic.LoadInt64(&e.retriedRequests),
	}
}

// =============================================================================
// Convenience Wrappers
// =============================================================================

// List fetches a page of records from a collection path.
func (e *Executor) List(ctx context.Context, path string, params url.Values) (*Page, error) {
	resp, err := e.Do(ctx, func(ctx context.Context) (*Response, error) {
		return e.client.Get(ctx, path, params)
	})
	if err != nil {
		return nil, err
	}
	return decodePage(resp.Body)
}

// GetByID fetches a single record. A 404 outcome is an absence, not a
// failure: it returns (nil, nil).
func (e *Executor) GetByID(ctx context.Context, path, id string) (Record, error) {
	resp, err := e.Do(ctx, func(ctx context.Context) (*Response, error) {
		return e.client.Get(ctx, path+"/"+url.PathEscape(id), nil)
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord(resp.Body)
}

// Create posts a new record to a collection path and returns the server's
// representation.
func (e *Executor) Create(ctx context.Context, path string, payload Record) (Record, error) {
	resp, err := e.Do(ctx, func(ctx context.Context) (*Response, error) {
		return e.client.Post(ctx, path, payload)
	})
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp.Body)
}

// UpdateByID puts an updated record and returns the server's
// representation.
func (e *Executor) UpdateByID(ctx context.Context, path, id string, payload Record) (Record, error) {
	resp, err := e.Do(ctx, func(ctx context.Context) (*Response, error) {
		return e.client.Put(ctx, path+"/"+url.PathEscape(id), payload)
	})
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp.Body)
}

// DeleteByID removes a record.
func (e *Executor) DeleteByID(ctx context.Context, path, id string) error {
	_, err := e.Do(ctx, func(ctx context.Context) (*Response, error) {
		return e.client.Delete(ctx, path+"/"+url.PathEscape(id))
	})
	return err
}

func itoa(n int) string { return strconv.Itoa(n) }
