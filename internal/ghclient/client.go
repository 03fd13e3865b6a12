// Package ghclient fetches workflow run history from the GitHub Actions API
// with caching, retries and rate-limit awareness.
package ghclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/internal/respcache"
	"github.com/huangsam/actionstat/schema"
)

// perPage is the provider's maximum page size. Fewer results than this on a
// page means the sequence is exhausted.
const perPage = 100

// Client is an APIClient backed by the GitHub REST API. Every read goes
// through the response cache; the shared limiter throttles the requests
// that miss.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      contract.ResponseCache
	limiter    contract.Limiter
	clock      contract.Clock

	maxRetries       int
	backoffBase      time.Duration
	backoffCap       time.Duration
	maxRateLimitWait time.Duration
}

var _ contract.APIClient = &Client{} // Compile-time check

// New creates a client from validated configuration.
func New(cfg *contract.Config, cache contract.ResponseCache, limiter contract.Limiter, clock contract.Clock) *Client {
	return &Client{
		baseURL:     cfg.APIBaseURL,
		token:       cfg.Token,
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		cache:       cache,
		limiter:     limiter,
		clock:       clock,
		maxRetries:       cfg.MaxRetries,
		backoffBase:      cfg.BackoffBase,
		backoffCap:       cfg.BackoffCap,
		maxRateLimitWait: cfg.MaxRateLimitWait,
	}
}

// ValidateToken implements the APIClient interface. It issues a lightweight
// authenticated call and never touches the cache.
func (c *Client) ValidateToken(ctx context.Context) error {
	_, err := c.fetchWithRetry(ctx, c.baseURL+"/user")
	return err
}

// FetchRuns implements the APIClient interface.
func (c *Client) FetchRuns(ctx context.Context, q contract.RunQuery) contract.RunIterator {
	return &runsIterator{ctx: ctx, client: c, query: q, page: 1}
}

// FetchJobs implements the APIClient interface. Jobs for a run are paginated
// the same way runs are, though most runs fit in a single page.
func (c *Client) FetchJobs(ctx context.Context, owner, repo string, runID int64) ([]schema.Job, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/actions/runs/%d/jobs", c.baseURL, owner, repo, runID)
	var jobs []schema.Job
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(perPage))
		params.Set("page", strconv.Itoa(page))
		params.Set("filter", "all")
		body, err := c.get(ctx, endpoint, params)
		if err != nil {
			return nil, err
		}
		decoded, err := decodeJobsPage(body)
		if err != nil {
			return nil, err
		}
		for _, j := range decoded.Jobs {
			jobs = append(jobs, j.toJob())
		}
		if len(decoded.Jobs) < perPage {
			return jobs, nil
		}
	}
}

// get resolves one GET request through the cache. The key is derived from
// the endpoint and its parameters only, so identical requests across
// sessions share entries.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	key := respcache.Key(endpoint, params)
	full := endpoint + "?" + params.Encode()
	body, _, err := c.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.fetchWithRetry(ctx, full)
	})
	return body, err
}

// fetchWithRetry drives the retry state machine for one logical request.
// Transient failures back off geometrically; rate limiting waits for the
// reported reset without consuming a retry attempt.
func (c *Client) fetchWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	machine := newRetryMachine(c.maxRetries, c.backoffBase, c.backoffCap)
	var body []byte
	var lastErr error
	for {
		switch machine.state {
		case StateAttempting:
			if err := c.limiter.Acquire(ctx); err != nil {
				return nil, err
			}
			res, reset, b, err := c.attempt(ctx, fullURL)
			body, lastErr = b, err
			machine.Observe(res, reset)
		case StateBackingOff:
			if err := c.clock.Sleep(ctx, machine.delay); err != nil {
				return nil, err
			}
			machine.Resume()
		case StateWaitingRateLimit:
			wait := machine.until.Sub(c.clock.Now())
			if c.maxRateLimitWait > 0 && wait > c.maxRateLimitWait {
				return nil, &contract.RateLimitError{Reset: machine.until, Wait: wait}
			}
			if err := c.clock.Sleep(ctx, wait); err != nil {
				return nil, err
			}
			machine.Resume()
		case StateSucceeded:
			return body, nil
		case StateFailed:
			if contract.IsRetryable(lastErr) {
				return nil, &contract.TransientError{Attempts: machine.Attempts(), Err: lastErr}
			}
			return nil, lastErr
		}
	}
}

// attempt performs a single HTTP round trip and classifies the outcome.
func (c *Client) attempt(ctx context.Context, fullURL string) (attemptResult, time.Time, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return attemptFatal, time.Time{}, nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return attemptFatal, time.Time{}, nil, ctx.Err()
		}
		return attemptTransient, time.Time{}, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	c.observeRateHeaders(resp)

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return attemptTransient, time.Time{}, nil, err
		}
		return attemptOK, time.Time{}, body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return attemptFatal, time.Time{}, nil, &contract.AuthError{Msg: "token rejected by provider"}
	case resp.StatusCode == http.StatusNotFound:
		return attemptFatal, time.Time{}, nil, &contract.NotFoundError{Resource: fullURL}
	case isRateLimited(resp):
		return attemptRateLimited, resetTime(resp, c.clock.Now()), nil, fmt.Errorf("rate limited: %s", resp.Status)
	case resp.StatusCode >= 500:
		return attemptTransient, time.Time{}, nil, fmt.Errorf("server error: %s", resp.Status)
	default:
		return attemptFatal, time.Time{}, nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
}

func (c *Client) observeRateHeaders(resp *http.Response) {
	remaining, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	c.limiter.Observe(remaining, resetTime(resp, c.clock.Now()))
}

// isRateLimited covers both the primary quota (403 with a zeroed remaining
// header) and the secondary abuse limiter (429).
func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0"
}

func resetTime(resp *http.Response, now time.Time) time.Time {
	epoch, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return now.Add(time.Minute)
	}
	return time.Unix(epoch, 0)
}
