package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// archiveAttempts bounds retries against a listing page before the year is
// given up for this run.
const archiveAttempts = 3

// ArchiveFetcher wraps Colly for downloading the yearly approval listing
// pages. Every listing lives on the same host, so a single pace limiter and
// a shared backoff window govern all requests.
type ArchiveFetcher struct {
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter

	mu          sync.Mutex
	nextAllowed time.Time
}

type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewArchiveFetcher builds a fetcher pacing requests at one per interval.
func NewArchiveFetcher(userAgent string, interval time.Duration) *ArchiveFetcher {
	if userAgent == "" {
		userAgent = "approvals-hunter-bot/1.0"
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ArchiveFetcher{
		userAgent: userAgent,
		timeout:   15 * time.Second,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
	}
}

// FetchBytes downloads one listing page, retrying rate-limit and server
// errors with exponential backoff. HTTP failures come back as *FetchError
// carrying the last status seen.
func (f *ArchiveFetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, int, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, 0, err
	}

	var body []byte
	var lastErr error
	var status int
	for attempt := 0; attempt < archiveAttempts; attempt++ {
		if err := f.wait(ctx); err != nil {
			return nil, 0, err
		}
		body, status, lastErr = f.fetchOnce(ctx, target)
		if lastErr == nil {
			return body, status, nil
		}
		if status == http.StatusTooManyRequests || (status >= 500 && status <= 599) {
			f.holdOff(attempt)
			continue
		}
		break
	}

	if status > 0 {
		return nil, status, &FetchError{Status: status, Err: lastErr}
	}
	if lastErr == nil {
		lastErr = errors.New("archive fetch failed")
	}
	return nil, 0, lastErr
}

func (f *ArchiveFetcher) fetchOnce(ctx context.Context, target string) ([]byte, int, error) {
	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	c.IgnoreRobotsTxt = false
	c.SetRequestTimeout(f.timeout)

	var body []byte
	status := 0
	var reqErr error
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	if err := c.Visit(target); err != nil {
		return nil, status, err
	}
	if ctx.Err() != nil {
		return nil, status, ctx.Err()
	}
	if reqErr != nil {
		return nil, status, reqErr
	}
	if status >= 400 {
		return nil, status, fmt.Errorf("status %d", status)
	}
	if status == 0 {
		status = http.StatusOK
	}
	return body, status, nil
}

// wait blocks until both the backoff window and the pace limiter allow the
// next request.
func (f *ArchiveFetcher) wait(ctx context.Context) error {
	for {
		f.mu.Lock()
		next := f.nextAllowed
		f.mu.Unlock()
		now := time.Now()
		if !now.Before(next) {
			break
		}
		if err := sleepWithContext(ctx, next.Sub(now)); err != nil {
			return err
		}
	}
	return f.limiter.Wait(ctx)
}

func (f *ArchiveFetcher) holdOff(attempt int) {
	delay := time.Duration(500*(1<<attempt)) * time.Millisecond
	f.mu.Lock()
	if next := time.Now().Add(delay); next.After(f.nextAllowed) {
		f.nextAllowed = next
	}
	f.mu.Unlock()
}

func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String(), nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
