package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/drugwatch/approvals-hunter/internal/httpx"
)

const (
	ErrorNetwork   = "network"
	ErrorParsing   = "parsing"
	ErrorAI        = "ai"
	ErrorRateLimit = "rate_limit"
	ErrorStore     = "store"
	ErrorUnknown   = "unknown"
)

// ClassifyFetchError maps a transport failure to a counter bucket. Both
// fetchers wrap HTTP failures in *httpx.FetchError; anything else at this
// level is a plain network problem.
func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		if fe.Status == http.StatusTooManyRequests {
			return ErrorRateLimit
		}
		return ErrorNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorNetwork
	}
	return ErrorUnknown
}

// ClassifyScrapeError additionally recognizes the scrape pipeline's own
// failure modes: archive pages that stopped parsing, approval dates the
// listing spells in an unexpected form, and detail fetches the polite
// client refused or kept retrying.
func ClassifyScrapeError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if kind := ClassifyFetchError(err); kind != ErrorUnknown {
		return kind
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "blocked by robots.txt"),
		strings.Contains(msg, "retryable status"):
		return ErrorRateLimit
	case strings.Contains(msg, "parse failed"),
		strings.Contains(msg, "parsing time"),
		strings.Contains(msg, "invalid character"):
		return ErrorParsing
	}
	return ErrorNetwork
}
