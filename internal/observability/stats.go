package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	PagesScraped      uint64            `json:"pages_scraped"`
	ApprovalsIngested uint64            `json:"approvals_ingested"`
	AICalls           uint64            `json:"ai_calls"`
	ErrorsTotal       uint64            `json:"errors_total"`
	ScrapeSecondsAvg  float64           `json:"scrape_seconds_avg"`
	AIFallbacks       map[string]uint64 `json:"ai_fallbacks,omitempty"`
	ErrorsByType      map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	pagesScraped      uint64
	approvalsIngested uint64
	aiCalls           uint64
	errorsTotal       uint64

	scrapeCount uint64
	scrapeNanos uint64

	statsMu           sync.Mutex
	aiFallbacks       = map[string]uint64{}
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncPagesScraped(_ string) {
	atomic.AddUint64(&pagesScraped, 1)
}

func IncApprovalsIngested(_ string) {
	atomic.AddUint64(&approvalsIngested, 1)
}

func IncAICall(_ string) {
	atomic.AddUint64(&aiCalls, 1)
}

// IncAIFallback records a classification that fell back to the keyword
// heuristic, keyed by the reason.
func IncAIFallback(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	statsMu.Lock()
	aiFallbacks[reason]++
	statsMu.Unlock()
}

func ObserveScrapeDuration(_ string, seconds float64) {
	if seconds <= 0 {
		return
	}
	atomic.AddUint64(&scrapeCount, 1)
	atomic.AddUint64(&scrapeNanos, uint64(seconds*1e9))
}

func IncError(errType, component string) {
	if errType == "" {
		errType = "unknown"
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	fallbackCopy := copyMap(aiFallbacks)
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	statsMu.Unlock()

	count := atomic.LoadUint64(&scrapeCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&scrapeNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		PagesScraped:      atomic.LoadUint64(&pagesScraped),
		ApprovalsIngested: atomic.LoadUint64(&approvalsIngested),
		AICalls:           atomic.LoadUint64(&aiCalls),
		ErrorsTotal:       atomic.LoadUint64(&errorsTotal),
		ScrapeSecondsAvg:  avg,
		AIFallbacks:       fallbackCopy,
		ErrorsByType:      errorsTypeCopy,
		ErrorsByComponent: errorsComponentCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
