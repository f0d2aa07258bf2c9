package scraper

import (
	"context"
	"time"
)

// RawApproval carries one approval block exactly as scraped, before any
// normalization. Missing fields stay empty, never fail the block.
type RawApproval struct {
	Title           string
	DescriptionHTML string
	DateText        string
	CompanyText     string
	TreatmentText   string
	DetailURL       string
	Year            int
}

// approvalDateLayout matches the listing's long-form dates
// ("January 4, 2024").
const approvalDateLayout = "January 2, 2006"

// ParseApprovalDate parses the scraped approval-date text.
func ParseApprovalDate(text string) (time.Time, bool) {
	t, err := time.Parse(approvalDateLayout, text)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type ApprovalScraper interface {
	FetchYear(ctx context.Context, year int) ([]RawApproval, error)
}

type Normalizer interface {
	Normalize(htmlContent string) (string, error)
}
