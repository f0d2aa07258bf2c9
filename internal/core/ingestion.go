package core

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/drugwatch/approvals-hunter/internal/ai"
	"github.com/drugwatch/approvals-hunter/internal/content"
	"github.com/drugwatch/approvals-hunter/internal/httpx"
	"github.com/drugwatch/approvals-hunter/internal/normalize"
	"github.com/drugwatch/approvals-hunter/internal/observability"
	"github.com/drugwatch/approvals-hunter/internal/scraper"
	"github.com/drugwatch/approvals-hunter/internal/store"
)

// ErrRefreshRunning is returned when a refresh is requested while another
// one is still in flight.
var ErrRefreshRunning = errors.New("refresh already running")

// ApprovalStore is the slice of the persistence layer ingestion needs.
type ApprovalStore interface {
	SaveApproval(ctx context.Context, a store.Approval) error
	MostRecentApproval(ctx context.Context) (*store.Approval, error)
}

type IngestionService struct {
	store         ApprovalStore
	scraper       scraper.ApprovalScraper
	classifier    *ClassifierService
	splitter      *normalize.Splitter
	canonicalizer *normalize.Canonicalizer
	normalizer    scraper.Normalizer
	detailClient  *httpx.PoliteClient
	baseYear      int

	mu sync.Mutex
}

func NewIngestionService(st ApprovalStore, sc scraper.ApprovalScraper, classifier *ClassifierService, rules *normalize.Rules, baseYear int, userAgent string) *IngestionService {
	return &IngestionService{
		store:         st,
		scraper:       sc,
		classifier:    classifier,
		splitter:      normalize.NewSplitter(rules),
		canonicalizer: normalize.NewCanonicalizer(rules),
		normalizer:    scraper.NewSimpleNormalizer(),
		detailClient:  httpx.NewPoliteClient(userAgent),
		baseYear:      baseYear,
	}
}

// RefreshOnce scrapes archive years newest first and upserts every approval
// not yet stored. It stops as soon as it reaches the most recent approval
// already in the store, so a daily run only pays for the new entries.
// Returns the number of approvals ingested.
func (s *IngestionService) RefreshOnce(ctx context.Context) (int, error) {
	if !s.mu.TryLock() {
		return 0, ErrRefreshRunning
	}
	defer s.mu.Unlock()

	recent, err := s.store.MostRecentApproval(ctx)
	if err != nil {
		return 0, err
	}

	ingested := 0
	currentYear := time.Now().Year()

	for year := currentYear; year >= s.baseYear; year-- {
		select {
		case <-ctx.Done():
			return ingested, ctx.Err()
		default:
		}
		if recent != nil && year < recent.ApprovalDate.Year() {
			break
		}

		started := time.Now()
		raws, err := s.scraper.FetchYear(ctx, year)
		observability.ObserveScrapeDuration("ingestion", time.Since(started).Seconds())
		if err != nil {
			log.Printf("Ingestion: fetch failed for %d: %v", year, err)
			continue
		}

		for _, raw := range raws {
			approval, ok := s.buildApproval(ctx, raw)
			if !ok {
				continue
			}
			if recent != nil && approval.DrugName == recent.DrugName && sameDay(approval.ApprovalDate, recent.ApprovalDate) {
				return ingested, nil
			}
			if err := s.store.SaveApproval(ctx, approval); err != nil {
				log.Printf("Ingestion: failed to save %s: %v", approval.DrugName, err)
				observability.IncError(observability.ErrorStore, "ingestion")
				continue
			}
			observability.IncApprovalsIngested("ingestion")
			ingested++
		}
	}

	return ingested, nil
}

func (s *IngestionService) buildApproval(ctx context.Context, raw scraper.RawApproval) (store.Approval, bool) {
	date, ok := scraper.ParseApprovalDate(raw.DateText)
	if !ok {
		log.Printf("Ingestion: unparsable approval date %q for %q", raw.DateText, raw.Title)
		observability.IncError(observability.ErrorParsing, "ingestion")
		return store.Approval{}, false
	}

	parsed := s.splitter.Split(raw.Title)
	company := s.canonicalizer.Canonicalize(raw.CompanyText)

	description := ""
	if normalized, err := s.normalizer.Normalize(raw.DescriptionHTML); err == nil {
		description = normalized
	}
	if description == "" && raw.DetailURL != "" {
		if summary, err := content.FetchSummary(ctx, s.detailClient, raw.DetailURL); err == nil {
			description = summary.Description
		} else {
			log.Printf("Ingestion: detail fetch failed for %s: %v", raw.DetailURL, err)
			observability.IncError(observability.ClassifyScrapeError(err), "ingestion")
		}
	}

	drugType, diseaseType := s.classifier.ClassifyApproval(ctx, ai.DrugData{
		Name:           parsed.Name,
		Administration: parsed.Administration,
		Description:    description,
		Treatment:      raw.TreatmentText,
	})

	return store.Approval{
		DrugName:       parsed.Name,
		GenericName:    parsed.Generic,
		Administration: parsed.Administration,
		Description:    description,
		ApprovalDate:   date,
		Company:        company,
		CompanyRaw:     strings.TrimSpace(raw.CompanyText),
		Treatment:      raw.TreatmentText,
		DrugType:       drugType,
		DiseaseType:    diseaseType,
		DetailURL:      raw.DetailURL,
		Year:           raw.Year,
	}, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
