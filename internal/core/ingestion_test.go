package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drugwatch/approvals-hunter/internal/ai"
	"github.com/drugwatch/approvals-hunter/internal/normalize"
	"github.com/drugwatch/approvals-hunter/internal/scraper"
	"github.com/drugwatch/approvals-hunter/internal/store"
)

type memStore struct {
	saved  []store.Approval
	recent *store.Approval
}

func (m *memStore) SaveApproval(ctx context.Context, a store.Approval) error {
	m.saved = append(m.saved, a)
	return nil
}

func (m *memStore) MostRecentApproval(ctx context.Context) (*store.Approval, error) {
	return m.recent, nil
}

type stubScraper struct {
	pages   map[int][]scraper.RawApproval
	fetched []int
}

func (s *stubScraper) FetchYear(ctx context.Context, year int) ([]scraper.RawApproval, error) {
	s.fetched = append(s.fetched, year)
	return s.pages[year], nil
}

func newTestService(st *memStore, sc *stubScraper, baseYear int) *IngestionService {
	classifier := NewClassifierService(ai.NewMockClient())
	return NewIngestionService(st, sc, classifier, normalize.DefaultRules(), baseYear, "test-agent")
}

func rawApproval(title, date, company, treatment, desc string, year int) scraper.RawApproval {
	return scraper.RawApproval{
		Title:           title,
		DescriptionHTML: desc,
		DateText:        date,
		CompanyText:     company,
		TreatmentText:   treatment,
		Year:            year,
	}
}

func TestRefreshOnceFreshIngest(t *testing.T) {
	year := time.Now().Year()
	st := &memStore{}
	sc := &stubScraper{pages: map[int][]scraper.RawApproval{
		year: {
			rawApproval("Zepbound (tirzepatide) Injection", "November 8, 2023",
				"Eli Lilly and Company", "Obesity", "<p>A GLP-1 receptor agonist for weight management.</p>", year),
			rawApproval("Plainol (plainicin)", "March 1, 2023",
				"Acme Pharma, Inc.", "Infection", "<p>An antibacterial agent for serious infections.</p>", year),
		},
	}}

	svc := newTestService(st, sc, year)
	count, err := svc.RefreshOnce(context.Background())
	if err != nil {
		t.Fatalf("RefreshOnce failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("ingested = %d, want 2", count)
	}
	if len(st.saved) != 2 {
		t.Fatalf("saved %d approvals, want 2", len(st.saved))
	}

	first := st.saved[0]
	if first.DrugName != "Zepbound" {
		t.Errorf("DrugName = %q", first.DrugName)
	}
	if first.GenericName != "tirzepatide" {
		t.Errorf("GenericName = %q", first.GenericName)
	}
	if first.Administration != "Injection" {
		t.Errorf("Administration = %q", first.Administration)
	}
	if first.Company != "Eli Lilly and Company" {
		t.Errorf("Company = %q", first.Company)
	}
	if first.Description != "A GLP-1 receptor agonist for weight management." {
		t.Errorf("Description = %q", first.Description)
	}
	if first.ApprovalDate.Format("2006-01-02") != "2023-11-08" {
		t.Errorf("ApprovalDate = %v", first.ApprovalDate)
	}
	if first.DrugType == "" || first.DiseaseType == "" {
		t.Errorf("classification missing: %q / %q", first.DrugType, first.DiseaseType)
	}

	second := st.saved[1]
	if second.Company != "Acme Pharma" {
		t.Errorf("second Company = %q, want suffix stripped", second.Company)
	}
	if second.CompanyRaw != "Acme Pharma, Inc." {
		t.Errorf("second CompanyRaw = %q, want the scraped spelling kept", second.CompanyRaw)
	}
}

func TestRefreshOnceStopsAtMostRecent(t *testing.T) {
	year := time.Now().Year()
	marker := time.Date(year, time.February, 1, 0, 0, 0, 0, time.UTC)
	st := &memStore{recent: &store.Approval{DrugName: "Oldol", ApprovalDate: marker}}
	markerDate := marker.Format("January 2, 2006")

	sc := &stubScraper{pages: map[int][]scraper.RawApproval{
		year: {
			rawApproval("Newol (newicin)", "March 5, "+marker.Format("2006"),
				"Acme Pharma", "Pain", "<p>A fresh analgesic option for chronic pain management.</p>", year),
			rawApproval("Oldol (oldicin)", markerDate,
				"Acme Pharma", "Pain", "<p>Already stored from the previous refresh run here.</p>", year),
			rawApproval("Staleol (stalicin)", "January 2, "+marker.Format("2006"),
				"Acme Pharma", "Pain", "<p>Never reached because the scan stops at the marker.</p>", year),
		},
	}}

	svc := newTestService(st, sc, year-5)
	count, err := svc.RefreshOnce(context.Background())
	if err != nil {
		t.Fatalf("RefreshOnce failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("ingested = %d, want only the approval newer than the marker", count)
	}
	if st.saved[0].DrugName != "Newol" {
		t.Errorf("saved %q, want Newol", st.saved[0].DrugName)
	}
	if len(sc.fetched) != 1 || sc.fetched[0] != year {
		t.Errorf("fetched years = %v, want just %d", sc.fetched, year)
	}
}

func TestRefreshOnceSkipsUnparsableDates(t *testing.T) {
	year := time.Now().Year()
	st := &memStore{}
	sc := &stubScraper{pages: map[int][]scraper.RawApproval{
		year: {
			rawApproval("Brokenol", "sometime in spring", "Acme", "Pain",
				"<p>The archive block lost its approval date somehow.</p>", year),
		},
	}}

	svc := newTestService(st, sc, year)
	count, err := svc.RefreshOnce(context.Background())
	if err != nil {
		t.Fatalf("RefreshOnce failed: %v", err)
	}
	if count != 0 || len(st.saved) != 0 {
		t.Errorf("ingested %d, saved %d, want nothing", count, len(st.saved))
	}
}

func TestRefreshOnceRejectsConcurrentRuns(t *testing.T) {
	svc := newTestService(&memStore{}, &stubScraper{}, time.Now().Year())

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.RefreshOnce(context.Background()); !errors.Is(err, ErrRefreshRunning) {
		t.Errorf("err = %v, want ErrRefreshRunning", err)
	}
}
