package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/drugwatch/approvals-hunter/internal/httpx"
	"github.com/drugwatch/approvals-hunter/internal/observability"
	"github.com/drugwatch/approvals-hunter/internal/urlutil"
)

// DrugsComScraper reads drugs.com's new-drug-approvals archive, one listing
// page per year.
type DrugsComScraper struct {
	baseURL string
	fetcher *httpx.ArchiveFetcher
}

func NewDrugsComScraper(baseURL, userAgent string) *DrugsComScraper {
	// One listing page per two seconds keeps well under the host's patience.
	return &DrugsComScraper{
		baseURL: baseURL,
		fetcher: httpx.NewArchiveFetcher(userAgent, 2*time.Second),
	}
}

// FetchYear downloads and parses the archive page for one approval year.
// Blocks arrive in page order, newest approval first.
func (s *DrugsComScraper) FetchYear(ctx context.Context, year int) ([]RawApproval, error) {
	pageURL := urlutil.ArchiveURL(s.baseURL, year)

	body, _, err := s.fetcher.FetchBytes(ctx, pageURL)
	if err != nil {
		observability.IncError(observability.ClassifyFetchError(err), "scraper_drugscom")
		return nil, fmt.Errorf("archive fetch failed for %d: %w", year, err)
	}
	observability.IncPagesScraped("scraper_drugscom")

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		observability.IncError(observability.ErrorParsing, "scraper_drugscom")
		return nil, fmt.Errorf("archive parse failed for %d: %w", year, err)
	}

	base, _ := url.Parse(pageURL)
	return ParseArchive(doc, base, year), nil
}

// ParseArchive extracts every approval block from a parsed archive page.
// Kept separate from fetching so it runs against static fixtures in tests.
func ParseArchive(doc *goquery.Document, base *url.URL, year int) []RawApproval {
	var approvals []RawApproval
	doc.Find("div.ddc-media-list div.ddc-media").Each(func(_ int, block *goquery.Selection) {
		if approval, ok := parseBlock(block, base, year); ok {
			approvals = append(approvals, approval)
		}
	})
	return approvals
}

func parseBlock(block *goquery.Selection, base *url.URL, year int) (RawApproval, bool) {
	title := block.Find("h3.ddc-media-title").First()
	if title.Length() == 0 {
		return RawApproval{}, false
	}

	approval := RawApproval{
		Year:  year,
		Title: strings.Join(strings.Fields(title.Text()), " "),
	}
	if approval.Title == "" {
		return RawApproval{}, false
	}

	if href, ok := title.Find("a").First().Attr("href"); ok {
		resolved := urlutil.ResolveDetail(base, href)
		// Detail backfill stays on the archive host.
		if u, err := url.Parse(resolved); err == nil && urlutil.SameHost(base, u.Hostname()) {
			approval.DetailURL = resolved
		}
	}

	// The description is the first class-less <p> after the subtitle line.
	subtitle := block.Find("p.drug-subtitle").First()
	for sib := subtitle.Next(); sib.Length() > 0; sib = sib.Next() {
		if !sib.Is("p") {
			continue
		}
		if _, hasClass := sib.Attr("class"); hasClass {
			continue
		}
		if inner, err := sib.Html(); err == nil {
			approval.DescriptionHTML = inner
		}
		break
	}

	// Metadata lives in text nodes directly after labeled <b> tags.
	block.Find("b").Each(func(_ int, b *goquery.Selection) {
		value := followingText(b)
		switch strings.TrimSpace(b.Text()) {
		case "Date of Approval:":
			approval.DateText = value
		case "Company:":
			approval.CompanyText = value
		case "Treatment for:":
			approval.TreatmentText = strings.ReplaceAll(value, ";", ",")
		}
	})

	return approval, true
}

// followingText returns the first non-blank text node after the selection,
// stopping at the next element.
func followingText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	for n := sel.Get(0).NextSibling; n != nil; n = n.NextSibling {
		switch n.Type {
		case html.TextNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				return text
			}
		case html.ElementNode:
			return ""
		}
	}
	return ""
}
