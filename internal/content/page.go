// Package content fetches drug detail pages and pulls out the short
// summary used when an archive block carries no description of its own.
package content

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/drugwatch/approvals-hunter/internal/httpx"
)

const (
	maxTextSample = 5000
	minParagraph  = 60
)

// Summary holds what a detail page says about an approved drug.
type Summary struct {
	Title       string
	Meta        string
	Description string
}

// FetchSummary downloads a drug detail page through the polite client and
// extracts its title, meta description, and the first substantial body
// paragraph.
func FetchSummary(ctx context.Context, client *httpx.PoliteClient, rawURL string) (Summary, error) {
	var summary Summary
	if client == nil {
		client = httpx.NewPoliteClient("")
	}

	resp, err := client.Get(ctx, rawURL)
	if err != nil {
		return summary, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return summary, &httpx.FetchError{Status: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return summary, fmt.Errorf("detail page parse failed: %w", err)
	}

	return ExtractSummary(doc), nil
}

// ExtractSummary pulls the summary fields from a parsed detail page.
func ExtractSummary(doc *goquery.Document) Summary {
	var summary Summary

	summary.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if meta, ok := doc.Find("meta[name='description']").First().Attr("content"); ok {
		summary.Meta = strings.TrimSpace(meta)
	}

	doc.Find("div.contentBox p, article p, main p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.Join(strings.Fields(p.Text()), " ")
		if len(text) >= minParagraph {
			summary.Description = limitText(text)
			return false
		}
		return true
	})

	if summary.Description == "" {
		summary.Description = summary.Meta
	}
	return summary
}

func limitText(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > maxTextSample {
		return text[:maxTextSample]
	}
	return text
}
