package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

// SimpleNormalizer flattens scraped description HTML into collapsed plain
// text suitable for classification prompts and storage.
type SimpleNormalizer struct{}

func NewSimpleNormalizer() *SimpleNormalizer {
	return &SimpleNormalizer{}
}

func (n *SimpleNormalizer) Normalize(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	text := ExtractText(doc)
	return strings.Join(strings.Fields(text), " "), nil
}

// ExtractText is a helper to get text from HTML
func ExtractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(ExtractText(c))
	}
	return sb.String()
}
