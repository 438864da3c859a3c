// Package discover extracts candidate recording-section links from the
// lecture index page.
package discover

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// MinLinkIDLength is the length a trimmed token must exceed to count as a
// recording section. Navigation and footer links are shorter.
const MinLinkIDLength = 30

// linkSelector matches the anchors of the index listing table.
const linkSelector = "table a"

// Catalogued reports whether a link identifier is already known.
type Catalogued interface {
	Has(linkID string) bool
}

// ParseIndex parses the index page body into a queryable document.
func ParseIndex(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse index document: %w", err)
	}
	return doc, nil
}

// NewLinks returns, in document order, every link identifier in doc that
// looks like a recording section and is not yet in existing. A token listed
// more than once is returned once.
func NewLinks(doc *goquery.Document, existing Catalogued) []string {
	var (
		links []string
		seen  = make(map[string]struct{})
	)
	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		raw, err := s.Html()
		if err != nil {
			return
		}
		id := TrimDelimiter(raw)
		if !Accept(id) {
			return
		}
		if existing != nil && existing.Has(id) {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		links = append(links, id)
	})
	return links
}

// TrimDelimiter drops exactly one trailing character: the index renders each
// section directory with a trailing separator.
func TrimDelimiter(raw string) string {
	if raw == "" {
		return raw
	}
	_, size := utf8.DecodeLastRuneInString(raw)
	return raw[:len(raw)-size]
}

// Accept reports whether a trimmed token is long enough to be a section id.
func Accept(id string) bool {
	return utf8.RuneCountInString(id) > MinLinkIDLength
}
