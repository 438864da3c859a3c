// Package metadata fetches and decodes the per-section XML description of a
// lecture recording.
package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/JakeFAU/lecture-indexer/internal/catalog"
	"github.com/JakeFAU/lecture-indexer/internal/crawler"
)

// Default locations of the section documents.
const (
	DefaultBaseURL = "http://download.lecture.unimelb.edu.au/echo360/sections/"
	DefaultSuffix  = "/section.xml"
)

// Paths of the extracted fields. Each takes the first match in document order.
const (
	pathCourseName = "/section/course[1]/name[1]"
	pathCourseID   = "/section/course[1]/identifier[1]"
	pathPortalURL  = "/section/portal[1]/url[1]"
	pathTermName   = "/section/term[1]/name[1]"
)

// Config locates section documents: BaseURL + linkID + Suffix.
type Config struct {
	BaseURL string
	Suffix  string
}

// Fetcher retrieves section documents and turns them into catalog records.
type Fetcher struct {
	transport crawler.Fetcher
	cfg       Config
}

// New builds a Fetcher on top of transport.
func New(transport crawler.Fetcher, cfg Config) (*Fetcher, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("section base url is required")
	}
	return &Fetcher{transport: transport, cfg: cfg}, nil
}

// SectionURL returns the location of the description document for linkID.
func (f *Fetcher) SectionURL(linkID string) string {
	return f.cfg.BaseURL + linkID + f.cfg.Suffix
}

// Fetch downloads and parses the section document for linkID. A failed
// download is a *crawler.TransportError; a document without the expected
// shape is a *crawler.ParseError.
func (f *Fetcher) Fetch(ctx context.Context, linkID string) (catalog.Record, error) {
	url := f.SectionURL(linkID)
	body, err := f.transport.Fetch(ctx, url)
	if err != nil {
		return catalog.Record{}, &crawler.TransportError{URL: url, LinkID: linkID, Err: err}
	}
	return Parse(linkID, body)
}

// Parse extracts course name, course identifier, portal url and term name
// from a section document.
func Parse(linkID string, body []byte) (catalog.Record, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return catalog.Record{}, &crawler.ParseError{LinkID: linkID, Err: fmt.Errorf("malformed xml: %w", err)}
	}

	var rec catalog.Record
	fields := []struct {
		path string
		dst  *string
	}{
		{pathCourseName, &rec.CourseName},
		{pathCourseID, &rec.CourseID},
		{pathPortalURL, &rec.PortalURL},
		{pathTermName, &rec.TermName},
	}
	for _, field := range fields {
		node, err := xmlquery.Query(doc, field.path)
		if err != nil {
			return catalog.Record{}, &crawler.ParseError{LinkID: linkID, Err: fmt.Errorf("query %s: %w", field.path, err)}
		}
		if node == nil {
			return catalog.Record{}, &crawler.ParseError{LinkID: linkID, Err: fmt.Errorf("missing %s", field.path)}
		}
		*field.dst = strings.TrimSpace(node.InnerText())
	}
	return rec, nil
}
