// Package report turns the catalog into a static HTML index grouped by
// course and ordered by term.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"github.com/JakeFAU/lecture-indexer/internal/catalog"
)

// DefaultHandbookURL prefixes each course heading link.
const DefaultHandbookURL = "https://handbook.unimelb.edu.au/view/2014/"

// ContentType of the rendered document.
const ContentType = "text/html; charset=utf-8"

// Term is one recorded offering of a course.
type Term struct {
	TermName  string
	PortalURL string
}

// CourseGroup collects every catalogued term of one course.
type CourseGroup struct {
	CourseID   string
	CourseName string
	Terms      []Term
}

// Build groups catalog records by course id. Groups are ordered by course id
// and terms by term name, both as plain strings. When records of one course
// disagree on its name, the earliest catalogued name is kept.
func Build(cat *catalog.Catalog) []CourseGroup {
	index := make(map[string]int)
	var groups []CourseGroup
	for _, e := range cat.Entries() {
		rec := e.Record
		i, ok := index[rec.CourseID]
		if !ok {
			i = len(groups)
			index[rec.CourseID] = i
			groups = append(groups, CourseGroup{CourseID: rec.CourseID, CourseName: rec.CourseName})
		}
		groups[i].Terms = append(groups[i].Terms, Term{TermName: rec.TermName, PortalURL: rec.PortalURL})
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].CourseID < groups[b].CourseID
	})
	for i := range groups {
		terms := groups[i].Terms
		sort.SliceStable(terms, func(a, b int) bool {
			return terms[a].TermName < terms[b].TermName
		})
	}
	return groups
}

type heading struct {
	CourseGroup
	HandbookLink string
}

var page = template.Must(template.New("recordings").Parse(
	`<html><head><style type="text/css">ul{margin-top:0px;margin-bottom:0px;}</style></head><body>
{{range .}}<a href="{{.HandbookLink}}" target="_blank">{{.CourseID}} - {{.CourseName}}</a><br>
<ul>
{{range .Terms}}<li><a href="{{.PortalURL}}" target="_blank">{{.TermName}}</a></li>
{{end}}</ul>
{{end}}</body></html>`))

// Render produces the HTML document for groups. Course headings link to
// handbookURL followed by the course id.
func Render(groups []CourseGroup, handbookURL string) ([]byte, error) {
	headings := make([]heading, 0, len(groups))
	for _, g := range groups {
		headings = append(headings, heading{CourseGroup: g, HandbookLink: handbookURL + g.CourseID})
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, headings); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
