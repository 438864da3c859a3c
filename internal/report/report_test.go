package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/lecture-indexer/internal/catalog"
)

func catalogOf(records ...catalog.Record) *catalog.Catalog {
	cat := catalog.New()
	for i, rec := range records {
		cat.Add(fmt.Sprintf("link-%03d", i), rec)
	}
	return cat
}

func TestBuildPartitionsByCourse(t *testing.T) {
	t.Parallel()

	cat := catalogOf(
		catalog.Record{CourseID: "MAST20004", CourseName: "Probability", TermName: "Semester 1", PortalURL: "u1"},
		catalog.Record{CourseID: "COMP10001", CourseName: "Foundations of Computing", TermName: "Semester 2", PortalURL: "u2"},
		catalog.Record{CourseID: "MAST20004", CourseName: "Probability", TermName: "Semester 2", PortalURL: "u3"},
		catalog.Record{CourseID: "COMP10001", CourseName: "Foundations of Computing", TermName: "Semester 1", PortalURL: "u4"},
		catalog.Record{CourseID: "BIOL10001", CourseName: "Biology", TermName: "Summer", PortalURL: "u5"},
	)

	groups := Build(cat)
	require.Len(t, groups, 3)

	total := 0
	seen := make(map[string]bool)
	for _, g := range groups {
		assert.False(t, seen[g.CourseID], "course %s appears in two groups", g.CourseID)
		seen[g.CourseID] = true
		total += len(g.Terms)
	}
	assert.Equal(t, cat.Len(), total)
}

func TestBuildOrdering(t *testing.T) {
	t.Parallel()

	cat := catalogOf(
		catalog.Record{CourseID: "ZOOL30001", TermName: "Semester 1"},
		catalog.Record{CourseID: "COMP10001", TermName: "Semester 2"},
		catalog.Record{CourseID: "COMP10001", TermName: "Semester 10"},
		catalog.Record{CourseID: "COMP10001", TermName: "Semester 1"},
		catalog.Record{CourseID: "COMP10001", TermName: "Summer"},
		catalog.Record{CourseID: "ACCT10001", TermName: "Winter"},
	)

	groups := Build(cat)
	var ids []string
	for _, g := range groups {
		ids = append(ids, g.CourseID)
	}
	assert.Equal(t, []string{"ACCT10001", "COMP10001", "ZOOL30001"}, ids)

	var terms []string
	for _, term := range groups[1].Terms {
		terms = append(terms, term.TermName)
	}
	// Plain string ordering: "Semester 10" sorts before "Semester 2".
	assert.Equal(t, []string{"Semester 1", "Semester 10", "Semester 2", "Summer"}, terms)
}

func TestBuildKeepsFirstCourseName(t *testing.T) {
	t.Parallel()

	cat := catalogOf(
		catalog.Record{CourseID: "COMP10001", CourseName: "Foundations of Computing", TermName: "Semester 2"},
		catalog.Record{CourseID: "COMP10001", CourseName: "Renamed Course", TermName: "Semester 1"},
	)

	groups := Build(cat)
	require.Len(t, groups, 1)
	assert.Equal(t, "Foundations of Computing", groups[0].CourseName)
}

func TestBuildEmptyCatalog(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Build(catalog.New()))
	out, err := Render(nil, DefaultHandbookURL)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<body>")
	assert.Contains(t, string(out), "</body></html>")
}

func TestRenderListsTermsUnderOneHeading(t *testing.T) {
	t.Parallel()

	cat := catalogOf(
		catalog.Record{CourseID: "COMP10001", CourseName: "Foundations of Computing", TermName: "Semester 2", PortalURL: "http://example/s2"},
		catalog.Record{CourseID: "COMP10001", CourseName: "Foundations of Computing", TermName: "Semester 1", PortalURL: "http://example/s1"},
	)

	out, err := Render(Build(cat), DefaultHandbookURL)
	require.NoError(t, err)
	html := string(out)

	assert.Equal(t, 1, strings.Count(html, "COMP10001 - Foundations of Computing"))
	assert.Contains(t, html, `<a href="https://handbook.unimelb.edu.au/view/2014/COMP10001" target="_blank">COMP10001 - Foundations of Computing</a><br>`)
	assert.Contains(t, html, `<li><a href="http://example/s1" target="_blank">Semester 1</a></li>`)

	first := strings.Index(html, "Semester 1")
	second := strings.Index(html, "Semester 2")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}

func TestRenderEscapesText(t *testing.T) {
	t.Parallel()

	cat := catalogOf(catalog.Record{CourseID: "COMP10001", CourseName: "Algorithms & <Data>", TermName: "Semester 1", PortalURL: "http://example/x"})
	out, err := Render(Build(cat), DefaultHandbookURL)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Algorithms &amp; &lt;Data&gt;")
}

func TestRenderPortalURLs(t *testing.T) {
	t.Parallel()

	groups := Build(catalogOf(
		catalog.Record{CourseID: "COMP10001", CourseName: "Foundations", PortalURL: "http://portal.test/ess/echo/presentation/abc", TermName: "Semester 1"},
		catalog.Record{CourseID: "COMP10001", CourseName: "Foundations", PortalURL: "javascript:alert(1)", TermName: "Semester 2"},
	))
	out, err := Render(groups, DefaultHandbookURL)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<li><a href="http://portal.test/ess/echo/presentation/abc" target="_blank">Semester 1</a></li>`)
	assert.Contains(t, html, `<li><a href="#ZgotmplZ" target="_blank">Semester 2</a></li>`)
	assert.NotContains(t, html, "javascript:")
}
