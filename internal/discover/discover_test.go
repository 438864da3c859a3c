package discover

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type knownSet map[string]bool

func (k knownSet) Has(id string) bool { return k[id] }

const (
	longID  = "0f8a4c2e-1b7d-4e3a-9c55-71d2ab34cd90-section" // 44 chars
	otherID = "a91b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d-section"
)

func indexPage(anchors ...string) []byte {
	var b strings.Builder
	b.WriteString("<html><body><a href=\"/\">Home/</a><table>")
	for _, a := range anchors {
		b.WriteString("<tr><td><a href=\"" + a + "\">" + a + "</a></td></tr>")
	}
	b.WriteString("</table><footer><a href=\"/about\">" + strings.Repeat("f", 50) + "/</a></footer></body></html>")
	return []byte(b.String())
}

func mustParse(t *testing.T, body []byte) []string {
	t.Helper()
	doc, err := ParseIndex(body)
	require.NoError(t, err)
	return NewLinks(doc, nil)
}

func TestTrimDelimiter(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"abc/", "abc"},
		{"abc ", "abc"},
		{"abc", "ab"},
		{"naïve/", "naïve"},
		{"section√", "section"},
	} {
		assert.Equal(t, tc.want, TrimDelimiter(tc.raw), tc.raw)
		if tc.raw != "" {
			assert.Equal(t, len([]rune(tc.raw))-1, len([]rune(TrimDelimiter(tc.raw))), tc.raw)
		}
	}
}

func TestAcceptBoundary(t *testing.T) {
	t.Parallel()

	assert.False(t, Accept(strings.Repeat("x", MinLinkIDLength)))
	assert.True(t, Accept(strings.Repeat("x", MinLinkIDLength+1)))
	assert.False(t, Accept(""))
}

func TestShortAndLongAnchors(t *testing.T) {
	t.Parallel()

	short := "abcdefghijklmn/" // 15 characters
	long := longID + "/"       // 45 characters
	require.Len(t, short, 15)
	require.Len(t, long, 45)

	links := mustParse(t, indexPage(short, long))
	assert.Equal(t, []string{longID}, links)
}

func TestThirtyOneCharacterEdge(t *testing.T) {
	t.Parallel()

	exactly30 := strings.Repeat("a", 30) + "/"
	exactly31 := strings.Repeat("b", 31) + "/"
	links := mustParse(t, indexPage(exactly30, exactly31))
	assert.Equal(t, []string{strings.Repeat("b", 31)}, links)
}

func TestOnlyTableAnchorsAreConsidered(t *testing.T) {
	t.Parallel()

	links := mustParse(t, indexPage())
	assert.Empty(t, links)
}

func TestPreservesDocumentOrderAndDeduplicates(t *testing.T) {
	t.Parallel()

	links := mustParse(t, indexPage(otherID+"/", longID+"/", otherID+"/"))
	assert.Equal(t, []string{otherID, longID}, links)
}

func TestFiltersExistingCatalogEntries(t *testing.T) {
	t.Parallel()

	doc, err := ParseIndex(indexPage(longID+"/", otherID+"/"))
	require.NoError(t, err)

	links := NewLinks(doc, knownSet{longID: true})
	assert.Equal(t, []string{otherID}, links)
}

func TestDiscoveryIsIdempotent(t *testing.T) {
	t.Parallel()

	doc, err := ParseIndex(indexPage(longID+"/", otherID+"/", "short/"))
	require.NoError(t, err)

	known := knownSet{}
	first := NewLinks(doc, known)
	require.Len(t, first, 2)
	for _, id := range first {
		known[id] = true
	}
	assert.Empty(t, NewLinks(doc, known))
}

func TestUsesInnerMarkupOfAnchor(t *testing.T) {
	t.Parallel()

	body := []byte("<table><tr><td><a href=\"x\">" + longID + "/</a></td><td><a href=\"y\"><b>" + otherID + "</b>/</a></td></tr></table>")
	links := mustParse(t, body)
	assert.Equal(t, []string{longID, "<b>" + otherID + "</b>"}, links)
}
