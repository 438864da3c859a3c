package catalog

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(n int) Record {
	return Record{
		CourseID:   fmt.Sprintf("COMP%05d", n),
		CourseName: fmt.Sprintf("Course %d", n),
		PortalURL:  fmt.Sprintf("http://example/%d", n),
		TermName:   "Semester 1",
	}
}

func TestAddNeverOverwrites(t *testing.T) {
	t.Parallel()

	cat := New()
	require.True(t, cat.Add("link-a", sampleRecord(1)))
	require.False(t, cat.Add("link-a", sampleRecord(2)))

	got, ok := cat.Get("link-a")
	require.True(t, ok)
	assert.Equal(t, sampleRecord(1), got)
	assert.Equal(t, 1, cat.Len())
}

func TestZeroValueCatalogAcceptsAdds(t *testing.T) {
	t.Parallel()

	var cat Catalog
	assert.True(t, cat.Add("link-a", sampleRecord(1)))
	assert.True(t, cat.Has("link-a"))
}

func TestMergeDisjointKeys(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		existing int
		incoming int
	}{
		{"both empty", 0, 0},
		{"empty base", 0, 3},
		{"nothing new", 4, 0},
		{"mixed", 5, 7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			base := New()
			for i := 0; i < tc.existing; i++ {
				base.Add(fmt.Sprintf("old-%d", i), sampleRecord(i))
			}
			before := base.Entries()

			incoming := New()
			for i := 0; i < tc.incoming; i++ {
				incoming.Add(fmt.Sprintf("new-%d", i), sampleRecord(100+i))
			}

			added := base.Merge(incoming)
			assert.Equal(t, tc.incoming, added)
			assert.Equal(t, tc.existing+tc.incoming, base.Len())
			for _, e := range before {
				got, ok := base.Get(e.LinkID)
				require.True(t, ok)
				assert.Equal(t, e.Record, got)
			}
		})
	}
}

func TestMergeSkipsExistingKeys(t *testing.T) {
	t.Parallel()

	base := New()
	base.Add("shared", sampleRecord(1))
	other := New()
	other.Add("shared", sampleRecord(2))
	other.Add("fresh", sampleRecord(3))

	assert.Equal(t, 1, base.Merge(other))
	got, _ := base.Get("shared")
	assert.Equal(t, sampleRecord(1), got)
	assert.Zero(t, base.Merge(nil))
}

func TestEntriesFollowInsertionOrder(t *testing.T) {
	t.Parallel()

	cat := New()
	ids := []string{"zeta", "alpha", "mid"}
	for i, id := range ids {
		cat.Add(id, sampleRecord(i))
	}

	entries := cat.Entries()
	require.Len(t, entries, len(ids))
	for i, e := range entries {
		assert.Equal(t, ids[i], e.LinkID)
	}
}

func TestJSONUsesOriginalFieldNamesAndOrder(t *testing.T) {
	t.Parallel()

	cat := New()
	cat.Add("zeta", Record{CourseID: "COMP10001", CourseName: "Foundations of Computing", PortalURL: "http://example/x", TermName: "Semester 1"})
	cat.Add("alpha", Record{CourseID: "MAST20004", CourseName: "Probability", PortalURL: "http://example/y", TermName: "Semester 2"})

	data, err := json.Marshal(cat)
	require.NoError(t, err)
	assert.Equal(t,
		`{"zeta":{"id":"COMP10001","name":"Foundations of Computing","url":"http://example/x","term":"Semester 1"},`+
			`"alpha":{"id":"MAST20004","name":"Probability","url":"http://example/y","term":"Semester 2"}}`,
		string(data))

	decoded := New()
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, cat.Entries(), decoded.Entries())
}

func TestUnmarshalRejectsNonObject(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`[]`, `"text"`, `{"a":1}`, `{"a":{"id":"x"}`} {
		cat := New()
		assert.Error(t, json.Unmarshal([]byte(raw), cat), raw)
	}
}

func TestUnmarshalEmptyObject(t *testing.T) {
	t.Parallel()

	cat := New()
	require.NoError(t, json.Unmarshal([]byte(`{}`), cat))
	assert.Zero(t, cat.Len())
}
