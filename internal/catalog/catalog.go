// Package catalog holds the durable set of discovered recording sections,
// keyed by the link identifier scraped from the index page.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record describes one recording section. The JSON field names are the
// persisted format and must not change.
type Record struct {
	CourseID   string `json:"id"`
	CourseName string `json:"name"`
	PortalURL  string `json:"url"`
	TermName   string `json:"term"`
}

// Entry pairs a Record with the link identifier it is stored under.
type Entry struct {
	LinkID string
	Record Record
}

// Catalog maps link identifiers to records. Records are never replaced once
// added, and iteration follows insertion order.
// A Catalog is not safe for concurrent use.
type Catalog struct {
	order   []string
	records map[string]Record
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{records: make(map[string]Record)}
}

// Len reports the number of records.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Has reports whether linkID is already catalogued.
func (c *Catalog) Has(linkID string) bool {
	_, ok := c.records[linkID]
	return ok
}

// Get returns the record stored under linkID.
func (c *Catalog) Get(linkID string) (Record, bool) {
	rec, ok := c.records[linkID]
	return rec, ok
}

// Add stores rec under linkID unless the key is already present.
// It reports whether the record was added.
func (c *Catalog) Add(linkID string, rec Record) bool {
	if c.records == nil {
		c.records = make(map[string]Record)
	}
	if _, ok := c.records[linkID]; ok {
		return false
	}
	c.records[linkID] = rec
	c.order = append(c.order, linkID)
	return true
}

// Merge adds every entry of other whose key is absent and returns how many were added.
func (c *Catalog) Merge(other *Catalog) int {
	if other == nil {
		return 0
	}
	added := 0
	for _, e := range other.Entries() {
		if c.Add(e.LinkID, e.Record) {
			added++
		}
	}
	return added
}

// Entries returns a copy of the catalog contents in insertion order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Entry{LinkID: id, Record: c.records[id]})
	}
	return out
}

// MarshalJSON encodes the catalog as a single object with keys in insertion order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", id, err)
		}
		val, err := json.Marshal(c.records[id])
		if err != nil {
			return nil, fmt.Errorf("encode record %q: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of records, keeping the key order of the
// document. A repeated key keeps its first value.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("catalog must be a JSON object, got %v", tok)
	}

	fresh := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read catalog key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected catalog key %v", tok)
		}
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("decode record %q: %w", key, err)
		}
		fresh.Add(key, rec)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read catalog end: %w", err)
	}

	*c = *fresh
	return nil
}
