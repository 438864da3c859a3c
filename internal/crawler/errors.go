package crawler

import "fmt"

// TransportError reports a fetch that failed before a document was obtained.
// LinkID is empty when the index page itself could not be fetched.
type TransportError struct {
	URL    string
	LinkID string
	Err    error
}

func (e *TransportError) Error() string {
	if e.LinkID != "" {
		return fmt.Sprintf("fetch section %s (%s): %v", e.LinkID, e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a document that did not have the expected shape.
type ParseError struct {
	LinkID string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse section %s: %v", e.LinkID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
