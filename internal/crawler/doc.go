// Package crawler defines the collaborators and error taxonomy shared by the
// lecture indexer pipeline: fetch transport, blob persistence, clocks and
// run identifiers.
package crawler
