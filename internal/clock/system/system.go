// Package system provides the wall clock used to time indexing runs.
package system

import "time"

// Clock reports UTC wall time. The worker uses it for run durations.
type Clock struct{}

// New returns a Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
