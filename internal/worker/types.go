package worker

// State is a stage of a crawl run.
type State string

// Run states, in the order a complete run visits them.
const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateFetching    State = "fetching"
	StateMerging     State = "merging"
	StatePersisting  State = "persisting"
	StateReporting   State = "reporting"
)

// Outcome is how a run ended.
type Outcome string

// Run outcomes.
const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeNothingToDo Outcome = "nothing_to_do"
	OutcomeInterrupted Outcome = "interrupted"
	OutcomeFailed      Outcome = "failed"
)

// Summary describes a finished run.
type Summary struct {
	RunID       string
	Outcome     Outcome
	Discovered  int
	Added       int
	Skipped     int
	CatalogSize int
	ReportURI   string
	Trail       []State
}
