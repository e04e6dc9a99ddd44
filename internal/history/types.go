// Package history records the outcome of each rewrite cycle in SQLite.
//
// Only metadata is stored: lengths, provider, model and outcome. The
// selected and rewritten text never reach the database.
package history

import "time"

// Outcome is the final state of a cycle.
type Outcome string

const (
	// OutcomePresented means a suggestion was shown and no action taken yet.
	OutcomePresented Outcome = "presented"
	// OutcomeApplied means the replacement engine confirmed the write.
	OutcomeApplied Outcome = "applied"
	// OutcomeFallback means the text was pasted through the clipboard.
	OutcomeFallback Outcome = "fallback"
	// OutcomeDismissed means the user closed the suggestion.
	OutcomeDismissed Outcome = "dismissed"
	// OutcomeFailed means capture or the provider failed.
	OutcomeFailed Outcome = "failed"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePresented, OutcomeApplied, OutcomeFallback, OutcomeDismissed, OutcomeFailed:
		return true
	}
	return false
}

// Entry is one rewrite cycle.
type Entry struct {
	ID           string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Outcome      Outcome
	Provider     string
	Model        string
	Instruction  string
	OriginalLen  int
	RewrittenLen int
	Duration     time.Duration
	Error        string
}

// Stats summarizes stored cycles by outcome.
type Stats struct {
	Total     int
	ByOutcome map[Outcome]int
}
