package cancellation

import "github.com/estateflow/server/internal/model"

// State is the local state of a cancellation workflow. Besides the backend
// statuses it has StateNone for a transaction with no cancellation.
type State string

const (
	StateNone      State = "none"
	StatePending   State = State(model.CancellationStatusPending)
	StateConfirmed State = State(model.CancellationStatusConfirmed)
	StateFailed    State = State(model.CancellationStatusFailed)
)

// IsTerminal returns true if client-initiated mutation is no longer allowed.
func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// IsKnown reports whether the state is none or a recognised backend status.
func (s State) IsKnown() bool {
	return s == StateNone || model.CancellationStatus(s).IsKnown()
}

// DisplayName returns the state for display, "unknown" when unrecognised.
func (s State) DisplayName() string {
	if !s.IsKnown() {
		return "unknown"
	}
	return string(s)
}

func (s State) String() string {
	return string(s)
}
