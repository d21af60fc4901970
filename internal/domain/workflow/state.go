package workflow

// State represents a voucher status in the approval lifecycle
type State string

const (
	StateDraft           State = "DRAFT"
	StatePendingApproval State = "PENDING_APPROVAL"
	StateApproved        State = "APPROVED"
	StatePaid            State = "PAID"
	StateRejected        State = "REJECTED"

	// StateDeleted is never persisted: a voucher reaching it no longer exists.
	StateDeleted State = "DELETED"
)

// persistedStates lists the statuses a stored voucher can carry, in lifecycle order
var persistedStates = []State{
	StateDraft,
	StatePendingApproval,
	StateApproved,
	StatePaid,
	StateRejected,
}

// States returns every status a stored voucher can carry, in lifecycle order
func States() []State {
	return append([]State(nil), persistedStates...)
}

// IsTerminal returns true if no status transition leaves the state
func (s State) IsTerminal() bool {
	switch s {
	case StatePaid, StateRejected, StateDeleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	switch s {
	case StateDraft, StatePendingApproval, StateApproved, StatePaid, StateRejected, StateDeleted:
		return true
	default:
		return false
	}
}

// IsPersisted returns true if a stored voucher can carry this status
func (s State) IsPersisted() bool {
	return s.IsValid() && s != StateDeleted
}
