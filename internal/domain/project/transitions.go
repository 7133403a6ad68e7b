package project

// NextStatuses lists the statuses reachable from s in one step.
func NextStatuses(s Status) []Status {
	switch s {
	case StatusDraft:
		return []Status{StatusPlanned, StatusArchived}
	case StatusPlanned:
		return []Status{StatusActive, StatusDraft, StatusArchived}
	case StatusActive:
		return []Status{StatusOnHold, StatusCompleted, StatusArchived}
	case StatusOnHold:
		return []Status{StatusActive, StatusArchived}
	case StatusCompleted:
		return []Status{StatusArchived}
	case StatusArchived:
		return nil
	}
	return nil
}

// CanTransitionTo reports whether the graph has an edge from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, candidate := range NextStatuses(s) {
		if candidate == next {
			return true
		}
	}
	return false
}

// CheckTransition fails with a TransitionError when the edge is absent.
// Completion preconditions are evaluated separately by the service.
func CheckTransition(from, to Status) error {
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
