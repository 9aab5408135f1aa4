package model

// Status is the state of a task.
type Status int

const (
	StatusPending Status = iota
	StatusTransferring
	StatusSkipped
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusTransferring:
		return "transferring"
	case StatusSkipped:
		return "skipped"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions can happen.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSkipped, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
