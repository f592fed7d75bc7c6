package domain

import "time"

// Status enumerates transcription job lifecycle states. The values mirror
// what AssemblyAI reports so no translation layer is needed.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// ParseStatus maps a provider-reported status string onto the known set.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusError:
		return Status(s), true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition enforces the forward-only status ordering:
// queued → processing → completed, with error reachable from any
// non-terminal state. Writing the current status again is allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusQueued:
		return to == StatusProcessing || to == StatusCompleted || to == StatusError
	case StatusProcessing:
		return to == StatusCompleted || to == StatusError
	default:
		return false
	}
}

// Job is the locally tracked record of one submitted transcription request.
// The ID is assigned by the provider at submission time and never reused.
type Job struct {
	ID          string
	Status      Status
	StoragePath string
	Error       string
	CreatedAt   time.Time
}
