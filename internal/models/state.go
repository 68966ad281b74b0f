package models

// State of the reminder job.
type State int

const (
	StateUnset State = iota
	StateScheduled
	StateFiring
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateFiring:
		return "firing"
	default:
		return "unset"
	}
}
