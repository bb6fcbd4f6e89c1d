package scan

import "fmt"

// State is a scan session state.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateScanning
	StateCandidateFound
	StateConfirming
	StateRecording
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateScanning:
		return "scanning"
	case StateCandidateFound:
		return "candidate_found"
	case StateConfirming:
		return "confirming"
	case StateRecording:
		return "recording"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the ordinary edges. Error and Closed are reachable from
// every live state and are handled in CanTransition.
var transitions = map[State][]State{
	StateIdle:           {StateAcquiring},
	StateAcquiring:      {StateScanning},
	StateScanning:       {StateCandidateFound},
	StateCandidateFound: {StateConfirming},
	StateConfirming:     {StateRecording, StateScanning},
	StateRecording:      {StateScanning, StateConfirming},
	StateError:          {StateIdle, StateScanning},
}

// CanTransition reports whether a session may move from one state to another.
func CanTransition(from, to State) bool {
	if from == StateClosed {
		return false
	}
	if to == StateClosed {
		return true
	}
	if to == StateError {
		return from != StateError
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
