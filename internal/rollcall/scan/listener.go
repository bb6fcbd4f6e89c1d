package scan

import (
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/payload"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// Candidate is a resolved person waiting for the operator's decision.
type Candidate struct {
	OccasionID string
	Person     types.PersonIdentity
	Intent     payload.Intent
}

// Listener receives the outcome of each scan attempt. Callbacks run on the
// session goroutine (or the goroutine calling Close on an idle session) and
// must not block.
type Listener interface {
	OnRecorded(personID string)
	OnCancelled()
	OnError(kind service.Kind, message string)
}

// CandidateListener is implemented by listeners that want to prompt the
// operator when a candidate reaches the gate. It fires again when a failed
// write sends the same candidate back for another try.
type CandidateListener interface {
	OnCandidate(c Candidate)
}

// StateListener is implemented by listeners that follow state changes.
type StateListener interface {
	OnStateChange(from, to State)
}

type nopListener struct{}

func (nopListener) OnRecorded(string)            {}
func (nopListener) OnCancelled()                 {}
func (nopListener) OnError(service.Kind, string) {}
