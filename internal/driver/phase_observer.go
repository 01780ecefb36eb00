package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a driver phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a timing phase boundary.
type PhaseEvent struct {
	File    string
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during LinkFile.
type PhaseObserver func(PhaseEvent)

// phase reports start to obs and returns the matching end call.
func (obs PhaseObserver) phase(file, name string) func() {
	if obs == nil {
		return func() {}
	}
	start := time.Now()
	obs(PhaseEvent{File: file, Name: name, Status: PhaseStart})
	return func() {
		obs(PhaseEvent{File: file, Name: name, Status: PhaseEnd, Elapsed: time.Since(start)})
	}
}
