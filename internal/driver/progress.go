package driver

import "time"

// Stage describes a step of linking one unit file.
type Stage string

const (
	// StageLoad reads and decodes the unit.
	StageLoad Stage = "load"
	// StageCache looks the unit up in the caches.
	StageCache Stage = "cache"
	// StageLink runs the linker.
	StageLink Stage = "link"
	// StageWrite writes the linked unit.
	StageWrite Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the unit is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the unit is in the given stage.
	StatusWorking Status = "working"
	// StatusDone indicates the unit is finished.
	StatusDone Status = "done"
	// StatusError indicates the unit failed.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
	Cached  bool
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, ev Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(ev)
}
