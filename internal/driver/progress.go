package driver

import "time"

// Stage names the part of a run an Event belongs to.
type Stage string

const (
	StageLoad  Stage = "load"
	StageCheck Stage = "check"
)

// Status is the state of a file or stage.
type Status string

const (
	// StatusQueued indicates the file is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file or stage is in progress.
	StatusWorking Status = "working"
	// StatusDone indicates every assertion held.
	StatusDone Status = "done"
	// StatusFailed indicates at least one failure.
	StatusFailed Status = "failed"
)

// Event reports progress. File is empty for stage-wide events.
type Event struct {
	File     string
	Stage    Stage
	Status   Status
	Failures int
	Elapsed  time.Duration
}

// ProgressSink receives progress events. OnEvent is called from worker
// goroutines.
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

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
