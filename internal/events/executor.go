package events

import "time"

// ExecutorCallStart is emitted before a transport submits a round to the
// remote executor.
type ExecutorCallStart struct {
	Transport  string // "grpc" or "http"
	Target     string
	SubQueries int
}

// ExecutorCallFinish is emitted after the transport call completes.
type ExecutorCallFinish struct {
	Transport string
	Target    string
	Err       error
	Duration  time.Duration
}
