package events

import (
	"time"

	forest "github.com/hanpama/graphpage/internal/forest"
)

// SessionStart is emitted when a pagination session submits its first round.
type SessionStart struct {
	SessionID  int64
	SubQueries int
}

// SessionFinish is emitted once a session's pagination is exhausted.
type SessionFinish struct {
	SessionID int64
	Rounds    int
	Duration  time.Duration
}

// RoundStart is emitted before one round is submitted. For a vacuously
// finished round (all remaining cursors excluded) Leaves is empty and no
// executor call follows.
type RoundStart struct {
	SessionID  int64
	Round      int
	First      bool
	Leaves     []forest.ID
	SubQueries int
}

// RoundFinish is emitted after a round completes or fails.
type RoundFinish struct {
	SessionID int64
	Round     int
	Cursors   int
	Err       error
	Duration  time.Duration
}
