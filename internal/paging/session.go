package paging

import (
	"context"
	"errors"
	"time"

	eventbus "github.com/hanpama/graphpage/internal/eventbus"
	events "github.com/hanpama/graphpage/internal/events"
	forest "github.com/hanpama/graphpage/internal/forest"
	reqid "github.com/hanpama/graphpage/internal/reqid"
)

// ErrSessionFinished is returned by NextPage once the session is exhausted.
// Calling NextPage on a finished session is a programming error; it fails
// fast and has no side effects.
var ErrSessionFinished = errors.New("paging: session already finished")

// Page is the outcome of one round: the items returned per sub-query and
// whether the session is now exhausted.
type Page struct {
	Items    map[forest.ID][]any
	Finished bool
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	excluded map[forest.ID]struct{}
}

// WithNeverPaginate exempts ids from cursor advancement for the whole
// session. The executor may keep returning cursors for them; they are never
// selected as leaves and their cursors are never resubmitted.
func WithNeverPaginate(ids ...forest.ID) Option {
	return func(o *sessionOptions) {
		if o.excluded == nil {
			o.excluded = make(map[forest.ID]struct{}, len(ids))
		}
		for _, id := range ids {
			o.excluded[id] = struct{}{}
		}
	}
}

// Session drives one composite query through its pagination rounds. It holds
// the dependency forest (immutable), the sub-query definitions, and the
// current CursorRound. Sessions share no state; a Session is not safe for
// concurrent use, matching the one-outstanding-request model.
type Session struct {
	exec   Executor
	forest *forest.Forest
	defs   map[forest.ID]string
	round  CursorRound
	rounds int
	sid    int64
	start  time.Time
}

// NewSession validates the shape, builds its dependency forest, and returns
// a session positioned before the first round. A malformed shape fails with
// a forest.ShapeError.
func NewSession(exec Executor, shape Shape, opts ...Option) (*Session, error) {
	var o sessionOptions
	for _, f := range opts {
		f(&o)
	}
	w, err := forest.Build(shape.decls())
	if err != nil {
		return nil, err
	}
	return &Session{
		exec:   exec,
		forest: w,
		defs:   shape.definitions(),
		round:  newRound(o.excluded),
		sid:    reqid.New(),
	}, nil
}

// Finished reports whether pagination is exhausted. It is pure: repeated
// calls without an intervening NextPage never change state.
func (s *Session) Finished() bool { return s.round.Finished() }

// NextPage performs exactly one round against the executor.
//
// The very first round submits the entire unmodified shape, fetching first
// pages for everything. Later rounds submit only what leaf selection
// computed; when the leaf set is empty the round finishes vacuously without
// contacting the executor. On executor failure the error propagates verbatim
// and the session stays at its last completed round, so a retry resubmits
// the identical request.
func (s *Session) NextPage(ctx context.Context) (Page, error) {
	if s.round.Finished() {
		return Page{}, ErrSessionFinished
	}
	ctx = reqid.WithID(ctx, s.sid)
	round := s.rounds + 1
	if round == 1 {
		s.start = time.Now()
		eventbus.Publish(ctx, events.SessionStart{SessionID: s.sid, SubQueries: s.forest.Len()})
	}

	var req Request
	var leaves []forest.ID
	if s.round.isNew {
		for _, id := range s.forest.IDs() {
			req.Entries = append(req.Entries, RequestEntry{ID: id, Definition: s.defs[id]})
		}
	} else {
		p := selectLeaves(s.forest, s.round)
		if len(p.leaves) == 0 {
			// Every remaining cursor belongs to an excluded sub-query.
			s.round = s.round.next(nil)
			s.rounds = round
			eventbus.Publish(ctx, events.RoundStart{SessionID: s.sid, Round: round})
			eventbus.Publish(ctx, events.RoundFinish{SessionID: s.sid, Round: round})
			s.finishSession(ctx)
			return Page{Items: map[forest.ID][]any{}, Finished: true}, nil
		}
		leaves = p.leaves
		for _, e := range p.entries {
			req.Entries = append(req.Entries, RequestEntry{
				ID:         e.id,
				Definition: s.defs[e.id],
				Cursor:     e.cursor,
				HasCursor:  e.hasCursor,
			})
		}
	}

	eventbus.Publish(ctx, events.RoundStart{
		SessionID:  s.sid,
		Round:      round,
		First:      s.round.isNew,
		Leaves:     leaves,
		SubQueries: len(req.Entries),
	})
	started := time.Now()
	res, err := s.exec.Execute(ctx, req)
	if err != nil {
		eventbus.Publish(ctx, events.RoundFinish{
			SessionID: s.sid, Round: round, Err: err, Duration: time.Since(started),
		})
		return Page{}, err
	}

	// Executors may return cursors for ids outside the shape; those never
	// enter the working set.
	cursors := make(map[forest.ID]string, len(res.Cursors))
	for id, c := range res.Cursors {
		if s.forest.Has(id) {
			cursors[id] = c
		}
	}
	s.round = s.round.next(cursors)
	s.rounds = round
	eventbus.Publish(ctx, events.RoundFinish{
		SessionID: s.sid, Round: round, Cursors: len(cursors), Duration: time.Since(started),
	})

	finished := s.round.Finished()
	if finished {
		s.finishSession(ctx)
	}
	items := res.Items
	if items == nil {
		items = map[forest.ID][]any{}
	}
	return Page{Items: items, Finished: finished}, nil
}

func (s *Session) finishSession(ctx context.Context) {
	eventbus.Publish(ctx, events.SessionFinish{
		SessionID: s.sid,
		Rounds:    s.rounds,
		Duration:  time.Since(s.start),
	})
}
