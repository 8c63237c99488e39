// Package httpexec submits rounds to a remote query executor over HTTP. The
// JSON body mirrors the proto contract in internal/wire: one object per
// sub-query, cursor omitted for first pages, nextCursor present while more
// pages remain.
package httpexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	eventbus "github.com/hanpama/graphpage/internal/eventbus"
	events "github.com/hanpama/graphpage/internal/events"
	forest "github.com/hanpama/graphpage/internal/forest"
	paging "github.com/hanpama/graphpage/internal/paging"
)

type Option func(*Executor)

// WithClient replaces the underlying *http.Client.
func WithClient(c *http.Client) Option { return func(e *Executor) { e.client = c } }

// WithTimeout sets the default per-call timeout, applied only when the
// incoming context carries no deadline.
func WithTimeout(d time.Duration) Option { return func(e *Executor) { e.timeout = d } }

// Executor implements paging.Executor against an HTTP endpoint.
type Executor struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

var _ paging.Executor = (*Executor)(nil)

func New(endpoint string, opts ...Option) *Executor {
	e := &Executor{
		endpoint: endpoint,
		client:   http.DefaultClient,
		timeout:  10 * time.Second,
	}
	for _, f := range opts {
		f(e)
	}
	return e
}

type wireSubQuery struct {
	ID         string  `json:"id"`
	Definition string  `json:"definition"`
	Cursor     *string `json:"cursor,omitempty"`
}

type wireRequest struct {
	SubQueries []wireSubQuery `json:"subQueries"`
}

type wireResult struct {
	ID         string  `json:"id"`
	Items      []any   `json:"items"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

type wireResponse struct {
	Results []wireResult `json:"results"`
}

// Execute implements paging.Executor. Transport and service errors are
// returned verbatim so the session can surface them unchanged.
func (e *Executor) Execute(ctx context.Context, req paging.Request) (*paging.RoundResult, error) {
	if _, ok := ctx.Deadline(); !ok && e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	body := wireRequest{SubQueries: make([]wireSubQuery, len(req.Entries))}
	for i, entry := range req.Entries {
		sq := wireSubQuery{ID: string(entry.ID), Definition: entry.Definition}
		if entry.HasCursor {
			c := entry.Cursor
			sq.Cursor = &c
		}
		body.SubQueries[i] = sq
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("httpexec: encoding request: %w", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	eventbus.Publish(ctx, events.ExecutorCallStart{
		Transport: "http", Target: e.endpoint, SubQueries: len(req.Entries),
	})
	hres, err := e.client.Do(hreq)
	eventbus.Publish(ctx, events.ExecutorCallFinish{
		Transport: "http", Target: e.endpoint, Err: err, Duration: time.Since(start),
	})
	if err != nil {
		return nil, err
	}
	defer hres.Body.Close()

	if hres.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(hres.Body, 512))
		return nil, fmt.Errorf("httpexec: %s returned %s: %s", e.endpoint, hres.Status, snippet)
	}

	var decoded wireResponse
	if err := json.NewDecoder(hres.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("httpexec: decoding response: %w", err)
	}
	out := &paging.RoundResult{
		Items:   make(map[forest.ID][]any),
		Cursors: make(map[forest.ID]string),
	}
	for _, r := range decoded.Results {
		id := forest.ID(r.ID)
		out.Items[id] = r.Items
		if r.NextCursor != nil {
			out.Cursors[id] = *r.NextCursor
		}
	}
	return out, nil
}
