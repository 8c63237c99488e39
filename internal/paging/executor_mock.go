package paging

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	forest "github.com/hanpama/graphpage/internal/forest"
)

// MockExecutor implements Executor for tests. Each sub-query is scripted as a
// list of pages; cursors are "p<index>" tokens pointing at the next page.
// Every Execute call is recorded in order, including failed ones, so tests
// can assert exactly which ids were submitted and with which cursors.
type MockExecutor struct {
	mu       sync.Mutex
	pages    map[forest.ID][][]any
	calls    []Call
	failures []error
}

// Call is one recorded Execute invocation.
type Call struct {
	Entries []RequestEntry
}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{pages: make(map[forest.ID][][]any)}
}

// SetPages scripts the full page sequence for one sub-query.
func (m *MockExecutor) SetPages(id forest.ID, pages ...[]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[id] = pages
}

// FailNext queues a one-shot failure: the next Execute call records its
// request and returns err without producing a result.
func (m *MockExecutor) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, err)
}

// Calls returns a copy of the recorded calls in order.
func (m *MockExecutor) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockExecutor) Execute(ctx context.Context, req Request) (*RoundResult, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]RequestEntry, len(req.Entries))
	copy(entries, req.Entries)
	m.calls = append(m.calls, Call{Entries: entries})

	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return nil, err
	}

	res := &RoundResult{
		Items:   make(map[forest.ID][]any),
		Cursors: make(map[forest.ID]string),
	}
	for _, e := range req.Entries {
		idx := 0
		if e.HasCursor {
			n, err := strconv.Atoi(strings.TrimPrefix(e.Cursor, "p"))
			if err != nil {
				return nil, fmt.Errorf("mock: bad cursor %q for %s", e.Cursor, e.ID)
			}
			idx = n
		}
		pages := m.pages[e.ID]
		if idx >= len(pages) {
			continue
		}
		res.Items[e.ID] = pages[idx]
		if idx+1 < len(pages) {
			res.Cursors[e.ID] = "p" + strconv.Itoa(idx+1)
		}
	}
	return res, nil
}
