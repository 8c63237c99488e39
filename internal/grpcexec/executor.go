package grpcexec

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	eventbus "github.com/hanpama/graphpage/internal/eventbus"
	events "github.com/hanpama/graphpage/internal/events"
	forest "github.com/hanpama/graphpage/internal/forest"
	paging "github.com/hanpama/graphpage/internal/paging"
	wire "github.com/hanpama/graphpage/internal/wire"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Executor submits rounds to a remote graphpage.Executor service over gRPC.
// Messages are built dynamically against the wire descriptors, so no
// generated stubs are involved. Connections are pooled per endpoint.
type Executor struct {
	opts *Options

	mu     sync.RWMutex
	pools  map[string]*connPool // key: endpoint
	closed atomic.Bool
}

var _ paging.Executor = (*Executor)(nil)

func New(opts ...Option) *Executor {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	if len(o.DialOptions) == 0 {
		o.DialOptions = []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithConnectParams(grpc.ConnectParams{Backoff: backoff.DefaultConfig}),
		}
	}
	return &Executor{
		opts:  o,
		pools: make(map[string]*connPool),
	}
}

// Execute implements paging.Executor. Transport and service errors are
// returned verbatim so the session can surface them unchanged.
func (e *Executor) Execute(ctx context.Context, req paging.Request) (*paging.RoundResult, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if e.opts.Provider == nil {
		return nil, fmt.Errorf("grpcexec: provider not configured")
	}

	if _, ok := ctx.Deadline(); !ok && e.opts.RPCTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RPCTimeout)
		defer cancel()
	}

	endpoints, err := e.opts.Provider.Endpoints(ctx)
	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	endpoint := endpoints[rand.IntN(len(endpoints))]

	cc, err := e.getConn(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer e.returnConn(endpoint, cc)

	msg := encodeRequest(req)
	resp := dynamicpb.NewMessage(wire.Response())
	fullMethod := fmt.Sprintf("/%s/%s", wire.ServiceName, wire.MethodName)

	start := time.Now()
	eventbus.Publish(ctx, events.ExecutorCallStart{
		Transport: "grpc", Target: endpoint, SubQueries: len(req.Entries),
	})
	err = cc.Invoke(ctx, fullMethod, msg, resp)
	eventbus.Publish(ctx, events.ExecutorCallFinish{
		Transport: "grpc", Target: endpoint, Err: err, Duration: time.Since(start),
	})
	if err != nil {
		return nil, err
	}
	return decodeResponse(resp)
}

func encodeRequest(req paging.Request) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(wire.Request())
	list := msg.Mutable(wire.Request().Fields().ByName("sub_queries")).List()
	fields := wire.SubQuery().Fields()
	for _, entry := range req.Entries {
		el := list.NewElement()
		sm := el.Message()
		sm.Set(fields.ByName("id"), protoreflect.ValueOfString(string(entry.ID)))
		sm.Set(fields.ByName("definition"), protoreflect.ValueOfString(entry.Definition))
		if entry.HasCursor {
			sm.Set(fields.ByName("cursor"), protoreflect.ValueOfString(entry.Cursor))
		}
		list.Append(el)
	}
	return msg
}

func decodeResponse(resp *dynamicpb.Message) (*paging.RoundResult, error) {
	out := &paging.RoundResult{
		Items:   make(map[forest.ID][]any),
		Cursors: make(map[forest.ID]string),
	}
	results := resp.Get(wire.Response().Fields().ByName("results")).List()
	fields := wire.SubQueryResult().Fields()
	fID := fields.ByName("id")
	fItems := fields.ByName("items")
	fNext := fields.ByName("next_cursor")
	for i := 0; i < results.Len(); i++ {
		rm := results.Get(i).Message()
		id := forest.ID(rm.Get(fID).String())
		itemList := rm.Get(fItems).List()
		items := make([]any, 0, itemList.Len())
		for j := 0; j < itemList.Len(); j++ {
			var v any
			if err := json.Unmarshal([]byte(itemList.Get(j).String()), &v); err != nil {
				return nil, fmt.Errorf("grpcexec: decoding item %d of %s: %w", j, id, err)
			}
			items = append(items, v)
		}
		out.Items[id] = items
		if rm.Has(fNext) {
			out.Cursors[id] = rm.Get(fNext).String()
		}
	}
	return out, nil
}

func (e *Executor) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.pools {
		p.close()
	}
	e.pools = map[string]*connPool{}
	return nil
}

// ---------------- connection pooling ----------------

type connPool struct {
	endpoint string
	opts     *Options
	conns    chan *grpc.ClientConn
	closed   atomic.Bool
}

func newConnPool(endpoint string, opts *Options) *connPool {
	n := opts.MaxConnsPerEndpoint
	if n <= 0 {
		n = 2
	}
	return &connPool{
		endpoint: endpoint,
		opts:     opts,
		conns:    make(chan *grpc.ClientConn, n),
	}
}

func (p *connPool) get(ctx context.Context) (*grpc.ClientConn, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	select {
	case cc := <-p.conns:
		return cc, nil
	default:
		cc, err := grpc.DialContext(ctx, p.endpoint, p.opts.DialOptions...)
		if err != nil {
			return nil, err
		}
		return cc, nil
	}
}

func (p *connPool) put(cc *grpc.ClientConn) {
	if cc == nil {
		return
	}
	if p.closed.Load() {
		_ = cc.Close()
		return
	}
	select {
	case p.conns <- cc:
	default:
		_ = cc.Close()
		return
	}
	// close may have drained concurrently between the check and the send;
	// re-checking after parking guarantees the conn is not stranded.
	if p.closed.Load() {
		p.drain()
	}
}

func (p *connPool) close() {
	if p.closed.Swap(true) {
		return
	}
	p.drain()
}

// drain empties the pool without closing the channel, so a concurrent put
// can never panic on a closed channel.
func (p *connPool) drain() {
	for {
		select {
		case cc := <-p.conns:
			_ = cc.Close()
		default:
			return
		}
	}
}

func (e *Executor) getConn(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
	e.mu.RLock()
	pool := e.pools[endpoint]
	e.mu.RUnlock()
	if pool == nil {
		e.mu.Lock()
		pool = e.pools[endpoint]
		if pool == nil {
			pool = newConnPool(endpoint, e.opts)
			e.pools[endpoint] = pool
		}
		e.mu.Unlock()
	}
	return pool.get(ctx)
}

func (e *Executor) returnConn(endpoint string, cc *grpc.ClientConn) {
	e.mu.RLock()
	pool := e.pools[endpoint]
	e.mu.RUnlock()
	if pool != nil {
		pool.put(cc)
		return
	}
	_ = cc.Close()
}
