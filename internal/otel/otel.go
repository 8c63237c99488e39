package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/graphpage/internal/eventbus"
	events "github.com/hanpama/graphpage/internal/events"
	reqid "github.com/hanpama/graphpage/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers that map
// pagination sessions, rounds and executor calls to spans.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("graphpage")}
	sub.register()

	return tp.Shutdown, nil
}

// subscriber keys spans by session id. A session runs at most one round and
// one executor call at a time, so the session id is enough to correlate.
type subscriber struct {
	tracer       trace.Tracer
	sessionSpans sync.Map // sid -> trace.Span
	roundSpans   sync.Map // sid -> trace.Span
	execSpans    sync.Map // sid -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.SessionStart) {
		_, span := s.tracer.Start(ctx, "paging.session")
		span.SetAttributes(
			attribute.Int64("paging.session.id", e.SessionID),
			attribute.Int("paging.session.sub_queries", e.SubQueries),
		)
		s.sessionSpans.Store(e.SessionID, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.SessionFinish) {
		v, ok := s.sessionSpans.LoadAndDelete(e.SessionID)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Int("paging.session.rounds", e.Rounds))
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.RoundStart) {
		parent := ctx
		if v, ok := s.sessionSpans.Load(e.SessionID); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
		}
		_, span := s.tracer.Start(parent, "paging.round")
		leaves := make([]string, len(e.Leaves))
		for i, id := range e.Leaves {
			leaves[i] = string(id)
		}
		span.SetAttributes(
			attribute.Int("paging.round.number", e.Round),
			attribute.Bool("paging.round.first", e.First),
			attribute.StringSlice("paging.round.leaves", leaves),
			attribute.Int("paging.round.sub_queries", e.SubQueries),
		)
		s.roundSpans.Store(e.SessionID, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.RoundFinish) {
		v, ok := s.roundSpans.LoadAndDelete(e.SessionID)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Int("paging.round.cursors", e.Cursors))
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ExecutorCallStart) {
		sid, _ := reqid.FromContext(ctx)
		parent := ctx
		if v, ok := s.roundSpans.Load(sid); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
		}
		_, span := s.tracer.Start(parent, "executor.call")
		span.SetAttributes(
			attribute.String("executor.transport", e.Transport),
			attribute.String("net.peer.name", e.Target),
			attribute.Int("executor.sub_queries", e.SubQueries),
		)
		s.execSpans.Store(sid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ExecutorCallFinish) {
		sid, _ := reqid.FromContext(ctx)
		v, ok := s.execSpans.LoadAndDelete(sid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})
}
