package trace

import "context"

type tracerKey struct{}

type spanKey struct{}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx. A nil t detaches tracing.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// SpanContext identifies the innermost open span of a call chain.
type SpanContext struct {
	SpanID uint64
	GID    uint64
}

// CurrentSpan returns the span carried by ctx; the zero value means the
// next span is a root.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	if sc, ok := ctx.Value(spanKey{}).(SpanContext); ok {
		return sc
	}
	return SpanContext{}
}

// WithSpanContext makes sc the parent of spans begun from the returned ctx.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	if ctx == nil {
		return nil
	}
	return context.WithValue(ctx, spanKey{}, sc)
}

// Start begins a span under the current span of ctx and returns a context
// in which it is the current span. The caller ends the span.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	sp := Begin(FromContext(ctx), scope, name, CurrentSpan(ctx).SpanID)
	if sp.ID() == 0 {
		return ctx, sp
	}
	return WithSpanContext(ctx, SpanContext{SpanID: sp.ID(), GID: sp.gid}), sp
}
