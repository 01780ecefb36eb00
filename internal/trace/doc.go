// Package trace is the logging and tracing layer of the linker.
//
// Events form a tree of spans: the driver opens a span per run, the linker
// one per containing type and one per declaration, and site decisions are
// recorded as instant events. Verbosity is chosen by Level:
//
//   - LevelOff: nothing
//   - LevelError: only crash dumps from the ring buffer
//   - LevelPhase: driver and linker phases (analyze, name, merge, emit)
//   - LevelDetail: per containing type and per declaration
//   - LevelDebug: every link-site decision
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDecl, "decl:Foo()", parent)
//	defer span.End("")
//
// NopTracer costs nothing, StreamTracer writes text or NDJSON immediately,
// RingTracer keeps the last N events for a dump on panic, and MultiTracer
// fans out to several of them.
package trace
