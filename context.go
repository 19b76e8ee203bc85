package spanz

import "context"

// tracerKeyType is a private type for context keys to avoid collisions.
type tracerKeyType string

const tracerKey tracerKeyType = "spanz"

// WithTracer returns a context carrying t. Child work on the same
// goroutine retrieves it with FromContext.
func WithTracer[P any](ctx context.Context, t *Tracer[P]) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tracerKey, t)
}

// FromContext returns the Tracer stored by WithTracer, or nil.
func FromContext[P any](ctx context.Context) *Tracer[P] {
	if ctx == nil {
		return nil
	}
	t, _ := ctx.Value(tracerKey).(*Tracer[P])
	return t
}

// StartSpan opens a span on the context's tracer. ok is false when the
// context carries no tracer of that payload type.
func StartSpan[P any](ctx context.Context) (*Span[P], bool) {
	t := FromContext[P](ctx)
	if t == nil {
		return nil, false
	}
	return t.StartSpan(), true
}

// FinishSpan finishes the innermost span on the context's tracer.
func FinishSpan[P any](ctx context.Context) (*Span[P], bool) {
	t := FromContext[P](ctx)
	if t == nil {
		return nil, false
	}
	return t.FinishSpan()
}
