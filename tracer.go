package spanz

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Tracer is one execution context's tracing state: its identifier
// generator, span-ID stack and span lifecycle stack.
// NOT safe for concurrent use. Create one per goroutine or request and
// share only the Collector and Metrics between them.
//
//nolint:govet // Field order optimized for functionality over memory
type Tracer[P any] struct {
	gen       *Generator
	ids       *IDStack
	spans     *Stack[P]
	clock     *ClockSource
	encoder   Encoder[P]
	collector *Collector
	logger    *zap.Logger
	metrics   *Metrics
	closed    bool
}

// New initialises an execution context: it seeds the generator and resets
// both stacks. host supplies payloads; enc serializes spans on Flush.
func New[P any](host Host[P], enc Encoder[P], opts ...Option) *Tracer[P] {
	cfg := newSettings(opts)

	var gen *Generator
	if cfg.source != nil {
		gen = NewGeneratorFrom(cfg.source)
	} else {
		gen = NewGenerator(cfg.debugSeed)
	}

	t := &Tracer[P]{
		gen:       gen,
		clock:     NewClockSource(cfg.clock),
		encoder:   enc,
		collector: cfg.collector,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
	}
	t.ids = NewIDStack(gen)
	t.spans = NewStack(t.ids, t.clock, host, opts...)

	if seed, fixed := gen.Seeded(); fixed {
		t.logger.Debug("identifier generator seeded from configuration", zap.Uint64("seed", seed))
	}
	return t
}

// StartSpan opens a child of the active span, or a new root.
func (t *Tracer[P]) StartSpan() *Span[P] {
	return t.spans.Open()
}

// StopTiming freezes sp's duration while it is still open.
func (t *Tracer[P]) StopTiming(sp *Span[P]) {
	t.spans.StopTiming(sp)
}

// FinishSpan stops timing on the active span, unless already stopped, and
// closes it. ok is false when nothing was open.
func (t *Tracer[P]) FinishSpan() (*Span[P], bool) {
	if sp, ok := t.spans.Active(); ok && !sp.Stopped() {
		t.spans.StopTiming(sp)
	}
	return t.spans.Close()
}

// CloseSpan closes the active span without touching its timing beyond
// what the timing policy does.
func (t *Tracer[P]) CloseSpan() (*Span[P], bool) {
	return t.spans.Close()
}

// Active returns the innermost open span.
func (t *Tracer[P]) Active() (*Span[P], bool) {
	return t.spans.Active()
}

// TraceID returns the root identifier of the current nesting.
func (t *Tracer[P]) TraceID() (ID, bool) {
	return t.ids.Root()
}

// Depth returns the number of open spans.
func (t *Tracer[P]) Depth() int {
	return t.spans.OpenLen()
}

// Pending returns the number of closed spans not yet flushed.
func (t *Tracer[P]) Pending() int {
	return t.spans.ClosedLen()
}

// Generator exposes the identifier generator.
func (t *Tracer[P]) Generator() *Generator {
	return t.gen
}

// IDs exposes the span-ID stack.
func (t *Tracer[P]) IDs() *IDStack {
	return t.ids
}

// Spans exposes the span lifecycle stack.
func (t *Tracer[P]) Spans() *Stack[P] {
	return t.spans
}

// Flush drains every closed span through the encoder and returns the chunk.
// With a Collector configured the chunk is also queued there.
func (t *Tracer[P]) Flush() ([]byte, error) {
	if t.encoder == nil {
		return nil, errors.New("spanz: tracer has no encoder")
	}
	data, n, err := t.spans.Drain(t.encoder)
	if t.collector != nil && n > 0 {
		t.collector.Collect(Chunk{Data: data, Spans: n})
	}
	return data, err
}

// Close tears the execution context down. Spans that were never closed or
// never flushed are released without being encoded. Safe to call twice.
func (t *Tracer[P]) Close() {
	if t.closed {
		return
	}
	t.closed = true

	frames := t.ids.Teardown()
	open, closed := t.spans.Teardown()
	if open+closed > 0 {
		t.logger.Warn("discarding spans at teardown",
			zap.Int("open", open),
			zap.Int("closed", closed),
			zap.Int("id_frames", frames))
	}
}

// Shutdown flushes, then closes. The flush error is returned.
func (t *Tracer[P]) Shutdown() error {
	if t.closed {
		return nil
	}
	_, err := t.Flush()
	t.Close()
	return err
}
