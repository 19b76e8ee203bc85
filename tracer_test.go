package spanz

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTracerNestedFlush(t *testing.T) {
	tracer := newDataTracer()
	defer tracer.Close()

	outer := tracer.StartSpan()
	middle := tracer.StartSpan()
	inner := tracer.StartSpan()
	outerID, middleID, innerID := outer.SpanID, middle.SpanID, inner.SpanID

	if trace, ok := tracer.TraceID(); !ok || trace != outerID {
		t.Errorf("Expected trace %d, got %d", outerID, trace)
	}
	if tracer.Depth() != 3 {
		t.Errorf("Expected depth 3, got %d", tracer.Depth())
	}

	for i := 0; i < 3; i++ {
		if _, ok := tracer.FinishSpan(); !ok {
			t.Fatalf("finish %d: expected open span", i)
		}
	}
	if _, ok := tracer.FinishSpan(); ok {
		t.Error("Expected extra finish to be a no-op")
	}
	if tracer.Pending() != 3 {
		t.Errorf("Expected 3 pending, got %d", tracer.Pending())
	}

	chunk, err := tracer.Flush()
	if err != nil {
		t.Fatalf("Unexpected flush error: %v", err)
	}
	spans, err := DecodeChunk(chunk)
	if err != nil || len(spans) != 3 {
		t.Fatalf("Expected 3 spans, got %d (%v)", len(spans), err)
	}

	parents := map[uint64]uint64{}
	for _, sp := range spans {
		if asUint64(t, sp[KeyTraceID]) != uint64(outerID) {
			t.Errorf("Expected shared trace %d, got %v", outerID, sp[KeyTraceID])
		}
		parents[asUint64(t, sp[KeySpanID])] = asUint64(t, sp[KeyParentID])
	}
	if parents[uint64(innerID)] != uint64(middleID) || parents[uint64(middleID)] != uint64(outerID) || parents[uint64(outerID)] != 0 {
		t.Errorf("Parent chain does not match nesting: %v", parents)
	}

	chunk, err = tracer.Flush()
	if spans, _ := DecodeChunk(chunk); err != nil || len(spans) != 0 {
		t.Error("Expected second flush to be empty")
	}
}

func TestTracerFinishSpanStopsTimingOnce(t *testing.T) {
	clock := clockz.NewFakeClockAt(testEpoch)
	tracer := New[int](&recordingHost{}, &recordingEncoder{}, WithDebugSeed(42), WithClock(clock), WithTimingPolicy(ManualStop))
	defer tracer.Close()

	sp := tracer.StartSpan()
	clock.Advance(10 * time.Millisecond)
	tracer.StopTiming(sp)
	clock.Advance(10 * time.Millisecond)
	tracer.FinishSpan()
	if sp.Elapsed() != 10*time.Millisecond {
		t.Errorf("Expected frozen 10ms, got %v", sp.Elapsed())
	}

	// FinishSpan stops timing even under ManualStop.
	sp = tracer.StartSpan()
	clock.Advance(7 * time.Millisecond)
	tracer.FinishSpan()
	if sp.Elapsed() != 7*time.Millisecond {
		t.Errorf("Expected 7ms, got %v", sp.Elapsed())
	}

	// CloseSpan honours ManualStop.
	sp = tracer.StartSpan()
	clock.Advance(7 * time.Millisecond)
	tracer.CloseSpan()
	if sp.Duration != 0 {
		t.Errorf("Expected zero duration, got %d", sp.Duration)
	}
}

func TestTracerFlushForwardsToCollector(t *testing.T) {
	collector := NewCollector(10, nil)
	collector.SetSyncMode(true)
	defer collector.Close()

	tracer := newDataTracer(WithCollector(collector))
	defer tracer.Close()

	tracer.StartSpan()
	tracer.StartSpan()
	tracer.FinishSpan()
	tracer.FinishSpan()
	if _, err := tracer.Flush(); err != nil {
		t.Fatalf("Unexpected flush error: %v", err)
	}
	// Nothing closed, nothing forwarded.
	if _, err := tracer.Flush(); err != nil {
		t.Fatalf("Unexpected flush error: %v", err)
	}

	chunks := collector.Export()
	if len(chunks) != 1 || chunks[0].Spans != 2 {
		t.Fatalf("Expected one chunk of 2 spans, got %+v", chunks)
	}
	if spans, err := DecodeChunk(chunks[0].Data); err != nil || len(spans) != 2 {
		t.Errorf("Expected collector chunk to decode, got %d (%v)", len(spans), err)
	}
}

func TestTracerCloseDiscardsWithoutEncoding(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	host := &recordingHost{}
	enc := &recordingEncoder{}
	tracer := New[int](host, enc, WithDebugSeed(42), WithLogger(zap.New(core)))

	tracer.StartSpan()
	tracer.StartSpan()
	tracer.FinishSpan()

	tracer.Close()
	tracer.Close()

	if len(enc.seen) != 0 {
		t.Errorf("Expected no encoding at teardown, got %d", len(enc.seen))
	}
	if len(host.released) != 2 {
		t.Errorf("Expected 2 payloads released, got %d", len(host.released))
	}
	if tracer.Depth() != 0 || tracer.Pending() != 0 || tracer.IDs().Len() != 0 {
		t.Error("Expected empty stacks after close")
	}
	if logs.Len() != 1 {
		t.Errorf("Expected one teardown warning, got %d", logs.Len())
	}
}

func TestTracerShutdownFlushesFirst(t *testing.T) {
	enc := &recordingEncoder{}
	tracer := New[int](&recordingHost{}, enc, WithDebugSeed(42))

	tracer.StartSpan()
	tracer.FinishSpan()
	tracer.StartSpan() // never closed

	if err := tracer.Shutdown(); err != nil {
		t.Fatalf("Unexpected shutdown error: %v", err)
	}
	if len(enc.seen) != 1 {
		t.Errorf("Expected only the closed span encoded, got %d", len(enc.seen))
	}
	if err := tracer.Shutdown(); err != nil {
		t.Errorf("Expected second shutdown to be a no-op, got %v", err)
	}
}

func TestTracerWithoutEncoder(t *testing.T) {
	tracer := New[int](&recordingHost{}, nil)
	defer tracer.Close()

	if _, err := tracer.Flush(); err == nil {
		t.Error("Expected error flushing without an encoder")
	}
}

func TestTracerBitSource(t *testing.T) {
	tracer := New[int](&recordingHost{}, nil, WithBitSource(&seqSource{vals: []uint64{10, 20}}))
	defer tracer.Close()

	a := tracer.StartSpan()
	b := tracer.StartSpan()
	if a.SpanID != 6 || b.SpanID != 11 {
		t.Errorf("Expected ids 6 and 11, got %d and %d", a.SpanID, b.SpanID)
	}
}

func TestTracersAreIndependent(t *testing.T) {
	a := newDataTracer()
	b := newDataTracer()
	defer a.Close()
	defer b.Close()

	a.StartSpan()
	child := b.StartSpan()
	if child.ParentID != NoID {
		t.Error("Expected a span in another context not to inherit a parent")
	}
}

func TestContextPropagation(t *testing.T) {
	tracer := newDataTracer()
	defer tracer.Close()

	ctx := WithTracer(context.Background(), tracer)
	if FromContext[*SpanData](ctx) != tracer {
		t.Fatal("Expected tracer from context")
	}
	if FromContext[int](ctx) != nil {
		t.Error("Expected nil for a different payload type")
	}
	if FromContext[*SpanData](nil) != nil { //nolint:staticcheck // nil context is tolerated
		t.Error("Expected nil for nil context")
	}

	parent, ok := StartSpan[*SpanData](ctx)
	if !ok {
		t.Fatal("Expected span from context tracer")
	}
	child, _ := StartSpan[*SpanData](ctx)
	if child.ParentID != parent.SpanID {
		t.Errorf("Expected parent %d, got %d", parent.SpanID, child.ParentID)
	}
	FinishSpan[*SpanData](ctx)
	FinishSpan[*SpanData](ctx)
	if tracer.Pending() != 2 {
		t.Errorf("Expected 2 pending, got %d", tracer.Pending())
	}

	if _, ok := StartSpan[*SpanData](context.Background()); ok {
		t.Error("Expected no span without a tracer")
	}
	if _, ok := FinishSpan[*SpanData](context.Background()); ok {
		t.Error("Expected no finish without a tracer")
	}
}
