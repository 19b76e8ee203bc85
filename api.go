// Package spanz provides the in-process core of a tracing engine: the
// span-identity stack and the span-lifecycle stack.
//
// spanz tracks nested units of work executed by a single logical thread of
// execution. Each span gets a 63-bit identifier, a parent and a trace, a
// wall-clock start and a monotonic duration. Closed spans are handed to an
// Encoder exactly once through Drain.
//
// Core Components:
//   - Generator: seeds and owns the random bit source for identifiers.
//   - IDStack: LIFO of active identifiers plus the root of the current trace.
//   - Stack: open and closed span lists, owning records end to end.
//   - ClockSource: wall-clock and monotonic nanosecond readings.
//   - Tracer: one execution context's instance of all of the above.
//   - Collector: shared sink for drained chunks from many contexts.
//
// Basic Usage:
//
//	tracer := spanz.New[*spanz.SpanData](spanz.NewDataHost(), spanz.MsgpEncoder[*spanz.SpanData]{})
//	defer tracer.Shutdown()
//
//	span := tracer.StartSpan()
//	span.Payload.Name = "http.request"
//	child := tracer.StartSpan()
//	child.Payload.Name = "db.query"
//	tracer.FinishSpan()
//	tracer.FinishSpan()
//
//	chunk, err := tracer.Flush()
//
// Thread Safety:
//
// Generator, IDStack, Stack and Tracer are NOT safe for concurrent use.
// Every goroutine or request that traces must own its own Tracer.
// Collector and Metrics are safe for concurrent use and may be shared.
//
// Unbalanced Calls:
//
// Popping an empty IDStack or closing with no open span is not an error.
// Those calls report ok == false and are counted and logged at debug level.
//
// Resource Cleanup:
//
// Call Tracer.Close (or Shutdown, which flushes first) when the execution
// context ends. Spans still open or closed but never drained are released
// without being encoded.
package spanz

import "strconv"

// ID is a 63-bit non-zero span identifier.
// NoID is reserved for "no active identifier".
type ID uint64

// NoID is the zero identifier.
const NoID ID = 0

// Valid reports whether id is a real identifier.
func (id ID) Valid() bool {
	return id != NoID
}

// Int64 returns id as a signed integer. Identifiers never exceed 2^63, and
// only 2^63 itself wraps; it is mapped to math.MaxInt64.
func (id ID) Int64() int64 {
	if id > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(id)
}

// String formats id in decimal.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
