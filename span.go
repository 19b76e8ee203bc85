package spanz

import "time"

type spanState uint8

const (
	stateReleased spanState = iota
	stateOpen
	stateClosed
)

func (s spanState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateClosed:
		return "closed"
	default:
		return "released"
	}
}

// Span is one record on a Stack: a timed, identified unit of work.
// Spans are NOT thread-safe and belong to the Stack that opened them.
// After Drain or Teardown the record is zeroed; do not keep handles.
//
//nolint:govet // Field order follows the wire encoding.
type Span[P any] struct {
	Payload  P
	Err      error
	next     *Span[P]
	TraceID  ID
	SpanID   ID
	ParentID ID
	// Start is wall-clock nanoseconds since the Unix epoch.
	Start uint64
	// Duration is monotonic nanoseconds, frozen by StopTiming.
	Duration      uint64
	durationStart uint64
	stopped       bool
	state         spanState
}

// SetError attaches err to the span. The Host releases it with the record.
// A previously attached error is replaced without being released.
func (s *Span[P]) SetError(err error) {
	s.Err = err
}

// Stopped reports whether the duration has been frozen.
func (s *Span[P]) Stopped() bool {
	return s.stopped
}

// IsOpen reports whether the span is still on the open list.
func (s *Span[P]) IsOpen() bool {
	return s.state == stateOpen
}

// IsClosed reports whether the span is waiting on the closed list.
func (s *Span[P]) IsClosed() bool {
	return s.state == stateClosed
}

// StartTime returns Start as a time.Time.
func (s *Span[P]) StartTime() time.Time {
	return time.Unix(0, int64(s.Start))
}

// Elapsed returns Duration as a time.Duration.
func (s *Span[P]) Elapsed() time.Duration {
	return time.Duration(s.Duration)
}

// IsRoot reports whether the span started its trace.
func (s *Span[P]) IsRoot() bool {
	return s.ParentID == NoID && s.SpanID == s.TraceID
}

// spanList is an intrusive LIFO. Records move between lists by relinking.
type spanList[P any] struct {
	top *Span[P]
	n   int
}

func (l *spanList[P]) push(s *Span[P]) {
	s.next = l.top
	l.top = s
	l.n++
}

func (l *spanList[P]) pop() *Span[P] {
	s := l.top
	if s == nil {
		return nil
	}
	l.top = s.next
	s.next = nil
	l.n--
	return s
}

// detach hands the whole chain to the caller and empties the list.
func (l *spanList[P]) detach() *Span[P] {
	top := l.top
	l.top = nil
	l.n = 0
	return top
}
