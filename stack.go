package spanz

import (
	"github.com/pkg/errors"
	"github.com/tinylib/msgp/msgp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Stack owns span records from open through close to drain.
// Open spans form one LIFO and closed spans another; a record is on
// exactly one of them until it is released.
// Not safe for concurrent use.
//
//nolint:govet // Field order optimized for readability
type Stack[P any] struct {
	ids     *IDStack
	clock   *ClockSource
	host    Host[P]
	logger  *zap.Logger
	metrics *Metrics
	open    spanList[P]
	closed  spanList[P]
	policy  TimingPolicy
}

// NewStack returns an empty Stack. Every Open pushes one identifier onto ids
// and every Close pops one, keeping the two in lockstep.
func NewStack[P any](ids *IDStack, clock *ClockSource, host Host[P], opts ...Option) *Stack[P] {
	cfg := newSettings(opts)
	if clock == nil {
		clock = NewClockSource(cfg.clock)
	}
	return &Stack[P]{
		ids:     ids,
		clock:   clock,
		host:    host,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		policy:  cfg.policy,
	}
}

// Reset empties both lists, releasing any records still on them.
func (s *Stack[P]) Reset() {
	s.Teardown()
}

// Open starts a new span as a child of whatever identifier is active.
// The returned handle may be populated until the span is drained.
func (s *Stack[P]) Open() *Span[P] {
	sp := &Span[P]{state: stateOpen}

	// Parent must be read before this span's own id is pushed.
	sp.ParentID, _ = s.ids.Peek()
	sp.SpanID = s.ids.Push()
	// Root is read after the push so a new trace sees its own id.
	sp.TraceID, _ = s.ids.Root()

	sp.durationStart = s.clock.Now(Monotonic)
	sp.Start = s.clock.Now(WallClock)
	sp.Payload = s.host.NewPayload()

	s.open.push(sp)
	s.metrics.spanOpened()
	return sp
}

// StopTiming freezes the span's duration at the current monotonic reading.
// Calling it again re-freezes at the later reading.
func (s *Stack[P]) StopTiming(sp *Span[P]) {
	if sp == nil || sp.state == stateReleased {
		return
	}
	now := s.clock.Now(Monotonic)
	if now >= sp.durationStart {
		sp.Duration = now - sp.durationStart
	} else {
		sp.Duration = 0
	}
	sp.stopped = true
}

// Close moves the most recently opened span to the closed list and pops its
// identifier. ok is false, and nothing happens, when no span is open.
func (s *Stack[P]) Close() (sp *Span[P], ok bool) {
	sp = s.open.pop()
	if sp == nil {
		s.metrics.unbalancedOp("close")
		s.logger.Debug("close with no open span")
		return nil, false
	}

	if _, popped := s.ids.Pop(); !popped {
		s.metrics.unbalancedOp("pop")
		s.logger.Debug("span id stack out of step with open spans",
			zap.Stringer("span_id", sp.SpanID))
	}

	if s.policy == StopOnClose && !sp.stopped {
		s.StopTiming(sp)
	}

	sp.state = stateClosed
	s.closed.push(sp)
	s.metrics.spanClosed()
	return sp, true
}

// Active returns the most recently opened span that is still open.
func (s *Stack[P]) Active() (*Span[P], bool) {
	if s.open.top == nil {
		return nil, false
	}
	return s.open.top, true
}

// OpenLen returns the number of open spans.
func (s *Stack[P]) OpenLen() int {
	return s.open.n
}

// ClosedLen returns the number of closed spans awaiting Drain.
func (s *Stack[P]) ClosedLen() int {
	return s.closed.n
}

// Drain hands every closed span to enc, most recently closed first, and
// releases each record. The result is a msgpack array holding one fragment
// per successfully encoded span. A failing span is still released; its
// error is returned alongside the others.
func (s *Stack[P]) Drain(enc Encoder[P]) (chunk []byte, n int, err error) {
	if enc == nil {
		return nil, 0, errors.New("spanz: drain with nil encoder")
	}

	var body []byte
	for sp := s.closed.detach(); sp != nil; {
		next := sp.next
		b, encErr := enc.Encode(body, sp)
		if encErr != nil {
			s.metrics.encodeError()
			s.logger.Error("encode span", zap.Stringer("span_id", sp.SpanID), zap.Error(encErr))
			err = multierr.Append(err, errors.Wrapf(encErr, "encode span %s", sp.SpanID))
		} else {
			body = b
			n++
		}
		s.release(sp)
		sp = next
	}
	s.metrics.spansDrained(n)

	chunk = msgp.AppendArrayHeader(make([]byte, 0, len(body)+5), uint32(n))
	chunk = append(chunk, body...)
	return chunk, n, err
}

// Teardown releases every record on both lists without encoding them.
func (s *Stack[P]) Teardown() (open, closed int) {
	open = s.releaseChain(s.open.detach())
	closed = s.releaseChain(s.closed.detach())
	s.metrics.spansDiscarded(open + closed)
	return open, closed
}

func (s *Stack[P]) releaseChain(sp *Span[P]) int {
	n := 0
	for sp != nil {
		next := sp.next
		s.release(sp)
		sp = next
		n++
	}
	return n
}

func (s *Stack[P]) release(sp *Span[P]) {
	s.host.ReleasePayload(sp.Payload)
	if sp.Err != nil {
		s.host.ReleaseError(sp.Err)
	}
	*sp = Span[P]{}
}
