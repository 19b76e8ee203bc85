package spanz

import (
	"errors"
	"time"

	"github.com/zoobzio/clockz"
)

// seqSource replays fixed values, then counts upward from the last one.
type seqSource struct {
	vals []uint64
	i    int
}

func (s *seqSource) Uint64() uint64 {
	if s.i < len(s.vals) {
		v := s.vals[s.i]
		s.i++
		return v
	}
	s.i++
	return uint64(s.i)
}

// recordingHost counts payload and error lifecycle calls.
type recordingHost struct {
	released    []int
	errReleased []error
	created     int
}

func (h *recordingHost) NewPayload() int {
	h.created++
	return h.created
}

func (h *recordingHost) ReleasePayload(p int) {
	h.released = append(h.released, p)
}

func (h *recordingHost) ReleaseError(err error) {
	h.errReleased = append(h.errReleased, err)
}

// recordingEncoder captures the spans it sees, in call order.
type recordingEncoder struct {
	seen []Span[int]
	fail map[ID]bool
}

var errEncode = errors.New("encode failed")

func (e *recordingEncoder) Encode(dst []byte, sp *Span[int]) ([]byte, error) {
	e.seen = append(e.seen, *sp)
	if e.fail[sp.SpanID] {
		return append(dst, 0xc1), errEncode
	}
	return append(dst, 0xc0), nil // msgpack nil
}

// fakeClock is the part of clockz's fake clock the tests drive.
type fakeClock interface {
	clockz.Clock
	Advance(d time.Duration)
}

var testEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestStack(opts ...Option) (*Stack[int], *IDStack, *recordingHost, fakeClock) {
	clock := clockz.NewFakeClockAt(testEpoch)
	ids := NewIDStack(NewGenerator(42))
	host := &recordingHost{}
	st := NewStack[int](ids, NewClockSource(clock), host, opts...)
	return st, ids, host, clock
}
