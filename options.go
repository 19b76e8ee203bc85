package spanz

import (
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// TimingPolicy decides what Close does with a span whose timing was never
// stopped.
type TimingPolicy int

const (
	// StopOnClose stops timing at Close unless StopTiming already froze it.
	StopOnClose TimingPolicy = iota
	// ManualStop leaves timing alone; unstopped spans keep Duration == 0.
	ManualStop
)

func (p TimingPolicy) String() string {
	switch p {
	case ManualStop:
		return "manual"
	default:
		return "stop_on_close"
	}
}

type settings struct {
	clock     clockz.Clock
	logger    *zap.Logger
	metrics   *Metrics
	collector *Collector
	source    BitSource
	debugSeed uint64
	policy    TimingPolicy
}

func newSettings(opts []Option) *settings {
	s := &settings{
		clock:  clockz.RealClock,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures a Tracer or Stack.
type Option func(*settings)

// WithClock injects the clock. Enables deterministic testing with a fake clock.
func WithClock(clock clockz.Clock) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger used for unbalanced calls, teardown and
// encoder failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records lifecycle counters into m.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithCollector forwards every flushed chunk to c.
func WithCollector(c *Collector) Option {
	return func(s *settings) {
		s.collector = c
	}
}

// WithDebugSeed seeds the identifier generator with a fixed value.
// Zero keeps platform seeding.
func WithDebugSeed(seed uint64) Option {
	return func(s *settings) {
		s.debugSeed = seed
	}
}

// WithBitSource replaces the identifier bit source. The source must already
// be seeded; the debug seed is ignored.
func WithBitSource(src BitSource) Option {
	return func(s *settings) {
		s.source = src
	}
}

// WithTimingPolicy selects how Close treats unstopped spans.
func WithTimingPolicy(p TimingPolicy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithConfig applies the seed and timing policy from cfg.
func WithConfig(cfg Config) Option {
	return func(s *settings) {
		s.debugSeed = cfg.DebugSeed()
		s.policy = cfg.TimingPolicy
	}
}
