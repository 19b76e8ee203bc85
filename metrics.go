package spanz

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts span lifecycle transitions across every Tracer sharing it.
// Safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	opened       prometheus.Counter
	closed       prometheus.Counter
	drained      prometheus.Counter
	discarded    prometheus.Counter
	encodeErrors prometheus.Counter
	unbalanced   *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		opened:       createCounter("spans_opened_total", "Spans opened."),
		closed:       createCounter("spans_closed_total", "Spans moved to the closed list."),
		drained:      createCounter("spans_drained_total", "Spans handed to the encoder."),
		discarded:    createCounter("spans_discarded_total", "Spans released at teardown without encoding."),
		encodeErrors: createCounter("encode_errors_total", "Spans the encoder failed on."),
		unbalanced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spanz",
			Name:      "unbalanced_total",
			Help:      "Pops and closes issued against an empty stack.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.opened, m.closed, m.drained, m.discarded, m.encodeErrors, m.unbalanced)
	}
	return m
}

func createCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "spanz",
		Name:      name,
		Help:      help,
	})
}

func (m *Metrics) spanOpened() {
	if m != nil {
		m.opened.Inc()
	}
}

func (m *Metrics) spanClosed() {
	if m != nil {
		m.closed.Inc()
	}
}

func (m *Metrics) spansDrained(n int) {
	if m != nil && n > 0 {
		m.drained.Add(float64(n))
	}
}

func (m *Metrics) spansDiscarded(n int) {
	if m != nil && n > 0 {
		m.discarded.Add(float64(n))
	}
}

func (m *Metrics) encodeError() {
	if m != nil {
		m.encodeErrors.Inc()
	}
}

func (m *Metrics) unbalancedOp(op string) {
	if m != nil {
		m.unbalanced.WithLabelValues(op).Inc()
	}
}
