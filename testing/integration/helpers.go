package integration

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"github.com/zoobzio/spanz"
)

// Epoch is the fixed start time used by fake clocks in these tests.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// FakeClock is the part of clockz's fake clock these tests drive.
type FakeClock interface {
	clockz.Clock
	Advance(d time.Duration)
}

// MockCollector wraps a real collector with decoding helpers.
// Collection is synchronous so tests need no sleeps.
//
//nolint:govet // Field alignment optimized for test helper readability
type MockCollector struct {
	*spanz.Collector
	t        *testing.T
	exported []map[string]interface{}
	mu       sync.Mutex
}

// NewMockCollector creates a synchronous collector closed at test cleanup.
func NewMockCollector(t *testing.T, bufferSize int) *MockCollector {
	t.Helper()
	c := spanz.NewCollector(bufferSize, nil)
	c.SetSyncMode(true)
	t.Cleanup(c.Close)
	return &MockCollector{Collector: c, t: t}
}

// Spans exports and decodes every buffered chunk, in arrival order.
func (m *MockCollector) Spans() []map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []map[string]interface{}
	for _, chunk := range m.Collector.Export() {
		spans, err := spanz.DecodeChunk(chunk.Data)
		require.NoError(m.t, err)
		require.Len(m.t, spans, chunk.Spans)
		out = append(out, spans...)
	}
	m.exported = append(m.exported, out...)
	return out
}

// All returns every span decoded so far, including earlier Spans calls.
func (m *MockCollector) All() []map[string]interface{} {
	m.Spans()
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]map[string]interface{}, len(m.exported))
	copy(all, m.exported)
	return all
}

// NewTracer builds a SpanData tracer with a fixed seed and a fake clock.
func NewTracer(t *testing.T, seed uint64, opts ...spanz.Option) (*spanz.Tracer[*spanz.SpanData], FakeClock) {
	t.Helper()
	clock := clockz.NewFakeClockAt(Epoch)
	base := []spanz.Option{spanz.WithDebugSeed(seed), spanz.WithClock(clock)}
	tracer := spanz.New[*spanz.SpanData](spanz.NewDataHost(), spanz.MsgpEncoder[*spanz.SpanData]{}, append(base, opts...)...)
	t.Cleanup(tracer.Close)
	return tracer, clock
}

// U64 reads an integer field from a decoded span.
func U64(t *testing.T, span map[string]interface{}, key string) uint64 {
	t.Helper()
	switch v := span[key].(type) {
	case uint64:
		return v
	case int64:
		require.GreaterOrEqual(t, v, int64(0), "field %s", key)
		return uint64(v)
	default:
		require.Failf(t, "not an integer", "field %s is %T", key, span[key])
		return 0
	}
}

// Node is one span in a reconstructed trace tree.
type Node struct {
	Span     map[string]interface{}
	Children []*Node
	ID       uint64
}

// BuildTrees groups decoded spans into parent/child trees keyed by trace id.
// Spans whose parent is not present become roots of their own tree.
func BuildTrees(t *testing.T, spans []map[string]interface{}) map[uint64][]*Node {
	t.Helper()
	nodes := make(map[uint64]*Node, len(spans))
	for _, sp := range spans {
		id := U64(t, sp, spanz.KeySpanID)
		require.NotContains(t, nodes, id, "duplicate span id")
		nodes[id] = &Node{ID: id, Span: sp}
	}

	trees := make(map[uint64][]*Node)
	for _, n := range nodes {
		parent := U64(t, n.Span, spanz.KeyParentID)
		if p, ok := nodes[parent]; ok && parent != 0 {
			p.Children = append(p.Children, n)
			continue
		}
		trace := U64(t, n.Span, spanz.KeyTraceID)
		trees[trace] = append(trees[trace], n)
	}
	return trees
}

// Depth returns the height of the tree below n, counting n.
func (n *Node) Depth() int {
	d := 0
	for _, c := range n.Children {
		if cd := c.Depth(); cd > d {
			d = cd
		}
	}
	return d + 1
}
