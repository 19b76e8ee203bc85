package benchmarks

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/spanz"
)

func newTracer(opts ...spanz.Option) *spanz.Tracer[*spanz.SpanData] {
	return spanz.New[*spanz.SpanData](spanz.NewDataHost(), spanz.MsgpEncoder[*spanz.SpanData]{}, opts...)
}

// BenchmarkOpenClose measures one open/close pair on a warm context.
func BenchmarkOpenClose(b *testing.B) {
	tracer := newTracer(spanz.WithDebugSeed(42))
	defer tracer.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tracer.StartSpan()
		tracer.FinishSpan()
		if tracer.Pending() >= 1024 {
			tracer.Spans().Teardown()
		}
	}
}

// BenchmarkNestedFlush measures building and draining trees of several depths.
func BenchmarkNestedFlush(b *testing.B) {
	for _, depth := range []int{1, 4, 16, 64} {
		b.Run(fmt.Sprintf("depth-%d", depth), func(b *testing.B) {
			tracer := newTracer(spanz.WithDebugSeed(42))
			defer tracer.Close()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for d := 0; d < depth; d++ {
					sp := tracer.StartSpan()
					sp.Payload.Name = "op"
					sp.Payload.SetTag("depth", "n")
				}
				for d := 0; d < depth; d++ {
					tracer.FinishSpan()
				}
				if _, err := tracer.Flush(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSpanRate measures spans/sec with one context per goroutine.
func BenchmarkSpanRate(b *testing.B) {
	var counter int64
	collector := spanz.NewCollector(4096, nil)
	defer collector.Close()

	start := time.Now()
	b.RunParallel(func(pb *testing.PB) {
		tracer := newTracer(spanz.WithCollector(collector))
		defer tracer.Close()
		for pb.Next() {
			tracer.StartSpan()
			tracer.FinishSpan()
			atomic.AddInt64(&counter, 1)
			if tracer.Pending() >= 64 {
				_, _ = tracer.Flush()
			}
		}
	})

	elapsed := time.Since(start)
	b.ReportMetric(float64(counter)/elapsed.Seconds(), "spans/sec")
}

// BenchmarkGenerator measures identifier minting alone.
func BenchmarkGenerator(b *testing.B) {
	gen := spanz.NewGenerator(42)
	var sink spanz.ID
	for i := 0; i < b.N; i++ {
		sink = gen.Next()
	}
	_ = sink
}
