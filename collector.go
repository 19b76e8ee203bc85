package spanz

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Chunk is one drained batch of spans from a single execution context.
type Chunk struct {
	// Data is a msgpack array with one element per span.
	Data []byte
	// Spans is the number of elements in Data.
	Spans int
}

// Collector buffers chunks flushed by many Tracers for batch export.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field alignment optimized for readability over memory efficiency
type Collector struct {
	chunks       []Chunk
	chunksCh     chan Chunk
	stopCh       chan struct{}
	done         chan struct{}
	logger       *zap.Logger
	droppedCount atomic.Int64
	mu           sync.Mutex
	closeOnce    sync.Once
	closed       atomic.Bool
	syncMode     atomic.Bool // Bypass channel for synchronous collection.
}

// NewCollector creates a collector with the given channel buffer size.
func NewCollector(bufferSize int, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	c := &Collector{
		chunks:   make([]Chunk, 0, 8),
		chunksCh: make(chan Chunk, bufferSize),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger,
	}
	go c.start()
	return c
}

// start runs the collector's main loop, receiving chunks from the channel.
func (c *Collector) start() {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			// Drain remaining chunks before shutdown.
			for {
				select {
				case chunk := <-c.chunksCh:
					c.buffer(chunk)
				default:
					return
				}
			}
		case chunk := <-c.chunksCh:
			c.buffer(chunk)
		}
	}
}

// Close stops the collector. Chunks already queued stay exportable.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.stopCh)
		select {
		case <-c.done:
		case <-time.After(100 * time.Millisecond):
			c.logger.Error("collector shutdown timed out")
		}
	})
}

// Collect queues a chunk with backpressure protection.
// If the channel is full or the collector is closed the chunk is dropped
// and the drop counter grows by its span count.
func (c *Collector) Collect(chunk Chunk) {
	if chunk.Spans == 0 {
		return
	}
	if c.closed.Load() {
		c.droppedCount.Add(int64(chunk.Spans))
		return
	}

	// Chunks are owned by the collector from here on.
	chunk.Data = append([]byte(nil), chunk.Data...)

	if c.syncMode.Load() {
		c.buffer(chunk)
		return
	}

	select {
	case c.chunksCh <- chunk:
	default:
		c.droppedCount.Add(int64(chunk.Spans))
	}
}

func (c *Collector) buffer(chunk Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks = append(c.chunks, chunk)
}

// Export returns all buffered chunks and clears the buffer.
func (c *Collector) Export() []Chunk {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.chunks) == 0 {
		return nil
	}

	result := make([]Chunk, len(c.chunks))
	copy(result, c.chunks)

	// Only shrink if buffer is very oversized to avoid allocation churn.
	if cap(c.chunks) > 256 && len(c.chunks) < cap(c.chunks)/8 {
		c.chunks = make([]Chunk, 0, cap(c.chunks)/4)
	} else {
		clear(c.chunks)
		c.chunks = c.chunks[:0]
	}
	return result
}

// Count returns the number of buffered chunks.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chunks)
}

// SpanCount returns the number of spans across buffered chunks.
func (c *Collector) SpanCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ch := range c.chunks {
		n += ch.Spans
	}
	return n
}

// DroppedCount returns the total number of spans dropped due to backpressure.
func (c *Collector) DroppedCount() int64 {
	return c.droppedCount.Load()
}

// SetSyncMode enables synchronous collection for testing.
func (c *Collector) SetSyncMode(sync bool) {
	c.syncMode.Store(sync)
}

// Reset clears all buffered chunks and the drop counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chunks = c.chunks[:0]
	c.droppedCount.Store(0)
}
