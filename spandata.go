package spanz

import (
	"sort"
	"sync"

	"github.com/tinylib/msgp/msgp"
)

// SpanData is the user-visible part of a span: its names and tags.
// Not thread-safe.
type SpanData struct {
	Meta     map[string]string
	Metrics  map[string]float64
	Name     string
	Service  string
	Resource string
	Type     string
}

// SetTag sets a string tag.
func (d *SpanData) SetTag(key, value string) {
	if d.Meta == nil {
		d.Meta = make(map[string]string)
	}
	d.Meta[key] = value
}

// GetTag returns a string tag.
func (d *SpanData) GetTag(key string) (string, bool) {
	v, ok := d.Meta[key]
	return v, ok
}

// SetMetric sets a numeric tag.
func (d *SpanData) SetMetric(key string, value float64) {
	if d.Metrics == nil {
		d.Metrics = make(map[string]float64)
	}
	d.Metrics[key] = value
}

func (d *SpanData) reset() {
	clear(d.Meta)
	clear(d.Metrics)
	d.Name, d.Service, d.Resource, d.Type = "", "", "", ""
}

// MsgFieldCount implements MsgFielder.
func (d *SpanData) MsgFieldCount() uint32 {
	if d == nil {
		return 0
	}
	n := uint32(4)
	if len(d.Meta) > 0 {
		n++
	}
	if len(d.Metrics) > 0 {
		n++
	}
	return n
}

// AppendMsgFields implements MsgFielder. Map keys are written sorted so
// equal payloads encode identically.
func (d *SpanData) AppendMsgFields(b []byte) ([]byte, error) {
	if d == nil {
		return b, nil
	}
	o := msgp.AppendString(b, "name")
	o = msgp.AppendString(o, d.Name)
	o = msgp.AppendString(o, "service")
	o = msgp.AppendString(o, d.Service)
	o = msgp.AppendString(o, "resource")
	o = msgp.AppendString(o, d.Resource)
	o = msgp.AppendString(o, "type")
	o = msgp.AppendString(o, d.Type)

	if len(d.Meta) > 0 {
		o = msgp.AppendString(o, "meta")
		o = msgp.AppendMapHeader(o, uint32(len(d.Meta)))
		for _, k := range sortedKeys(d.Meta) {
			o = msgp.AppendString(o, k)
			o = msgp.AppendString(o, d.Meta[k])
		}
	}
	if len(d.Metrics) > 0 {
		o = msgp.AppendString(o, "metrics")
		o = msgp.AppendMapHeader(o, uint32(len(d.Metrics)))
		for _, k := range sortedKeys(d.Metrics) {
			o = msgp.AppendString(o, k)
			o = msgp.AppendFloat64(o, d.Metrics[k])
		}
	}
	return o, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DataHost is the Host for *SpanData payloads. Released payloads are
// cleared and recycled. Safe for concurrent use.
type DataHost struct {
	pool sync.Pool
}

// NewDataHost returns a DataHost with an empty pool.
func NewDataHost() *DataHost {
	return &DataHost{pool: sync.Pool{New: func() any { return &SpanData{} }}}
}

// NewPayload implements Host.
func (h *DataHost) NewPayload() *SpanData {
	return h.pool.Get().(*SpanData)
}

// ReleasePayload implements Host.
func (h *DataHost) ReleasePayload(d *SpanData) {
	if d == nil {
		return
	}
	d.reset()
	h.pool.Put(d)
}

// ReleaseError implements Host. Errors need no cleanup.
func (*DataHost) ReleaseError(error) {}
