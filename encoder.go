package spanz

import (
	"io"

	"github.com/pkg/errors"
	"github.com/tinylib/msgp/msgp"
)

// Encoder turns one closed span into a wire fragment appended to dst.
type Encoder[P any] interface {
	Encode(dst []byte, sp *Span[P]) ([]byte, error)
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc[P any] func(dst []byte, sp *Span[P]) ([]byte, error)

// Encode implements Encoder.
func (f EncoderFunc[P]) Encode(dst []byte, sp *Span[P]) ([]byte, error) {
	return f(dst, sp)
}

// MsgFielder is a payload that writes its own key/value pairs into the
// msgpack map of its span.
type MsgFielder interface {
	MsgFieldCount() uint32
	AppendMsgFields(b []byte) ([]byte, error)
}

// Wire keys written by MsgpEncoder for every span.
const (
	KeyTraceID  = "trace_id"
	KeySpanID   = "span_id"
	KeyParentID = "parent_id"
	KeyStart    = "start"
	KeyDuration = "duration"
	KeyError    = "error"
	KeyErrorMsg = "error_msg"
)

const baseFieldCount = 6

// MsgpEncoder encodes a span as one msgpack map.
type MsgpEncoder[P MsgFielder] struct{}

// Encode implements Encoder.
func (MsgpEncoder[P]) Encode(dst []byte, sp *Span[P]) ([]byte, error) {
	if sp == nil {
		return dst, errors.New("spanz: encode nil span")
	}
	fields := uint32(baseFieldCount) + sp.Payload.MsgFieldCount()
	if sp.Err != nil {
		fields++
	}

	o := msgp.AppendMapHeader(dst, fields)
	o = msgp.AppendString(o, KeyTraceID)
	o = msgp.AppendUint64(o, uint64(sp.TraceID))
	o = msgp.AppendString(o, KeySpanID)
	o = msgp.AppendUint64(o, uint64(sp.SpanID))
	o = msgp.AppendString(o, KeyParentID)
	o = msgp.AppendUint64(o, uint64(sp.ParentID))
	o = msgp.AppendString(o, KeyStart)
	o = msgp.AppendInt64(o, int64(sp.Start))
	o = msgp.AppendString(o, KeyDuration)
	o = msgp.AppendInt64(o, int64(sp.Duration))
	o = msgp.AppendString(o, KeyError)
	if sp.Err != nil {
		o = msgp.AppendInt32(o, 1)
		o = msgp.AppendString(o, KeyErrorMsg)
		o = msgp.AppendString(o, sp.Err.Error())
	} else {
		o = msgp.AppendInt32(o, 0)
	}

	o, err := sp.Payload.AppendMsgFields(o)
	if err != nil {
		return dst, errors.Wrap(err, "payload fields")
	}
	return o, nil
}

// DecodeChunk reads a chunk produced by Drain back into generic maps.
func DecodeChunk(b []byte) ([]map[string]interface{}, error) {
	sz, rest, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, errors.Wrap(err, "chunk header")
	}
	out := make([]map[string]interface{}, 0, sz)
	for i := uint32(0); i < sz; i++ {
		var v interface{}
		v, rest, err = msgp.ReadIntfBytes(rest)
		if err != nil {
			return nil, errors.Wrapf(err, "span %d", i)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("span %d: expected map, got %T", i, v)
		}
		out = append(out, m)
	}
	return out, nil
}

// ChunkJSON writes a chunk to w as JSON.
func ChunkJSON(w io.Writer, b []byte) error {
	_, err := msgp.UnmarshalAsJSON(w, b)
	return errors.Wrap(err, "chunk to json")
}
