package spanz

// Host owns the lifecycle of span payloads and attached errors.
// The core never inspects a payload; it constructs one per opened span,
// carries it, and gives it back exactly once when the record is released.
type Host[P any] interface {
	// NewPayload is called once per opened span.
	NewPayload() P
	// ReleasePayload is called once per record, on drain or teardown.
	ReleasePayload(P)
	// ReleaseError is called on release only for records carrying an error.
	ReleaseError(error)
}

// HostFuncs adapts plain functions to Host. Nil release functions are no-ops.
type HostFuncs[P any] struct {
	New          func() P
	Release      func(P)
	ReleaseErrFn func(error)
}

// NewPayload implements Host.
func (h HostFuncs[P]) NewPayload() P {
	if h.New == nil {
		var zero P
		return zero
	}
	return h.New()
}

// ReleasePayload implements Host.
func (h HostFuncs[P]) ReleasePayload(p P) {
	if h.Release != nil {
		h.Release(p)
	}
}

// ReleaseError implements Host.
func (h HostFuncs[P]) ReleaseError(err error) {
	if h.ReleaseErrFn != nil {
		h.ReleaseErrFn(err)
	}
}
