package forest

import (
	"sync/atomic"

	"github.com/hazyhaar/phishsense/feature"
)

// Model is the calling contract shared by the local tree ensemble and the
// remote tensor-runtime variant: same vector, same output convention.
type Model interface {
	Predict(v feature.Vector) (float64, error)
	Classify(v feature.Vector) (probability float64, isPhishing bool, err error)
}

// Handle is an explicit, constructor-injected model reference. It is loaded
// once at startup and shared by reference; Swap replaces the snapshot
// atomically so in-flight predictions keep using the model they resolved.
type Handle struct {
	current atomic.Pointer[Forest]
}

// NewHandle creates a handle around f. f may be nil; predictions through an
// empty handle fail with ErrModelNotReady.
func NewHandle(f *Forest) *Handle {
	h := &Handle{}
	if f != nil {
		h.current.Store(f)
	}
	return h
}

// Swap installs f as the current snapshot and returns the previous one.
func (h *Handle) Swap(f *Forest) *Forest {
	return h.current.Swap(f)
}

// Snapshot returns the current forest, or nil before the first load.
func (h *Handle) Snapshot() *Forest {
	return h.current.Load()
}

// Predict resolves the current snapshot once and predicts through it.
func (h *Handle) Predict(v feature.Vector) (float64, error) {
	f := h.current.Load()
	if f == nil {
		return 0, ErrModelNotReady
	}
	return f.Predict(v)
}

// Classify resolves the current snapshot once and classifies through it.
func (h *Handle) Classify(v feature.Vector) (float64, bool, error) {
	f := h.current.Load()
	if f == nil {
		return 0, false, ErrModelNotReady
	}
	return f.Classify(v)
}
