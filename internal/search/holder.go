package search

import (
	"sync/atomic"
)

// Holder publishes the current engine. Readers never block; Swap installs a new generation and
// returns the previous one for the caller to close once in-flight queries drain.
type Holder struct {
	current atomic.Pointer[Engine]
}

// NewHolder returns a holder serving e, which may be nil until an index is built.
func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	if e != nil {
		h.current.Store(e)
	}
	return h
}

// Engine returns the current engine, or nil if none is loaded.
func (h *Holder) Engine() *Engine {
	return h.current.Load()
}

// Swap installs e and returns the engine it replaced.
func (h *Holder) Swap(e *Engine) *Engine {
	return h.current.Swap(e)
}
