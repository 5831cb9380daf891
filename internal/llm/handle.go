package llm

import (
	"sync"

	"whetstone/internal/providers"
)

// handle owns the process-wide memoized adapter slot. Construction happens
// on first use under the lock, so concurrent first callers share a single
// build instead of racing to create duplicates. A failed build leaves the
// slot empty and a later call retries from scratch, which matters when the
// credential only becomes available after startup.
type handle struct {
	mu     sync.Mutex
	build  func() (providers.Adapter, error)
	cached providers.Adapter
}

func newHandle(build func() (providers.Adapter, error)) *handle {
	return &handle{build: build}
}

func (h *handle) get() (providers.Adapter, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cached != nil {
		return h.cached, nil
	}
	adapter, err := h.build()
	if err != nil {
		return nil, err
	}
	h.cached = adapter
	return adapter, nil
}

// invalidate drops the cached adapter so the next call reconstructs it.
func (h *handle) invalidate() {
	h.mu.Lock()
	h.cached = nil
	h.mu.Unlock()
}

// set pre-populates the slot, bypassing construction.
func (h *handle) set(adapter providers.Adapter) {
	h.mu.Lock()
	h.cached = adapter
	h.mu.Unlock()
}
