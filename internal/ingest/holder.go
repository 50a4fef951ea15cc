package ingest

import (
	"context"
	"errors"
	"sync"
)

// ErrNotLoaded is returned when no dataset has been loaded yet.
var ErrNotLoaded = errors.New("no dataset loaded")

// LoadFunc produces a fresh dataset.
type LoadFunc func(ctx context.Context) (*Dataset, error)

// Holder keeps the current dataset for long-running surfaces. Readers see
// either the previous or the next dataset, never a partial one. A failed
// reload leaves the current dataset in place.
type Holder struct {
	load LoadFunc

	mu      sync.RWMutex
	current *Dataset

	reloadMu sync.Mutex
}

// NewHolder returns an empty holder that loads with fn.
func NewHolder(fn LoadFunc) *Holder {
	return &Holder{load: fn}
}

// Current returns the loaded dataset or ErrNotLoaded.
func (h *Holder) Current() (*Dataset, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return nil, ErrNotLoaded
	}
	return h.current, nil
}

// Reload runs the load function and swaps in the result. Concurrent
// reloads are serialized.
func (h *Holder) Reload(ctx context.Context) (*Dataset, error) {
	if h.load == nil {
		return nil, errors.New("reload not supported")
	}
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	ds, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.current = ds
	h.mu.Unlock()
	return ds, nil
}
