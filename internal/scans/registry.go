package scans

import (
	"slices"
	"sync"
)

// Registry tracks scan handles for the life of the process. Reads return
// copies so callers never observe a handle mid-mutation.
type Registry struct {
	mu    sync.RWMutex
	scans map[string]*Scan
}

// NewRegistry creates an empty scan registry.
func NewRegistry() *Registry {
	return &Registry{
		scans: make(map[string]*Scan),
	}
}

// Add stores a new scan handle.
func (r *Registry) Add(scan *Scan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans[scan.ID] = scan
}

// Find returns a copy of the scan with the given id.
func (r *Registry) Find(id string) (Scan, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scan, ok := r.scans[id]
	if !ok {
		return Scan{}, false
	}
	return snapshot(scan), true
}

// List returns copies of all scan handles, newest first.
func (r *Registry) List() []Scan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Scan, 0, len(r.scans))
	for _, scan := range r.scans {
		out = append(out, snapshot(scan))
	}

	slices.SortFunc(out, func(a, b Scan) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Update applies fn to the scan with the given id under the write lock.
func (r *Registry) Update(id string, fn func(*Scan)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if scan, ok := r.scans[id]; ok {
		fn(scan)
	}
}

func snapshot(scan *Scan) Scan {
	out := *scan
	out.Errors = slices.Clone(scan.Errors)
	return out
}
