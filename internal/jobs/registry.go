package jobs

import "sync"

// Registry enforces the per-kind non-concurrency rule across every trigger
// surface in the process: cron, REST and CLI all acquire through the same
// instance.
type Registry struct {
	mu     sync.Mutex
	active map[RunKind]bool
}

func NewRegistry() *Registry {
	return &Registry{
		active: make(map[RunKind]bool),
	}
}

// TryAcquire claims the kind. False means a run is already in progress and
// the caller must skip, not wait.
func (r *Registry) TryAcquire(kind RunKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[kind] {
		return false
	}
	r.active[kind] = true
	return true
}

// Release frees the kind for the next trigger.
func (r *Registry) Release(kind RunKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, kind)
}

// Active lists kinds currently running, for status surfaces.
func (r *Registry) Active() []RunKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunKind, 0, len(r.active))
	for kind := range r.active {
		out = append(out, kind)
	}
	return out
}
