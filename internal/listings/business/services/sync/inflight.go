package sync

import "sync"

// inflightRegistry enforces the single-writer rule: at most one run in
// flight per (account, scope) key. A second request for a held key is
// rejected, never queued.
type inflightRegistry struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newInflightRegistry() *inflightRegistry {
	return &inflightRegistry{running: make(map[string]struct{})}
}

func (r *inflightRegistry) acquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.running[key]; held {
		return false
	}
	r.running[key] = struct{}{}
	return true
}

func (r *inflightRegistry) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.running, key)
}
