package pipeline

import "sync"

// Registry enforces at most one in-flight scan per connection. All state
// lives behind one mutex; callers only see TryAcquire/Release.
type Registry struct {
	mu           sync.Mutex
	byConnection map[string]string
	inFlight     map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		byConnection: map[string]string{},
		inFlight:     map[string]bool{},
	}
}

// TryAcquire reserves the scan slot of a connection. Returns false when the
// connection already has an in-flight scan; the existing scan is never
// queued behind or cancelled.
func (r *Registry) TryAcquire(connectionID, scanID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.byConnection[connectionID]; busy {
		return false
	}
	r.byConnection[connectionID] = scanID
	r.inFlight[scanID] = true
	return true
}

// Release frees a connection's slot. Safe to call when nothing is held;
// callers defer it so cleanup runs on every exit path.
func (r *Registry) Release(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scanID, ok := r.byConnection[connectionID]
	if !ok {
		return
	}
	delete(r.byConnection, connectionID)
	delete(r.inFlight, scanID)
}

// ActiveScan reports the scan currently holding a connection's slot.
func (r *Registry) ActiveScan(connectionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scanID, ok := r.byConnection[connectionID]
	return scanID, ok
}

// InFlight reports whether a scan id is currently running.
func (r *Registry) InFlight(scanID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight[scanID]
}
