package api

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// dispatchRegistry tracks in-flight dispatches so the cancel endpoint can
// reach their contexts.
type dispatchRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newDispatchRegistry() *dispatchRegistry {
	return &dispatchRegistry{cancels: make(map[string]context.CancelFunc)}
}

// Register stores a cancel function and returns the dispatch id.
func (r *dispatchRegistry) Register(cancel context.CancelFunc) string {
	id := uuid.New().String()
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()
	return id
}

// Cancel fires the dispatch's cancel function. Returns false for unknown ids.
func (r *dispatchRegistry) Cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	delete(r.cancels, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Remove drops a finished dispatch without cancelling it.
func (r *dispatchRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.cancels, id)
	r.mu.Unlock()
}
