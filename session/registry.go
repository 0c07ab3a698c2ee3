package session

import "sync"

// Registry enforces the one-active-session-per-conversation rule. Starting
// a session for a conversation that already has one cancels the prior
// session before the new one is admitted.
type Registry struct {
	mu     sync.Mutex
	active map[string]*Controller
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]*Controller)}
}

// Admit registers c as the active session for its conversation. The
// previously active controller, if any, is cancelled and returned so the
// caller can await its terminal result.
func (r *Registry) Admit(c *Controller) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.cfg.Meta.ConversationID
	prior := r.active[id]
	if prior != nil {
		prior.Cancel()
	}
	r.active[id] = c
	return prior
}

// Release removes c from the registry if it is still the active session
// for its conversation. Called after Run returns; a controller that was
// superseded by a later Admit is left alone.
func (r *Registry) Release(c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.cfg.Meta.ConversationID
	if r.active[id] == c {
		delete(r.active, id)
	}
}

// Active returns the active controller for a conversation, or nil.
func (r *Registry) Active(conversationID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[conversationID]
}

// Len reports the number of conversations with an active session.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
