package entity

// Roster is the read-only view of a live registry handed to AI and
// presentation collaborators.
type Roster interface {
	Get(id string) (*Actor, bool)
	// All returns every registered actor in registration order.
	All() []*Actor
	// Living returns the registered actors that are alive and revealed, in
	// registration order.
	Living() []*Actor
	Len() int
}

// Registry is a live registry of actors keyed by ID, preserving
// registration order for deterministic iteration.
//
// Only its owning orchestrator mutates a Registry. It is not safe for
// concurrent use; the caller must serialise access.
type Registry struct {
	order []*Actor
	byID  map[string]*Actor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Actor)}
}

// Add registers a. Re-adding a registered ID replaces nothing and reports false.
//
// Precondition: a must be non-nil.
func (r *Registry) Add(a *Actor) bool {
	if _, ok := r.byID[a.ID]; ok {
		return false
	}
	r.byID[a.ID] = a
	r.order = append(r.order, a)
	return true
}

// Remove unregisters id. It reports whether id was registered.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, a := range r.order {
		if a.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Get(id string) (*Actor, bool) {
	a, ok := r.byID[id]
	return a, ok
}

func (r *Registry) All() []*Actor {
	return append([]*Actor(nil), r.order...)
}

func (r *Registry) Living() []*Actor {
	var out []*Actor
	for _, a := range r.order {
		if a.Targetable() {
			out = append(out, a)
		}
	}
	return out
}

func (r *Registry) Len() int { return len(r.order) }

// AllDead reports whether the registry is non-empty and every member is dead
// or destroyed. Hidden members count as alive.
func (r *Registry) AllDead() bool {
	if len(r.order) == 0 {
		return false
	}
	for _, a := range r.order {
		if a.Alive() {
			return false
		}
	}
	return true
}
