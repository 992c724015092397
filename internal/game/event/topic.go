// Package event provides the typed observer registry used for every
// cross-component notification in the simulation: stat changes, deaths, ammo,
// input presses and wave boundaries.
//
// Every Subscribe returns a Subscription. Holding it is how a listener proves
// it can unsubscribe: owners register the handle with their Lifetime, which
// releases it on destroy. Callbacks run synchronously on the simulation thread
// in subscription order.
//
// A Topic is not safe for concurrent use; the caller must serialise access.
package event

// Topic is a single-typed publish point.
type Topic[T any] struct {
	subs    []*Subscription
	publish int // depth of in-flight Publish calls
	dirty   bool
}

// Subscription is the handle returned by Topic.Subscribe.
type Subscription struct {
	fn       any
	released bool
	owner    interface{ compact() }
}

// Release detaches the listener. It is idempotent and safe to call from
// inside the listener itself or any other listener during a Publish.
func (s *Subscription) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	s.owner.compact()
}

// Active reports whether the subscription still receives publications.
func (s *Subscription) Active() bool {
	return s != nil && !s.released
}

// Subscribe registers fn and returns its handle.
//
// Precondition: fn must be non-nil.
func (t *Topic[T]) Subscribe(fn func(T)) *Subscription {
	if fn == nil {
		panic("event.Topic.Subscribe: fn must not be nil")
	}
	s := &Subscription{fn: fn, owner: t}
	t.subs = append(t.subs, s)
	return s
}

// Publish delivers v to every active listener in subscription order.
//
// Listeners subscribed during the publish do not receive v. Listeners released
// during the publish are skipped if they have not yet been called.
func (t *Topic[T]) Publish(v T) {
	if len(t.subs) == 0 {
		return
	}
	t.publish++
	n := len(t.subs)
	for i := 0; i < n; i++ {
		s := t.subs[i]
		if s.released {
			continue
		}
		s.fn.(func(T))(v)
	}
	t.publish--
	if t.publish == 0 && t.dirty {
		t.sweep()
	}
}

// Len returns the number of active listeners.
func (t *Topic[T]) Len() int {
	n := 0
	for _, s := range t.subs {
		if !s.released {
			n++
		}
	}
	return n
}

// Close releases every listener.
func (t *Topic[T]) Close() {
	for _, s := range t.subs {
		s.released = true
	}
	t.dirty = true
	if t.publish == 0 {
		t.sweep()
	}
}

func (t *Topic[T]) compact() {
	t.dirty = true
	if t.publish == 0 {
		t.sweep()
	}
}

func (t *Topic[T]) sweep() {
	kept := t.subs[:0]
	for _, s := range t.subs {
		if !s.released {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(t.subs); i++ {
		t.subs[i] = nil
	}
	t.subs = kept
	t.dirty = false
}
