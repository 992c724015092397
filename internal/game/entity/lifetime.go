package entity

// Releaser is anything an owner can tear down: event subscriptions, scheduled
// tasks, task groups.
type Releaser interface {
	Release()
}

// ReleaseFunc adapts a plain function to Releaser.
type ReleaseFunc func()

func (f ReleaseFunc) Release() { f() }

// Lifetime collects Releasers and releases them, in reverse order of
// ownership, when it ends.
type Lifetime struct {
	owned []Releaser
	ended bool
}

// Own records r. Owning after End releases r immediately.
func (l *Lifetime) Own(r ...Releaser) {
	if l.ended {
		for _, x := range r {
			x.Release()
		}
		return
	}
	l.owned = append(l.owned, r...)
}

// End releases everything owned. Idempotent.
func (l *Lifetime) End() {
	if l.ended {
		return
	}
	l.ended = true
	for i := len(l.owned) - 1; i >= 0; i-- {
		l.owned[i].Release()
	}
	l.owned = nil
}

// Ended reports whether End has run.
func (l *Lifetime) Ended() bool { return l.ended }
