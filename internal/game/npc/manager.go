package npc

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/ai"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/event"
	"github.com/cory-johannsen/arena/internal/game/geom"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// Manager builds enemies from templates and steps every enemy it built until
// the enemy is destroyed. Registering spawned actors in the live roster is
// the caller's job.
//
// It is not safe for concurrent use; the caller must serialise access.
type Manager struct {
	ctx        *sim.Context
	catalog    *ability.Catalog
	archetypes *ai.Registry[*Enemy]
	templates  map[string]*Template
	enemies    []*Enemy
	byID       map[string]*Enemy
	logger     *zap.Logger

	deaths event.Topic[Death]
}

// NewManager creates a Manager over templates.
//
// Precondition: ctx, catalog and archetypes must be non-nil.
// Postcondition: Returns an error on a duplicate template ID.
func NewManager(ctx *sim.Context, catalog *ability.Catalog, archetypes *ai.Registry[*Enemy], templates ...*Template) (*Manager, error) {
	if ctx == nil || catalog == nil || archetypes == nil {
		panic("npc.NewManager: ctx, catalog and archetypes must not be nil")
	}
	m := &Manager{
		ctx:        ctx,
		catalog:    catalog,
		archetypes: archetypes,
		templates:  make(map[string]*Template, len(templates)),
		byID:       make(map[string]*Enemy),
		logger:     ctx.Logger.Named("npc"),
	}
	for _, t := range templates {
		if _, dup := m.templates[t.ID]; dup {
			return nil, fmt.Errorf("npc.NewManager: duplicate template id %q", t.ID)
		}
		m.templates[t.ID] = t
	}
	return m, nil
}

// Template returns the template for id.
func (m *Manager) Template(id string) (*Template, bool) {
	t, ok := m.templates[id]
	return t, ok
}

// TemplateIDs returns every template ID in sorted order.
func (m *Manager) TemplateIDs() []string {
	out := make([]string, 0, len(m.templates))
	for id := range m.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Deaths publishes every enemy death.
func (m *Manager) Deaths() *event.Topic[Death] { return &m.deaths }

// Spawn builds an enemy of template id at pos and enters its archetype's
// initial state.
//
// Postcondition: Returns an error, and builds nothing, if the template is
// unknown, its archetype is not registered, an ability fails to build, or
// the archetype cannot drive the template's abilities.
func (m *Manager) Spawn(id string, pos geom.Vec) (*Enemy, error) {
	tmpl, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("npc.Manager.Spawn: unknown template %q", id)
	}
	factory, ok := m.archetypes.Initial(tmpl.Archetype)
	if !ok {
		return nil, fmt.Errorf("npc.Manager.Spawn: template %q: no state graph for archetype %q", id, tmpl.Archetype)
	}

	a := m.ctx.NewActor(entity.Enemy, tmpl.Name, tmpl.Stats, pos)
	if tmpl.Radius > 0 {
		a.Radius = tmpl.Radius
	}
	e := newEnemy(m.ctx, tmpl, a)
	for _, abilityID := range tmpl.Abilities {
		u, err := m.catalog.New(m.ctx, e, abilityID)
		if err != nil {
			a.Destroy()
			return nil, fmt.Errorf("npc.Manager.Spawn: template %q: %w", id, err)
		}
		e.abilities = append(e.abilities, u)
	}
	initial := factory(e)
	if initial == nil {
		a.Destroy()
		return nil, fmt.Errorf("npc.Manager.Spawn: template %q lacks an ability archetype %q needs", id, tmpl.Archetype)
	}

	a.Own(e.deaths.Subscribe(func(d Death) { m.deaths.Publish(d) }))
	m.enemies = append(m.enemies, e)
	m.byID[a.ID] = e
	e.machine.Change(initial)
	m.logger.Debug("enemy spawned",
		zap.String("enemy", a.ID),
		zap.String("template", id),
		zap.String("archetype", tmpl.Archetype),
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y),
	)
	return e, nil
}

// Get returns the enemy whose actor ID is id.
//
// Postcondition: Returns (e, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*Enemy, bool) {
	e, ok := m.byID[id]
	return e, ok
}

// All returns a snapshot of every enemy not yet destroyed, in spawn order.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) All() []*Enemy {
	out := make([]*Enemy, 0, len(m.enemies))
	for _, e := range m.enemies {
		if !e.actor.IsDestroyed() {
			out = append(out, e)
		}
	}
	return out
}

// Update steps every enemy once, applies contact damage to the players each
// enemy touches and forgets destroyed enemies.
func (m *Manager) Update(dt time.Duration) {
	for i := 0; i < len(m.enemies); i++ {
		e := m.enemies[i]
		if e.actor.IsDestroyed() {
			continue
		}
		e.Update(dt)
		if !e.Template.DamageOnTouch || !e.actor.Alive() {
			continue
		}
		for _, other := range m.ctx.Spatial.Overlap(e.actor.Pos, e.actor.Radius) {
			if other.Kind == entity.Player {
				e.Contact(other)
			}
		}
	}
	kept := m.enemies[:0]
	for _, e := range m.enemies {
		if e.actor.IsDestroyed() {
			delete(m.byID, e.actor.ID)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(m.enemies); i++ {
		m.enemies[i] = nil
	}
	m.enemies = kept
}

// Clear destroys every enemy.
func (m *Manager) Clear() {
	for _, e := range m.enemies {
		e.actor.Destroy()
	}
	m.enemies = nil
	m.byID = make(map[string]*Enemy)
}
