// Package stats implements the per-entity numeric attribute block: health,
// shield, movement speed and currency with bounded mutation, plus the fixed
// combat attributes read by abilities and AI.
package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/arena/internal/game/event"
)

const (
	// MinAttackRange is the unconditional close-range floor for every range
	// test, regardless of an attacker's nominal range.
	MinAttackRange = 1.5
	// MaxCurrency is the currency ceiling.
	MaxCurrency = 9999
)

// Kind identifies which resource a Change describes.
type Kind int

const (
	Health Kind = iota
	Shield
	MovementSpeed
	Currency
)

func (k Kind) String() string {
	switch k {
	case Health:
		return "health"
	case Shield:
		return "shield"
	case MovementSpeed:
		return "movement_speed"
	case Currency:
		return "currency"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Change is published after every mutation.
type Change struct {
	Kind Kind
	// Delta is the change actually applied after clamping.
	Delta float64
	// Value is the new value.
	Value float64
}

// Attributes are the fixed combat parameters of an entity. They are read by
// abilities and AI states and never mutated during a match.
type Attributes struct {
	// AttackSpeed is the wind-up/recovery time of attacks, in seconds.
	AttackSpeed     float64 `yaml:"attack_speed"`
	AttackDamage    int     `yaml:"attack_damage"`
	AttackRange     float64 `yaml:"attack_range"`
	RotationSpeed   float64 `yaml:"rotation_speed"`
	ChargeSpeed     float64 `yaml:"charge_speed"`
	CollisionDamage int     `yaml:"collision_damage"`
	DamageModifier  float64 `yaml:"damage_modifier"`
	Power           float64 `yaml:"power"`
	KnockBack       float64 `yaml:"knock_back"`
}

// AttackInterval converts AttackSpeed to a Duration.
func (a Attributes) AttackInterval() time.Duration {
	return time.Duration(a.AttackSpeed * float64(time.Second))
}

// Config is the declarative starting state of a Block.
type Config struct {
	MaxHealth     int     `yaml:"max_health"`
	Shield        int     `yaml:"shield"`
	Currency      int     `yaml:"currency"`
	MovementSpeed float64 `yaml:"movement_speed"`
	Attributes    `yaml:",inline"`
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.MaxHealth <= 0 {
		errs = append(errs, fmt.Errorf("max_health must be > 0, got %d", c.MaxHealth))
	}
	if c.Shield < 0 {
		errs = append(errs, fmt.Errorf("shield must be >= 0, got %d", c.Shield))
	}
	if c.Currency < 0 || c.Currency > MaxCurrency {
		errs = append(errs, fmt.Errorf("currency must be 0-%d, got %d", MaxCurrency, c.Currency))
	}
	if c.MovementSpeed < 0 {
		errs = append(errs, fmt.Errorf("movement_speed must be >= 0, got %v", c.MovementSpeed))
	}
	if c.AttackSpeed < 0 || c.AttackRange < 0 {
		errs = append(errs, errors.New("attack_speed and attack_range must be >= 0"))
	}
	return errors.Join(errs...)
}

// Block holds one entity's mutable resources.
//
// Invariant: 0 <= health <= maxHealth; shield >= 0; 0 <= currency <= MaxCurrency;
// movementSpeed >= 0. Died publishes at most once between Revive calls.
//
// A Block is not safe for concurrent use; the caller must serialise access.
type Block struct {
	Attr Attributes

	health            int
	maxHealth         int
	shield            int
	startShield       int
	currency          int
	movementSpeed     float64
	baseMovementSpeed float64
	dead              bool

	changed event.Topic[Change]
	died    event.Topic[struct{}]
}

// New builds a Block at full health from cfg.
//
// Precondition: cfg.Validate() == nil.
func New(cfg Config) *Block {
	if err := cfg.Validate(); err != nil {
		panic("stats.New: " + err.Error())
	}
	return &Block{
		Attr:              cfg.Attributes,
		health:            cfg.MaxHealth,
		maxHealth:         cfg.MaxHealth,
		shield:            cfg.Shield,
		startShield:       cfg.Shield,
		currency:          cfg.Currency,
		movementSpeed:     cfg.MovementSpeed,
		baseMovementSpeed: cfg.MovementSpeed,
	}
}

func (b *Block) Health() int                { return b.health }
func (b *Block) MaxHealth() int             { return b.maxHealth }
func (b *Block) Shield() int                { return b.shield }
func (b *Block) Currency() int              { return b.currency }
func (b *Block) MovementSpeed() float64     { return b.movementSpeed }
func (b *Block) BaseMovementSpeed() float64 { return b.baseMovementSpeed }
func (b *Block) Dead() bool                 { return b.dead }

// Missing returns maxHealth - health.
func (b *Block) Missing() int { return b.maxHealth - b.health }

// Changed is the change-notification topic.
func (b *Block) Changed() *event.Topic[Change] { return &b.changed }

// Died is the death topic. It publishes once when health first reaches 0.
func (b *Block) Died() *event.Topic[struct{}] { return &b.died }

// ModifyHealth applies delta to health. Negative deltas drain shield first and
// only the overflow reaches health.
//
// Postcondition: returns true iff health is 0. A dead block ignores further
// calls; only Revive brings it back.
func (b *Block) ModifyHealth(delta int) bool {
	if b.dead {
		return true
	}
	if delta < 0 {
		delta = -b.ModifyShield(delta)
	}

	before := b.health
	switch {
	case delta > b.maxHealth-b.health:
		b.health = b.maxHealth
	case delta < -b.health:
		b.health = 0
	default:
		b.health += delta
	}
	b.changed.Publish(Change{Kind: Health, Delta: float64(b.health - before), Value: float64(b.health)})

	if b.health == 0 && !b.dead {
		b.dead = true
		b.died.Publish(struct{}{})
	}
	return b.health == 0
}

// ModifyShield adds delta to shield with a floor of 0.
//
// Postcondition: returns max(0, -delta - shieldBefore) for negative delta, else 0.
func (b *Block) ModifyShield(delta int) int {
	before := b.shield
	overflow := 0
	b.shield += delta
	if b.shield < 0 {
		overflow = -b.shield
		b.shield = 0
	}
	b.changed.Publish(Change{Kind: Shield, Delta: float64(b.shield - before), Value: float64(b.shield)})
	return overflow
}

// ModifyMovementSpeed sets the absolute movement speed, floored at 0.
//
// Postcondition: returns true iff the new speed is positive.
func (b *Block) ModifyMovementSpeed(value float64) bool {
	before := b.movementSpeed
	b.movementSpeed = max(value, 0)
	b.changed.Publish(Change{Kind: MovementSpeed, Delta: b.movementSpeed - before, Value: b.movementSpeed})
	return b.movementSpeed > 0
}

// ResetMovementSpeed restores the base movement speed.
func (b *Block) ResetMovementSpeed() {
	b.ModifyMovementSpeed(b.baseMovementSpeed)
}

// ModifyCurrency adds delta and clamps to [0, MaxCurrency].
//
// Postcondition: returns true iff the unclamped result was negative.
func (b *Block) ModifyCurrency(delta int) bool {
	before := b.currency
	next := b.currency + delta
	wentNegative := next < 0
	b.currency = min(max(next, 0), MaxCurrency)
	b.changed.Publish(Change{Kind: Currency, Delta: float64(b.currency - before), Value: float64(b.currency)})
	return wentNegative
}

// Spend deducts cost only when the block can afford it.
//
// Precondition: cost >= 0.
func (b *Block) Spend(cost int) bool {
	if cost > b.currency {
		return false
	}
	b.ModifyCurrency(-cost)
	return true
}

// Revive clears the death latch and restores health and shield to their
// starting values. Currency and speed are left to the caller.
func (b *Block) Revive() {
	b.dead = false
	b.ModifyHealth(b.maxHealth)
	if b.shield < b.startShield {
		b.ModifyShield(b.startShield - b.shield)
	}
}

// Close releases every listener on both topics.
func (b *Block) Close() {
	b.changed.Close()
	b.died.Close()
}
