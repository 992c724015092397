package npc

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// DefaultAmmoCrateChance is the percent chance of an ammo crate drop when a
// loot table leaves ammo_crate_chance unset.
const DefaultAmmoCrateChance = 1.5

// CurrencyDrop defines the range of currency an enemy can drop on death.
type CurrencyDrop struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// LootTable defines the possible drops for an enemy template.
type LootTable struct {
	Currency *CurrencyDrop `yaml:"currency"`
	// AmmoCrateChance is a percentage in [0, 100]. Nil means the default.
	AmmoCrateChance *float64 `yaml:"ammo_crate_chance"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Precondition: lt must not be nil.
// Postcondition: Returns nil iff all currency and chance constraints hold;
// an empty loot table is valid.
func (lt *LootTable) Validate() error {
	if lt.Currency != nil {
		if lt.Currency.Min < 0 {
			return fmt.Errorf("loot table: currency min must be >= 0, got %d", lt.Currency.Min)
		}
		if lt.Currency.Min > lt.Currency.Max {
			return fmt.Errorf("loot table: currency min (%d) must be <= max (%d)", lt.Currency.Min, lt.Currency.Max)
		}
	}
	if c := lt.AmmoCrateChance; c != nil && (*c < 0 || *c > 100) {
		return fmt.Errorf("loot table: ammo_crate_chance must be in [0, 100], got %f", *c)
	}
	return nil
}

// crateChance returns the effective ammo crate chance.
func (lt *LootTable) crateChance() float64 {
	if lt == nil || lt.AmmoCrateChance == nil {
		return DefaultAmmoCrateChance
	}
	return *lt.AmmoCrateChance
}

// LootResult holds the generated loot from a single kill.
type LootResult struct {
	Currency int
	// AmmoCrate is the ID of the dropped crate, empty when none dropped.
	AmmoCrate string
}

// GenerateLoot rolls loot from lt using src. A nil table still rolls the
// default ammo crate chance.
//
// Precondition: lt, when non-nil, must have passed Validate().
// Postcondition: Currency is in [Currency.Min, Currency.Max] if currency is set.
func GenerateLoot(src dice.Source, lt *LootTable) LootResult {
	var result LootResult

	if lt != nil && lt.Currency != nil && lt.Currency.Max > 0 {
		result.Currency = dice.Range(src, lt.Currency.Min, lt.Currency.Max+1)
	}
	if c := lt.crateChance(); c > 0 && dice.Chance(src, c) {
		result.AmmoCrate = uuid.NewString()
	}
	return result
}
