package character

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/geom"
)

// Rarity grades an ammo crate.
type Rarity int

const (
	Common Rarity = iota
	Rare
	Legendary
)

func (r Rarity) String() string {
	switch r {
	case Common:
		return "common"
	case Rare:
		return "rare"
	case Legendary:
		return "legendary"
	}
	return fmt.Sprintf("Rarity(%d)", int(r))
}

// Spare magazines granted per rarity.
const (
	CommonMagazines    = 3
	RareMagazines      = 5
	LegendaryMagazines = 10
)

// CratePickupRadius is how close a living character must come to open a
// crate.
const CratePickupRadius = 1.0

// AmmoCrate is a pickup dropped by a dying enemy.
type AmmoCrate struct {
	ID        string
	Pos       geom.Vec
	Rarity    Rarity
	Magazines int
}

// RollCrate grades a crate with a roll in [1, 100]: 11 or less is
// legendary, 41 or less rare, anything else common.
func RollCrate(src dice.Source, id string, pos geom.Vec) AmmoCrate {
	c := AmmoCrate{ID: id, Pos: pos}
	switch roll := dice.Range(src, 1, 101); {
	case roll <= 11:
		c.Rarity, c.Magazines = Legendary, LegendaryMagazines
	case roll <= 41:
		c.Rarity, c.Magazines = Rare, RareMagazines
	default:
		c.Rarity, c.Magazines = Common, CommonMagazines
	}
	return c
}

// Cue is the presentation cue played when the crate appears.
func (c AmmoCrate) Cue() string { return "ammo_crate_" + c.Rarity.String() }

// Open adds the crate's magazines to the primary weapon of every living
// character in chars and returns how many were refilled.
func (c AmmoCrate) Open(chars []*Character) int {
	n := 0
	for _, ch := range chars {
		if ch.dead || !ch.actor.Alive() || ch.primary == nil {
			continue
		}
		ch.primary.AddMagazines(c.Magazines)
		n++
	}
	return n
}
