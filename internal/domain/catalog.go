// Package domain defines the core entities of the Star Bucks Trade Empire
// simulation engine: the static universe catalog, per-venue markets, the
// game-state aggregate, loans, contracts, and travel encounters.
package domain

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ──────────────────────────────────────────────────────────────────────────────
// Catalog types — loaded from catalog/universe.yaml
// ──────────────────────────────────────────────────────────────────────────────

// Commodity is a tradable good. The catalog is immutable after load.
type Commodity struct {
	Name       string  `yaml:"name" json:"name"`               // unique key
	UnitWeight float64 `yaml:"unit_weight" json:"unit_weight"` // tonnes per unit
	RangeMin   int64   `yaml:"range_min" json:"range_min"`     // legal price floor
	RangeMax   int64   `yaml:"range_max" json:"range_max"`     // legal price ceiling
	Rarity     float64 `yaml:"rarity" json:"rarity"`           // 0 = common, 1 = rare
}

// Venue is a tradable location with its own market.
type Venue struct {
	Name string `yaml:"name" json:"name"`
}

// EquipmentCategory groups shop items by function.
type EquipmentCategory string

const (
	EquipLaser   EquipmentCategory = "laser"
	EquipScanner EquipmentCategory = "scanner"
	EquipShield  EquipmentCategory = "shield"
	EquipCannon  EquipmentCategory = "cannon"
)

// EquipmentItem is a purchasable ship upgrade. Tier is explicit; defense
// categories (shield, cannon) scale their cost by the current game phase.
type EquipmentItem struct {
	ID       string            `yaml:"id" json:"id"`
	Name     string            `yaml:"name" json:"name"`
	Category EquipmentCategory `yaml:"category" json:"category"`
	Tier     int               `yaml:"tier" json:"tier"`
	Cost     int64             `yaml:"cost" json:"cost"`
}

// IsDefense reports whether the item's cost scales with the game phase.
func (e EquipmentItem) IsDefense() bool {
	return e.Category == EquipShield || e.Category == EquipCannon
}

// RecipeInput is one ingredient line of a fabrication recipe.
type RecipeInput struct {
	Commodity string `yaml:"commodity" json:"commodity"`
	Units     int    `yaml:"units" json:"units"` // consumed per fabricated unit
}

// Recipe is a fabrication blueprint: inputs plus a flat currency fee per unit.
// Each recipe may run at most once per day.
type Recipe struct {
	Key        string        `yaml:"key" json:"key"`
	Output     string        `yaml:"output" json:"output"`
	FeePerUnit int64         `yaml:"fee_per_unit" json:"fee_per_unit"`
	Inputs     []RecipeInput `yaml:"inputs" json:"inputs"`
}

// Firm is a named counterparty for loans or contracts.
type Firm struct {
	Name     string  `yaml:"name" json:"name"`
	BaseRate float64 `yaml:"base_rate" json:"base_rate"` // %/day, loan firms only
}

// Catalog is the full static universe: commodities, venues, the distance
// matrix, shop inventory, fabrication recipes, and counterparty firms.
type Catalog struct {
	Commodities []Commodity     `yaml:"commodities"`
	Venues      []Venue         `yaml:"venues"`
	Distances   [][]int         `yaml:"distances"` // parsecs, symmetric
	Equipment   []EquipmentItem `yaml:"equipment"`
	Recipes     []Recipe        `yaml:"recipes"`
	LoanFirms   []Firm          `yaml:"loan_firms"`
	ContractFirms []Firm        `yaml:"contract_firms"`
	FlavorMessages []string     `yaml:"flavor_messages"`
	FallbackLegends []string    `yaml:"fallback_legends"` // default leaderboard names

	// Special-cased commodity names referenced by the simulation rules.
	FuelName      string   `yaml:"fuel_name"`
	PowerCellName string   `yaml:"power_cell_name"`
	LuxuryName    string   `yaml:"luxury_name"`    // log-uniform pricing
	StapleNames   []string `yaml:"staple_names"`   // inflationary range drift
	OreName       string   `yaml:"ore_name"`       // primary mining yield
	RareOreName   string   `yaml:"rare_ore_name"`  // tier-2 bonus yield
	ExoticName    string   `yaml:"exotic_name"`    // tier-3 bonus yield
	SpoilageNames []string `yaml:"spoilage_names"` // volatile goods that decay
	ContrabandNames []string `yaml:"contraband_names"` // customs confiscation order
	VerminTargets []string `yaml:"vermin_targets"` // rust-rat food
}

// ──────────────────────────────────────────────────────────────────────────────
// Lookups
// ──────────────────────────────────────────────────────────────────────────────

// FindCommodity returns the commodity with the given name.
func (c *Catalog) FindCommodity(name string) (Commodity, bool) {
	for _, cm := range c.Commodities {
		if cm.Name == name {
			return cm, true
		}
	}
	return Commodity{}, false
}

// FindVenue returns the index of the venue with the given name.
func (c *Catalog) FindVenue(name string) (int, bool) {
	for i, v := range c.Venues {
		if v.Name == name {
			return i, true
		}
	}
	return 0, false
}

// FindEquipment returns the equipment item with the given id.
func (c *Catalog) FindEquipment(id string) (EquipmentItem, bool) {
	for _, e := range c.Equipment {
		if e.ID == id {
			return e, true
		}
	}
	return EquipmentItem{}, false
}

// FindRecipe returns the recipe with the given key.
func (c *Catalog) FindRecipe(key string) (Recipe, bool) {
	for _, r := range c.Recipes {
		if r.Key == key {
			return r, true
		}
	}
	return Recipe{}, false
}

// Distance returns the travel distance in parsecs between two venue indexes.
func (c *Catalog) Distance(from, to int) int {
	return c.Distances[from][to]
}

// IsStaple reports whether the commodity follows the inflationary drift rule.
func (c *Catalog) IsStaple(name string) bool {
	for _, s := range c.StapleNames {
		if s == name {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────────────────────────────────────
// Fuzzy suggestions
// ──────────────────────────────────────────────────────────────────────────────

// maxSuggestDistance caps how far a typo may be from a real name.
const maxSuggestDistance = 3

// SuggestCommodity returns the catalog commodity name closest to the given
// input, or "" when nothing is within the edit-distance cap.
func (c *Catalog) SuggestCommodity(input string) string {
	names := make([]string, len(c.Commodities))
	for i, cm := range c.Commodities {
		names[i] = cm.Name
	}
	return suggest(input, names)
}

// SuggestVenue returns the catalog venue name closest to the given input.
func (c *Catalog) SuggestVenue(input string) string {
	names := make([]string, len(c.Venues))
	for i, v := range c.Venues {
		names[i] = v.Name
	}
	return suggest(input, names)
}

// UnknownCommodityError builds the rejection for a commodity name that is not
// in the catalog, attaching the closest real name when one is within reach.
// errors.Is(err, ErrUnknownCommodity) still holds on the result.
func (c *Catalog) UnknownCommodityError(input string) error {
	if hint := c.SuggestCommodity(input); hint != "" {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownCommodity, input, hint)
	}
	return fmt.Errorf("%w %q", ErrUnknownCommodity, input)
}

// UnknownVenueError is the venue-name counterpart of UnknownCommodityError.
func (c *Catalog) UnknownVenueError(input string) error {
	if hint := c.SuggestVenue(input); hint != "" {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownVenue, input, hint)
	}
	return fmt.Errorf("%w %q", ErrUnknownVenue, input)
}

func suggest(input string, candidates []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	lower := strings.ToLower(input)
	for _, cand := range candidates {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(cand))
		if d < bestDist {
			bestDist = d
			best = cand
		}
	}
	if bestDist > maxSuggestDistance {
		return ""
	}
	return best
}
