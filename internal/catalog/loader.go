// Package catalog loads and validates the static universe definition from its
// YAML file. The catalog is read once at startup and treated as immutable.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orbitfall/tradeempire/internal/domain"
)

// Load reads, parses, and validates the universe catalog at the given path.
func Load(path string) (*domain.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a catalog from raw YAML bytes.
func Parse(raw []byte) (*domain.Catalog, error) {
	var cat domain.Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("catalog.Parse: decode: %w", err)
	}
	if err := validate(&cat); err != nil {
		return nil, fmt.Errorf("catalog.Parse: %w", err)
	}
	return &cat, nil
}

func validate(cat *domain.Catalog) error {
	if len(cat.Commodities) == 0 {
		return fmt.Errorf("no commodities defined")
	}
	if len(cat.Venues) < 2 {
		return fmt.Errorf("need at least 2 venues, got %d", len(cat.Venues))
	}

	seen := make(map[string]bool, len(cat.Commodities))
	for _, cm := range cat.Commodities {
		if cm.Name == "" {
			return fmt.Errorf("commodity with empty name")
		}
		if seen[cm.Name] {
			return fmt.Errorf("duplicate commodity %q", cm.Name)
		}
		seen[cm.Name] = true
		if cm.UnitWeight <= 0 {
			return fmt.Errorf("commodity %q: unit_weight must be positive", cm.Name)
		}
		if cm.RangeMin <= 0 || cm.RangeMin >= cm.RangeMax {
			return fmt.Errorf("commodity %q: invalid price range [%d, %d]", cm.Name, cm.RangeMin, cm.RangeMax)
		}
		if cm.Rarity < 0 || cm.Rarity > 1 {
			return fmt.Errorf("commodity %q: rarity %.2f outside [0, 1]", cm.Name, cm.Rarity)
		}
	}

	// Distance matrix: square, symmetric, zero diagonal
	n := len(cat.Venues)
	if len(cat.Distances) != n {
		return fmt.Errorf("distance matrix has %d rows, want %d", len(cat.Distances), n)
	}
	for i, row := range cat.Distances {
		if len(row) != n {
			return fmt.Errorf("distance matrix row %d has %d columns, want %d", i, len(row), n)
		}
		if row[i] != 0 {
			return fmt.Errorf("distance matrix diagonal [%d][%d] must be 0", i, i)
		}
		for j, d := range row {
			if d < 0 {
				return fmt.Errorf("negative distance [%d][%d]", i, j)
			}
			if d != cat.Distances[j][i] {
				return fmt.Errorf("distance matrix not symmetric at [%d][%d]", i, j)
			}
			if i != j && d == 0 {
				return fmt.Errorf("zero distance between distinct venues [%d][%d]", i, j)
			}
		}
	}

	// Equipment ids unique, tiers positive
	eqSeen := make(map[string]bool, len(cat.Equipment))
	for _, e := range cat.Equipment {
		if e.ID == "" {
			return fmt.Errorf("equipment item with empty id")
		}
		if eqSeen[e.ID] {
			return fmt.Errorf("duplicate equipment id %q", e.ID)
		}
		eqSeen[e.ID] = true
		if e.Tier < 1 {
			return fmt.Errorf("equipment %q: tier must be >= 1", e.ID)
		}
		if e.Cost <= 0 {
			return fmt.Errorf("equipment %q: cost must be positive", e.ID)
		}
		switch e.Category {
		case domain.EquipLaser, domain.EquipScanner, domain.EquipShield, domain.EquipCannon:
		default:
			return fmt.Errorf("equipment %q: unknown category %q", e.ID, e.Category)
		}
	}

	// Recipes: inputs and outputs must resolve to real commodities
	for _, r := range cat.Recipes {
		if _, ok := cat.FindCommodity(r.Output); !ok {
			return fmt.Errorf("recipe %q: unknown output commodity %q", r.Key, r.Output)
		}
		if len(r.Inputs) == 0 {
			return fmt.Errorf("recipe %q: no inputs", r.Key)
		}
		for _, in := range r.Inputs {
			if _, ok := cat.FindCommodity(in.Commodity); !ok {
				return fmt.Errorf("recipe %q: unknown input commodity %q", r.Key, in.Commodity)
			}
			if in.Units < 1 {
				return fmt.Errorf("recipe %q: input %q units must be >= 1", r.Key, in.Commodity)
			}
		}
	}

	if len(cat.LoanFirms) == 0 {
		return fmt.Errorf("no loan firms defined")
	}
	for _, f := range cat.LoanFirms {
		if f.BaseRate <= 0 {
			return fmt.Errorf("loan firm %q: base_rate must be positive", f.Name)
		}
	}
	if len(cat.ContractFirms) == 0 {
		return fmt.Errorf("no contract firms defined")
	}

	// Special-cased commodity references must exist
	refs := map[string]string{
		"fuel_name":       cat.FuelName,
		"power_cell_name": cat.PowerCellName,
		"luxury_name":     cat.LuxuryName,
		"ore_name":        cat.OreName,
		"rare_ore_name":   cat.RareOreName,
		"exotic_name":     cat.ExoticName,
	}
	for field, name := range refs {
		if name == "" {
			return fmt.Errorf("%s is required", field)
		}
		if _, ok := cat.FindCommodity(name); !ok {
			return fmt.Errorf("%s references unknown commodity %q", field, name)
		}
	}
	for _, group := range [][]string{cat.StapleNames, cat.SpoilageNames, cat.ContrabandNames, cat.VerminTargets} {
		for _, name := range group {
			if _, ok := cat.FindCommodity(name); !ok {
				return fmt.Errorf("special commodity list references unknown commodity %q", name)
			}
		}
	}

	return nil
}
