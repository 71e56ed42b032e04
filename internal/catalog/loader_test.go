package catalog_test

import (
	"strings"
	"testing"

	"github.com/orbitfall/tradeempire/internal/catalog"
)

const validCatalogYAML = `
commodities:
  - {name: Hydrazine, unit_weight: 0.5, range_min: 10, range_max: 100, rarity: 0.1}
  - {name: Power Cells, unit_weight: 0.2, range_min: 50, range_max: 400, rarity: 0.3}
  - {name: Synth Grain, unit_weight: 2.0, range_min: 5, range_max: 40, rarity: 0.0}
  - {name: Gem Clusters, unit_weight: 0.1, range_min: 5000, range_max: 90000, rarity: 0.9}
  - {name: Raw Ore, unit_weight: 1.5, range_min: 20, range_max: 200, rarity: 0.2}
  - {name: Iridium Ore, unit_weight: 1.0, range_min: 800, range_max: 6000, rarity: 0.7}
  - {name: Exotic Matter, unit_weight: 0.05, range_min: 10000, range_max: 150000, rarity: 0.95}
  - {name: Hull Alloys, unit_weight: 3.0, range_min: 100, range_max: 900, rarity: 0.4}
venues:
  - {name: Ceres Bazaar}
  - {name: Tycho Station}
  - {name: Vesta Docks}
distances:
  - [0, 4, 6]
  - [4, 0, 2]
  - [6, 2, 0]
equipment:
  - {id: laser_mk1, name: Mining Laser I, category: laser, tier: 1, cost: 10000}
  - {id: shield_mk1, name: Deflector I, category: shield, tier: 1, cost: 15000}
recipes:
  - key: alloy_press
    output: Hull Alloys
    fee_per_unit: 10
    inputs:
      - {commodity: Raw Ore, units: 3}
loan_firms:
  - {name: Helios Credit, base_rate: 5.0}
  - {name: Outer Rim Mutual, base_rate: 8.0}
contract_firms:
  - {name: Lagrange Freight}
flavor_messages:
  - Fuel futures wobble on refinery gossip.
fallback_legends:
  - Dread Captain Vex
fuel_name: Hydrazine
power_cell_name: Power Cells
luxury_name: Gem Clusters
staple_names: [Synth Grain]
ore_name: Raw Ore
rare_ore_name: Iridium Ore
exotic_name: Exotic Matter
spoilage_names: [Exotic Matter]
contraband_names: [Gem Clusters]
vermin_targets: [Synth Grain]
`

func TestParseValidCatalog(t *testing.T) {
	cat, err := catalog.Parse([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("expected valid catalog, got: %v", err)
	}

	if len(cat.Commodities) != 8 {
		t.Errorf("commodities = %d, want 8", len(cat.Commodities))
	}
	if len(cat.Venues) != 3 {
		t.Errorf("venues = %d, want 3", len(cat.Venues))
	}

	cm, ok := cat.FindCommodity("Raw Ore")
	if !ok {
		t.Fatal("FindCommodity(Raw Ore) failed")
	}
	if cm.UnitWeight != 1.5 {
		t.Errorf("Raw Ore unit weight = %.2f, want 1.5", cm.UnitWeight)
	}

	if d := cat.Distance(0, 2); d != 6 {
		t.Errorf("Distance(0,2) = %d, want 6", d)
	}
	if d := cat.Distance(2, 0); d != 6 {
		t.Errorf("Distance(2,0) = %d, want 6 (symmetric)", d)
	}

	if !cat.IsStaple("Synth Grain") {
		t.Error("Synth Grain should be a staple")
	}
	if cat.IsStaple("Raw Ore") {
		t.Error("Raw Ore should not be a staple")
	}

	if _, ok := cat.FindEquipment("laser_mk1"); !ok {
		t.Error("FindEquipment(laser_mk1) failed")
	}
	if _, ok := cat.FindRecipe("alloy_press"); !ok {
		t.Error("FindRecipe(alloy_press) failed")
	}
}

// TestParseRejections runs the validator against a range of broken catalogs,
// each derived from the valid fixture with one targeted mutation.
func TestParseRejections(t *testing.T) {
	cases := []struct {
		name    string
		old, by string
	}{
		{
			name: "duplicate commodity name",
			old:  "{name: Hull Alloys, unit_weight: 3.0",
			by:   "{name: Raw Ore, unit_weight: 3.0",
		},
		{
			name: "asymmetric distance matrix",
			old:  "- [4, 0, 2]",
			by:   "- [5, 0, 2]",
		},
		{
			name: "nonzero distance diagonal",
			old:  "- [0, 4, 6]",
			by:   "- [1, 4, 6]",
		},
		{
			name: "unknown fuel reference",
			old:  "fuel_name: Hydrazine",
			by:   "fuel_name: Unobtanium",
		},
		{
			name: "rarity out of bounds",
			old:  "rarity: 0.95",
			by:   "rarity: 1.5",
		},
		{
			name: "inverted price range",
			old:  "range_min: 20, range_max: 200",
			by:   "range_min: 200, range_max: 20",
		},
		{
			name: "unknown recipe input",
			old:  "{commodity: Raw Ore, units: 3}",
			by:   "{commodity: Moon Cheese, units: 3}",
		},
		{
			name: "unknown equipment category",
			old:  "category: shield",
			by:   "category: cupholder",
		},
		{
			name: "unknown staple reference",
			old:  "staple_names: [Synth Grain]",
			by:   "staple_names: [Moon Cheese]",
		},
	}

	for _, tc := range cases {
		broken := strings.Replace(validCatalogYAML, tc.old, tc.by, 1)
		if broken == validCatalogYAML {
			t.Fatalf("%s: mutation target %q not found in fixture", tc.name, tc.old)
		}
		if _, err := catalog.Parse([]byte(broken)); err == nil {
			t.Errorf("%s: expected a validation error, got none", tc.name)
		}
	}
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	if _, err := catalog.Parse([]byte("")); err == nil {
		t.Error("expected error for an empty catalog")
	}
}

// TestSuggestions checks the "did you mean" lookup on near-miss names.
func TestSuggestions(t *testing.T) {
	cat, err := catalog.Parse([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("fixture should parse: %v", err)
	}

	if got := cat.SuggestCommodity("Raw Or"); got != "Raw Ore" {
		t.Errorf("SuggestCommodity(Raw Or) = %q, want %q", got, "Raw Ore")
	}
	if got := cat.SuggestCommodity("xyzzyplugh"); got != "" {
		t.Errorf("SuggestCommodity(nonsense) = %q, want empty", got)
	}
	if got := cat.SuggestVenue("Tycho Statio"); got != "Tycho Station" {
		t.Errorf("SuggestVenue(Tycho Statio) = %q, want %q", got, "Tycho Station")
	}
}
