package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func recipeLine(ingredientId string, required, available string) *RecipeLine {
	req, _ := decimal.NewFromString(required)
	avail, _ := decimal.NewFromString(available)
	return &RecipeLine{
		BOMEntry:       BOMEntry{IngredientId: ingredientId, QuantityRequired: req},
		AvailableStock: avail,
	}
}

func TestMaxProducibleFromRecipe(t *testing.T) {
	cases := []struct {
		name              string
		recipe            []*RecipeLine
		expectedUnits     int64
		expectedLimitedBy string
	}{
		{
			name: "fractional requirement floors to whole units",
			recipe: []*RecipeLine{
				recipeLine("LIB001", "2.5", "2000"),
				recipeLine("9LB001", "1", "40"),
			},
			expectedUnits:     40,
			expectedLimitedBy: "9LB001",
		},
		{
			name: "powder is the bottleneck",
			recipe: []*RecipeLine{
				recipeLine("LIB001", "2.5", "24"),
				recipeLine("9LB001", "1", "100"),
			},
			expectedUnits:     9, // 24 / 2.5 = 9.6
			expectedLimitedBy: "LIB001",
		},
		{
			name: "exhausted ingredient yields zero",
			recipe: []*RecipeLine{
				recipeLine("LIB001", "0.8", "500"),
				recipeLine("2LE001", "1", "0"),
			},
			expectedUnits:     0,
			expectedLimitedBy: "2LE001",
		},
		{
			name: "negative stock clamps to zero",
			recipe: []*RecipeLine{
				recipeLine("LIB001", "1", "-3"),
			},
			expectedUnits:     0,
			expectedLimitedBy: "LIB001",
		},
		{
			name:          "empty recipe",
			recipe:        nil,
			expectedUnits: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := maxProducibleFromRecipe(tc.recipe)
			if got.Units != tc.expectedUnits {
				t.Fatalf("units = %d, expected %d", got.Units, tc.expectedUnits)
			}
			if got.LimitingIngredient != tc.expectedLimitedBy {
				t.Fatalf("limiting ingredient = %q, expected %q", got.LimitingIngredient, tc.expectedLimitedBy)
			}
		})
	}
}

func TestMaxProducibleFromRecipe_TieKeepsFirstLine(t *testing.T) {
	// Equal limits: the first line in recipe order wins the label so the
	// answer is deterministic (GetRecipe orders by ingredient id).
	recipe := []*RecipeLine{
		recipeLine("2LB001", "1", "10"),
		recipeLine("2LE001", "1", "10"),
	}
	got := maxProducibleFromRecipe(recipe)
	if got.Units != 10 {
		t.Fatalf("units = %d, expected 10", got.Units)
	}
	if got.LimitingIngredient != "2LB001" {
		t.Fatalf("limiting ingredient = %q, expected 2LB001", got.LimitingIngredient)
	}
}
