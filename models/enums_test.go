package models_test

import (
	"testing"

	"bitbucket.org/flameblock/inventory_backend/models"
)

func TestMovementTypeSign(t *testing.T) {
	cases := []struct {
		movementType models.MovementType
		expected     int
	}{
		{models.MovementTypeIn, 1},
		{models.MovementTypeAdminIn, 1},
		{models.MovementTypeTransferIn, 1},
		{models.MovementTypeProduction, 1},
		{models.MovementTypeOut, -1},
		{models.MovementTypeAdminOut, -1},
		{models.MovementTypeTransferOut, -1},
		// absolute value, not a delta
		{models.MovementTypeAdminSet, 0},
	}
	for _, tc := range cases {
		if got := tc.movementType.Sign(); got != tc.expected {
			t.Errorf("%s.Sign() = %d, expected %d", tc.movementType, got, tc.expected)
		}
	}
}

func TestMovementTypeIsValid(t *testing.T) {
	for _, m := range []models.MovementType{
		models.MovementTypeIn, models.MovementTypeOut,
		models.MovementTypeAdminIn, models.MovementTypeAdminOut, models.MovementTypeAdminSet,
		models.MovementTypeTransferIn, models.MovementTypeTransferOut,
		models.MovementTypeProduction,
	} {
		if !m.IsValid() {
			t.Errorf("%s should be valid", m)
		}
	}
	for _, m := range []models.MovementType{"", "SALE", "in"} {
		if m.IsValid() {
			t.Errorf("%q should not be valid", m)
		}
	}
}

func TestMovementClassTypes(t *testing.T) {
	cases := []struct {
		class    models.MovementClass
		expected []models.MovementType
	}{
		{models.MovementClassTransfer, []models.MovementType{models.MovementTypeTransferIn, models.MovementTypeTransferOut}},
		{models.MovementClassProduction, []models.MovementType{models.MovementTypeProduction}},
		{models.MovementClassAdmin, []models.MovementType{models.MovementTypeAdminIn, models.MovementTypeAdminOut, models.MovementTypeAdminSet}},
		{models.MovementClassPlain, []models.MovementType{models.MovementTypeIn, models.MovementTypeOut}},
		{models.MovementClass("unknown"), nil},
	}
	for _, tc := range cases {
		got := tc.class.MovementTypes()
		if len(got) != len(tc.expected) {
			t.Fatalf("%s.MovementTypes() = %v, expected %v", tc.class, got, tc.expected)
		}
		for i := range got {
			if got[i] != tc.expected[i] {
				t.Errorf("%s.MovementTypes()[%d] = %s, expected %s", tc.class, i, got[i], tc.expected[i])
			}
		}
	}
}

func TestEveryMovementTypeBelongsToExactlyOneClass(t *testing.T) {
	classes := []models.MovementClass{
		models.MovementClassTransfer,
		models.MovementClassProduction,
		models.MovementClassAdmin,
		models.MovementClassPlain,
	}
	seen := map[models.MovementType]int{}
	for _, c := range classes {
		for _, m := range c.MovementTypes() {
			seen[m]++
		}
	}
	all := []models.MovementType{
		models.MovementTypeIn, models.MovementTypeOut,
		models.MovementTypeAdminIn, models.MovementTypeAdminOut, models.MovementTypeAdminSet,
		models.MovementTypeTransferIn, models.MovementTypeTransferOut,
		models.MovementTypeProduction,
	}
	for _, m := range all {
		if seen[m] != 1 {
			t.Errorf("%s appears in %d classes, expected 1", m, seen[m])
		}
	}
}
