package workflow

import (
	"testing"

	"bitbucket.org/flameblock/inventory_backend/models"
	"github.com/shopspring/decimal"
)

func movement(movementType models.MovementType, quantity string) *models.StockMovement {
	q, _ := decimal.NewFromString(quantity)
	return &models.StockMovement{MovementType: movementType, Quantity: q}
}

func TestReplayMovements(t *testing.T) {
	cases := []struct {
		name      string
		movements []*models.StockMovement
		expected  string
	}{
		{
			name:     "empty ledger is zero",
			expected: "0",
		},
		{
			name: "signed deltas accumulate",
			movements: []*models.StockMovement{
				movement(models.MovementTypeIn, "100"),
				movement(models.MovementTypeAdminIn, "20"),
				movement(models.MovementTypeOut, "30"),
				movement(models.MovementTypeTransferOut, "5"),
				movement(models.MovementTypeTransferIn, "2.5"),
				movement(models.MovementTypeProduction, "10"),
			},
			expected: "97.5",
		},
		{
			name: "admin set resets the baseline",
			movements: []*models.StockMovement{
				movement(models.MovementTypeIn, "100"),
				movement(models.MovementTypeOut, "40"),
				movement(models.MovementTypeAdminSet, "500"),
				movement(models.MovementTypeOut, "25"),
			},
			expected: "475",
		},
		{
			// the ledger a replaced catalog row leaves behind: the new
			// opening baseline supersedes everything before it
			name: "later baseline supersedes earlier baseline and history",
			movements: []*models.StockMovement{
				movement(models.MovementTypeAdminSet, "40"),
				movement(models.MovementTypeIn, "10"),
				movement(models.MovementTypeAdminSet, "10"),
			},
			expected: "10",
		},
		{
			name: "set as first row works without prior history",
			movements: []*models.StockMovement{
				movement(models.MovementTypeAdminSet, "42"),
				movement(models.MovementTypeAdminIn, "8"),
			},
			expected: "50",
		},
		{
			name: "ledger may go negative when history is incomplete",
			movements: []*models.StockMovement{
				movement(models.MovementTypeOut, "7"),
			},
			expected: "-7",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ReplayMovements(tc.movements)
			if got.String() != tc.expected {
				t.Fatalf("replayed stock = %s, expected %s", got, tc.expected)
			}
		})
	}
}
