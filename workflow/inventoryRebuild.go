package workflow

import (
	"context"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/models"
	"github.com/shopspring/decimal"
)

type RebuildResult struct {
	BranchId       int `json:"branch_id"`
	ItemsRebuilt   int `json:"items_rebuilt"`
	ItemsCorrected int `json:"items_corrected"`
}

// RebuildBranchStock replays the ledger into current_stock for every
// item in the branch. The latest ADMIN_SET row for an item is the
// reconciliation baseline; rows after it are summed as signed deltas.
// This is both a repair tool (cmd/inventory-rebuild) and the invariant
// check backing the "stock equals replayed ledger" property.
func RebuildBranchStock(ctx context.Context, branchId int) (*RebuildResult, error) {

	logger := config.GetLogger()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var items []*models.Item
	if err := tx.Where("branch_id = ?", branchId).Find(&items).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	result := RebuildResult{BranchId: branchId}
	for _, item := range items {
		if err := AcquireStockLock(tx, item.ItemId, branchId); err != nil {
			tx.Rollback()
			config.LogError(logger, "inventoryRebuild.go", "RebuildBranchStock", "AcquireStockLock", item.ItemId, err)
			return nil, err
		}

		var movements []*models.StockMovement
		err := tx.Where("item_id = ? AND branch_id = ?", item.ItemId, branchId).
			Order("date_time ASC, id ASC").
			Find(&movements).Error
		if err != nil {
			ReleaseStockLock(tx, item.ItemId, branchId)
			tx.Rollback()
			return nil, err
		}

		replayed := ReplayMovements(movements)
		if !replayed.Equal(item.CurrentStock) {
			if err := tx.Model(&item).UpdateColumn("current_stock", replayed).Error; err != nil {
				ReleaseStockLock(tx, item.ItemId, branchId)
				tx.Rollback()
				return nil, err
			}
			result.ItemsCorrected++
		}
		result.ItemsRebuilt++

		ReleaseStockLock(tx, item.ItemId, branchId)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// ReplayMovements folds ledger rows (oldest first) into a stock level.
// ADMIN_SET resets the running total to its absolute value.
func ReplayMovements(movements []*models.StockMovement) decimal.Decimal {
	stock := decimal.Zero
	for _, m := range movements {
		switch m.MovementType.Sign() {
		case 0: // ADMIN_SET baseline
			stock = m.Quantity
		case 1:
			stock = stock.Add(m.Quantity)
		default:
			stock = stock.Sub(m.Quantity)
		}
	}
	return stock
}
