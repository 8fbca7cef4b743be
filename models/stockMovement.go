package models

import (
	"context"
	"time"

	"bitbucket.org/flameblock/inventory_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovement is an append-only ledger row. Quantity is always an
// unsigned magnitude; the sign comes from the movement type. ADMIN_SET
// rows record the resulting absolute value instead of a delta.
type StockMovement struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ItemId        string          `gorm:"size:50;not null;index:idx_item_branch" json:"item_id"`
	BranchId      int             `gorm:"not null;index:idx_item_branch" json:"branch_id"`
	MovementType  MovementType    `gorm:"size:20;not null;index" json:"movement_type"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Reference     string          `gorm:"size:255" json:"reference"`
	BatchNr       string          `gorm:"size:100" json:"batch_nr"`
	InvoiceNr     string          `gorm:"size:100" json:"invoice_nr"`
	PoNr          string          `gorm:"size:100" json:"po_nr"`
	DateTime      time.Time       `gorm:"not null;index" json:"date_time"`
	UserId        string          `gorm:"size:100" json:"user_id"`
	FromBranchId  *int            `json:"from_branch_id"`
	ToBranchId    *int            `json:"to_branch_id"`
	IdempotencyId *int            `gorm:"index" json:"idempotency_id"`
}

// AppendMovement writes one ledger row inside the caller's transaction.
// Ledger rows are never written outside the transaction that mutates the
// matching item row.
func AppendMovement(tx *gorm.DB, movement *StockMovement) error {
	if movement.DateTime.IsZero() {
		movement.DateTime = time.Now()
	}
	return tx.Create(movement).Error
}

type MovementFilter struct {
	BranchId *int
	ItemId   *string
	Category *ItemCategory
	UserId   *string
	Class    *MovementClass
}

// GetMovements returns ledger rows newest first, ties broken by
// insertion id descending, bounded by limit (default 100).
func GetMovements(ctx context.Context, filter MovementFilter, limit int) ([]*StockMovement, error) {

	db := config.GetDB()
	var results []*StockMovement

	if limit <= 0 || limit > 1000 {
		limit = config.SearchLimit
	}

	dbCtx := db.WithContext(ctx).Model(&StockMovement{})
	if filter.BranchId != nil {
		dbCtx = dbCtx.Where("stock_movements.branch_id = ?", *filter.BranchId)
	}
	if filter.ItemId != nil {
		dbCtx = dbCtx.Where("stock_movements.item_id = ?", *filter.ItemId)
	}
	if filter.UserId != nil {
		dbCtx = dbCtx.Where("stock_movements.user_id = ?", *filter.UserId)
	}
	if filter.Class != nil {
		dbCtx = dbCtx.Where("stock_movements.movement_type IN ?", filter.Class.MovementTypes())
	}
	if filter.Category != nil {
		dbCtx = dbCtx.Joins("JOIN items ON items.item_id = stock_movements.item_id AND items.branch_id = stock_movements.branch_id").
			Where("items.category = ?", *filter.Category)
	}

	err := dbCtx.Order("date_time DESC, id DESC").Limit(limit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeduplicateMovements collapses ledger rows identical across
// (item, branch, type, quantity, date_time, user, from, to) down to the
// earliest-inserted row and returns how many were removed. It is a repair
// tool for historical double submissions; new writes are deduplicated at
// write time through idempotency keys.
func DeduplicateMovements(ctx context.Context) (int64, error) {

	db := config.GetDB()

	result := db.WithContext(ctx).Exec(`
		DELETE FROM stock_movements
		WHERE id NOT IN (
			SELECT keep_id FROM (
				SELECT MIN(id) AS keep_id
				FROM stock_movements
				GROUP BY item_id, branch_id, movement_type, quantity, date_time, user_id, from_branch_id, to_branch_id
			) keepers
		)`)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
