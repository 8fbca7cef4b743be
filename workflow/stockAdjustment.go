package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/models"
	"bitbucket.org/flameblock/inventory_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

type AdjustStockInput struct {
	ItemId         string          `json:"item_id" binding:"required"`
	BranchId       int             `json:"branch_id" binding:"required"`
	Op             models.AdjustOp `json:"op" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reference      string          `json:"reference"`
	BatchNr        string          `json:"batch_nr"`
	InvoiceNr      string          `json:"invoice_nr"`
	PoNr           string          `json:"po_nr"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// AdjustStock applies a manual stock correction as one transaction:
// SET forces an absolute level (ADMIN_SET), ADD credits (ADMIN_IN),
// SUBTRACT debits (ADMIN_OUT) after a sufficiency check.
func AdjustStock(ctx context.Context, input *AdjustStockInput) (*models.Item, error) {

	logger := config.GetLogger()

	if !input.Op.IsValid() {
		return nil, fmt.Errorf("%w: unknown op %q", models.ErrValidation, input.Op)
	}
	if input.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: quantity cannot be negative", models.ErrValidation)
	}
	if input.Op != models.AdjustOpSet && !input.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
	}

	role, _ := utils.GetRoleFromContext(ctx)
	username, _ := utils.GetUsernameFromContext(ctx)
	if username == "" {
		username = "system"
	}

	messageId := input.IdempotencyKey
	if messageId == "" {
		messageId = uuid.NewString()
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	keyId, skip, err := BeginIdempotency(tx, "AdjustStock", messageId)
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "stockAdjustment.go", "AdjustStock", "BeginIdempotency", messageId, err)
		return nil, err
	}
	if skip {
		tx.Rollback()
		return models.GetItem(ctx, input.ItemId, input.BranchId)
	}

	var item models.Item
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ? AND branch_id = ?", input.ItemId, input.BranchId).
		First(&item).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	if models.CategoryRestricted(models.UserRole(role)) && item.Category != models.ItemCategoryFinalProduct {
		tx.Rollback()
		return nil, errors.New("role may only adjust final products")
	}

	var movementType models.MovementType
	switch input.Op {
	case models.AdjustOpSet:
		movementType = models.MovementTypeAdminSet
	case models.AdjustOpAdd:
		movementType = models.MovementTypeAdminIn
	default:
		movementType = models.MovementTypeAdminOut
		if item.CurrentStock.LessThan(input.Quantity) {
			tx.Rollback()
			return nil, models.ErrInsufficientStock
		}
	}

	result, err := models.ApplyStockDelta(tx, &models.StockDeltaInput{
		ItemId:        input.ItemId,
		BranchId:      input.BranchId,
		MovementType:  movementType,
		Quantity:      input.Quantity,
		Reference:     input.Reference,
		BatchNr:       input.BatchNr,
		InvoiceNr:     input.InvoiceNr,
		PoNr:          input.PoNr,
		UserId:        username,
		DateTime:      time.Now(),
		IdempotencyId: &keyId,
	})
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "stockAdjustment.go", "AdjustStock", "ApplyStockDelta", input, err)
		return nil, err
	}

	if err := MarkIdempotencySucceeded(tx, "AdjustStock", messageId); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "stockAdjustment.go", "AdjustStock", "Commit", input, err)
		return nil, err
	}

	config.StockMovementsTotal.WithLabelValues(string(movementType)).Inc()

	return result.Item, nil
}
