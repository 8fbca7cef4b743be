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
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransferInput struct {
	ItemId         string          `json:"item_id" binding:"required"`
	FromBranchId   int             `json:"from_branch_id" binding:"required"`
	ToBranchId     int             `json:"to_branch_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Reference      string          `json:"reference"`
	BatchNr        string          `json:"batch_nr"`
	InvoiceNr      string          `json:"invoice_nr"`
	PoNr           string          `json:"po_nr"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type TransferResult struct {
	Message     string       `json:"message"`
	SourceItem  *models.Item `json:"source_item"`
	DestItem    *models.Item `json:"dest_item"`
	TransferOut int          `json:"transfer_out_movement_id"`
	TransferIn  int          `json:"transfer_in_movement_id"`
}

// TransferStock debits the source branch, creates the destination item
// row if missing, credits the destination branch, and appends a paired
// TRANSFER_OUT/TRANSFER_IN ledger entry sharing the same timestamp,
// metadata and from/to branch ids — all in one transaction, so the
// conservation law (total stock across branches unchanged) holds even
// when a step faults.
func TransferStock(ctx context.Context, input *TransferInput) (*TransferResult, error) {

	logger := config.GetLogger()

	if input.FromBranchId == input.ToBranchId {
		return nil, fmt.Errorf("%w: source and destination branch are identical", models.ErrValidation)
	}
	if !input.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
	}

	role, _ := utils.GetRoleFromContext(ctx)
	username, _ := utils.GetUsernameFromContext(ctx)
	if username == "" {
		username = "system"
	}

	// best-effort cross-instance serialization per source branch;
	// row locks below are the correctness guarantee
	release, err := utils.BranchLock(ctx, input.FromBranchId, "transfer", "transferWorkflow.go", "TransferStock")
	if err != nil {
		return nil, err
	}
	defer release()

	messageId := input.IdempotencyKey
	if messageId == "" {
		messageId = uuid.NewString()
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	keyId, skip, err := BeginIdempotency(tx, "TransferStock", messageId)
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "transferWorkflow.go", "TransferStock", "BeginIdempotency", messageId, err)
		return nil, err
	}
	if skip {
		tx.Rollback()
		return &TransferResult{Message: "transfer already applied"}, nil
	}

	// lock both item rows in ascending branch order so opposing
	// transfers of the same item cannot deadlock each other
	lockItemRow := func(branchId int) (*models.Item, error) {
		var row models.Item
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("item_id = ? AND branch_id = ?", input.ItemId, branchId).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &row, nil
	}

	branchOrder := []int{input.FromBranchId, input.ToBranchId}
	if branchOrder[1] < branchOrder[0] {
		branchOrder[0], branchOrder[1] = branchOrder[1], branchOrder[0]
	}
	lockedRows := make(map[int]*models.Item, 2)
	for _, branchId := range branchOrder {
		row, err := lockItemRow(branchId)
		if err != nil {
			tx.Rollback()
			config.LogError(logger, "transferWorkflow.go", "TransferStock", "LockItemRow", branchId, err)
			return nil, err
		}
		lockedRows[branchId] = row
	}

	sourceRow := lockedRows[input.FromBranchId]
	if sourceRow == nil {
		tx.Rollback()
		return nil, models.ErrInsufficientStock
	}
	source := *sourceRow
	if source.CurrentStock.LessThan(input.Quantity) {
		tx.Rollback()
		config.TransfersTotal.WithLabelValues("insufficient_stock").Inc()
		return nil, models.ErrInsufficientStock
	}

	if models.CategoryRestricted(models.UserRole(role)) && source.Category != models.ItemCategoryFinalProduct {
		tx.Rollback()
		return nil, errors.New("role may only transfer final products")
	}

	// create the destination row on first arrival, zero stock,
	// copying the descriptive fields from the source row
	if lockedRows[input.ToBranchId] == nil {
		dest := models.Item{
			ItemId:        source.ItemId,
			BranchId:      input.ToBranchId,
			Name:          source.Name,
			Category:      source.Category,
			Unit:          source.Unit,
			CurrentStock:  decimal.Zero,
			MinStock:      source.MinStock,
			CostPerUnit:   source.CostPerUnit,
			Location:      source.Location,
			WarehouseArea: source.WarehouseArea,
			IsActive:      utils.NewTrue(),
			CreatedBy:     username,
		}
		if err := tx.Create(&dest).Error; err != nil {
			tx.Rollback()
			config.LogError(logger, "transferWorkflow.go", "TransferStock", "CreateDestinationItem", dest, err)
			return nil, err
		}
	}

	timestamp := time.Now()
	fromBranchId := input.FromBranchId
	toBranchId := input.ToBranchId

	outResult, err := models.ApplyStockDelta(tx, &models.StockDeltaInput{
		ItemId:        input.ItemId,
		BranchId:      input.FromBranchId,
		MovementType:  models.MovementTypeTransferOut,
		Quantity:      input.Quantity,
		Reference:     input.Reference,
		BatchNr:       input.BatchNr,
		InvoiceNr:     input.InvoiceNr,
		PoNr:          input.PoNr,
		UserId:        username,
		DateTime:      timestamp,
		FromBranchId:  &fromBranchId,
		ToBranchId:    &toBranchId,
		IdempotencyId: &keyId,
	})
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "transferWorkflow.go", "TransferStock", "ApplyStockDelta > TRANSFER_OUT", input, err)
		return nil, err
	}

	inResult, err := models.ApplyStockDelta(tx, &models.StockDeltaInput{
		ItemId:        input.ItemId,
		BranchId:      input.ToBranchId,
		MovementType:  models.MovementTypeTransferIn,
		Quantity:      input.Quantity,
		Reference:     input.Reference,
		BatchNr:       input.BatchNr,
		InvoiceNr:     input.InvoiceNr,
		PoNr:          input.PoNr,
		UserId:        username,
		DateTime:      timestamp,
		FromBranchId:  &fromBranchId,
		ToBranchId:    &toBranchId,
		IdempotencyId: &keyId,
	})
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "transferWorkflow.go", "TransferStock", "ApplyStockDelta > TRANSFER_IN", input, err)
		return nil, err
	}

	if err := MarkIdempotencySucceeded(tx, "TransferStock", messageId); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "transferWorkflow.go", "TransferStock", "Commit", input, err)
		return nil, err
	}

	config.TransfersTotal.WithLabelValues("success").Inc()
	config.StockMovementsTotal.WithLabelValues(string(models.MovementTypeTransferOut)).Inc()
	config.StockMovementsTotal.WithLabelValues(string(models.MovementTypeTransferIn)).Inc()

	return &TransferResult{
		Message:     fmt.Sprintf("Successfully transferred %s %s", input.Quantity, source.Unit),
		SourceItem:  outResult.Item,
		DestItem:    inResult.Item,
		TransferOut: outResult.Movement.ID,
		TransferIn:  inResult.Movement.ID,
	}, nil
}
