package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrNoRecipe                = errors.New("no bill of materials found for this product")
	ErrInsufficientIngredients = errors.New("insufficient ingredients")
)

// IngredientShortfall reports one insufficient recipe line.
type IngredientShortfall struct {
	IngredientId   string          `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Required       decimal.Decimal `json:"required"`
	Available      decimal.Decimal `json:"available"`
}

// InsufficientIngredientsError carries every shortfall, not just the first.
type InsufficientIngredientsError struct {
	Shortfalls []IngredientShortfall
}

func (e *InsufficientIngredientsError) Error() string {
	return ErrInsufficientIngredients.Error()
}

func (e *InsufficientIngredientsError) Unwrap() error {
	return ErrInsufficientIngredients
}

type StockDeltaInput struct {
	ItemId        string
	BranchId      int
	MovementType  MovementType
	Quantity      decimal.Decimal // unsigned magnitude; absolute target for ADMIN_SET
	Reference     string
	BatchNr       string
	InvoiceNr     string
	PoNr          string
	UserId        string
	DateTime      time.Time
	FromBranchId  *int
	ToBranchId    *int
	IdempotencyId *int
}

type StockDeltaResult struct {
	Item          *Item
	PreviousStock decimal.Decimal
	Movement      *StockMovement
}

// ApplyStockDelta is the atomic stock primitive: lock the item row,
// move current_stock by the movement type's signed quantity (or force it
// for ADMIN_SET), and append the matching ledger row — all inside the
// caller's transaction so both happen or neither does.
//
// Sufficiency is NOT checked here; the transfer and production workflows
// pre-validate under the same transaction before calling in.
func ApplyStockDelta(tx *gorm.DB, input *StockDeltaInput) (*StockDeltaResult, error) {

	if !input.MovementType.IsValid() {
		return nil, errors.New("invalid movement type")
	}
	if input.Quantity.IsNegative() {
		return nil, errors.New("quantity cannot be negative")
	}

	var item Item
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ? AND branch_id = ?", input.ItemId, input.BranchId).
		First(&item).Error
	if err != nil {
		return nil, err
	}

	previous := item.CurrentStock

	var newStock decimal.Decimal
	switch sign := input.MovementType.Sign(); sign {
	case 0: // ADMIN_SET
		newStock = input.Quantity
	case 1:
		newStock = previous.Add(input.Quantity)
	default:
		newStock = previous.Sub(input.Quantity)
	}

	err = tx.Model(&item).UpdateColumn("current_stock", newStock).Error
	if err != nil {
		return nil, err
	}
	item.CurrentStock = newStock

	reference := input.Reference
	if input.MovementType == MovementTypeAdminSet && reference == "" {
		// ADMIN_SET rows record the absolute value; the delta survives
		// in the reference text so the history stays interpretable.
		reference = fmt.Sprintf("SET from %s to %s", previous, newStock)
	}

	movement := StockMovement{
		ItemId:        input.ItemId,
		BranchId:      input.BranchId,
		MovementType:  input.MovementType,
		Quantity:      input.Quantity,
		Reference:     reference,
		BatchNr:       input.BatchNr,
		InvoiceNr:     input.InvoiceNr,
		PoNr:          input.PoNr,
		DateTime:      input.DateTime,
		UserId:        input.UserId,
		FromBranchId:  input.FromBranchId,
		ToBranchId:    input.ToBranchId,
		IdempotencyId: input.IdempotencyId,
	}
	if err := AppendMovement(tx, &movement); err != nil {
		return nil, err
	}

	return &StockDeltaResult{
		Item:          &item,
		PreviousStock: previous,
		Movement:      &movement,
	}, nil
}
