package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// BOMEntry is one recipe line: producing one unit of the final product
// consumes QuantityRequired of the ingredient, scoped to a branch so
// branches may carry different recipes for the same product id.
type BOMEntry struct {
	ID               int             `gorm:"primary_key" json:"id"`
	FinalProductId   string          `gorm:"size:50;not null;index:uniq_bom,unique" json:"final_product_id"`
	IngredientId     string          `gorm:"size:50;not null;index:uniq_bom,unique" json:"ingredient_id"`
	BranchId         int             `gorm:"not null;index:uniq_bom,unique" json:"branch_id"`
	QuantityRequired decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_required"`
	CreatedBy        string          `gorm:"size:100" json:"created_by"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// RecipeLine is a BOM entry joined with the ingredient's live stock.
type RecipeLine struct {
	BOMEntry
	IngredientName string          `json:"ingredient_name"`
	IngredientUnit string          `json:"ingredient_unit"`
	AvailableStock decimal.Decimal `json:"available_stock"`
}

type NewRecipeLine struct {
	FinalProductId   string          `json:"final_product_id" binding:"required"`
	IngredientId     string          `json:"ingredient_id" binding:"required"`
	BranchId         int             `json:"branch_id" binding:"required"`
	QuantityRequired decimal.Decimal `json:"quantity_required" binding:"required"`
}

func GetRecipe(ctx context.Context, finalProductId string, branchId int) ([]*RecipeLine, error) {

	db := config.GetDB()
	var results []*RecipeLine

	err := db.WithContext(ctx).Model(&BOMEntry{}).
		Select("bom_entries.*, items.name AS ingredient_name, items.unit AS ingredient_unit, items.current_stock AS available_stock").
		Joins("JOIN items ON items.item_id = bom_entries.ingredient_id AND items.branch_id = bom_entries.branch_id").
		Where("bom_entries.final_product_id = ? AND bom_entries.branch_id = ?", finalProductId, branchId).
		Order("bom_entries.ingredient_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpsertRecipeLine is last-write-wins per (product, ingredient, branch).
// A zero or negative quantity is a data error rejected here, at write
// time, so reads never have to defend against it.
func UpsertRecipeLine(ctx context.Context, input *NewRecipeLine) (*BOMEntry, error) {

	if !input.QuantityRequired.IsPositive() {
		return nil, errors.New("quantity required must be positive")
	}
	if input.FinalProductId == input.IngredientId {
		return nil, errors.New("product cannot be its own ingredient")
	}
	if _, err := GetItem(ctx, input.FinalProductId, input.BranchId); err != nil {
		return nil, errors.New("final product not found in branch")
	}
	if _, err := GetItem(ctx, input.IngredientId, input.BranchId); err != nil {
		return nil, errors.New("ingredient not found in branch")
	}

	username, _ := utils.GetUsernameFromContext(ctx)
	if username == "" {
		username = "system"
	}

	entry := BOMEntry{
		FinalProductId:   input.FinalProductId,
		IngredientId:     input.IngredientId,
		BranchId:         input.BranchId,
		QuantityRequired: input.QuantityRequired,
		CreatedBy:        username,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "final_product_id"}, {Name: "ingredient_id"}, {Name: "branch_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity_required", "created_by", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func DeleteRecipeLine(ctx context.Context, finalProductId string, ingredientId string, branchId int) error {

	db := config.GetDB()
	result := db.WithContext(ctx).
		Where("final_product_id = ? AND ingredient_id = ? AND branch_id = ?", finalProductId, ingredientId, branchId).
		Delete(&BOMEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// MaxProducibleResult reports how many whole units can be produced right
// now and which ingredient runs out first.
type MaxProducibleResult struct {
	Units              int64  `json:"units"`
	LimitingIngredient string `json:"limiting_ingredient"`
}

func MaxProducible(ctx context.Context, finalProductId string, branchId int) (*MaxProducibleResult, error) {

	recipe, err := GetRecipe(ctx, finalProductId, branchId)
	if err != nil {
		return nil, err
	}
	if len(recipe) == 0 {
		return nil, ErrNoRecipe
	}

	return maxProducibleFromRecipe(recipe), nil
}

func maxProducibleFromRecipe(recipe []*RecipeLine) *MaxProducibleResult {
	result := MaxProducibleResult{Units: -1}
	for _, line := range recipe {
		units := line.AvailableStock.Div(line.QuantityRequired).Floor().IntPart()
		if units < 0 {
			units = 0
		}
		if result.Units < 0 || units < result.Units {
			result.Units = units
			result.LimitingIngredient = line.IngredientId
		}
	}
	if result.Units < 0 {
		result.Units = 0
	}
	return &result
}
