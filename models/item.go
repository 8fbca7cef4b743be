package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// Item identity is (ItemId, BranchId): the same logical product is a
// separate row per branch, each with its own stock level.
type Item struct {
	ItemId        string          `gorm:"column:item_id;primaryKey;size:50" json:"item_id"`
	BranchId      int             `gorm:"primaryKey" json:"branch_id"`
	Name          string          `gorm:"size:100;not null;index" json:"name"`
	Category      ItemCategory    `gorm:"size:20;not null;index" json:"category"`
	Unit          string          `gorm:"size:20;not null" json:"unit"`
	CurrentStock  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"current_stock"`
	MinStock      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"min_stock"`
	CostPerUnit   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cost_per_unit"`
	Location      string          `gorm:"size:100;default:'Main'" json:"location"`
	WarehouseArea string          `gorm:"size:100;default:'General'" json:"warehouse_area"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedBy     string          `gorm:"size:100" json:"created_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItem struct {
	ItemId        string          `json:"item_id" binding:"required"`
	BranchId      int             `json:"branch_id" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	Category      ItemCategory    `json:"category" binding:"required"`
	Unit          string          `json:"unit" binding:"required"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinStock      decimal.Decimal `json:"min_stock"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	Location      string          `json:"location"`
	WarehouseArea string          `json:"warehouse_area"`
}

type ItemFilter struct {
	BranchId   *int
	Category   *ItemCategory
	ActiveOnly bool
}

// GetItems narrows by role: viewers only ever see final products.
// This is a data-visibility rule, the permission gate still guards mutation.
func GetItems(ctx context.Context, role UserRole, filter ItemFilter) ([]*Item, error) {

	db := config.GetDB()
	var results []*Item

	dbCtx := db.WithContext(ctx).Model(&Item{})
	if role == UserRoleViewer {
		dbCtx = dbCtx.Where("category = ?", ItemCategoryFinalProduct)
	} else if filter.Category != nil {
		dbCtx = dbCtx.Where("category = ?", *filter.Category)
	}
	if filter.BranchId != nil {
		dbCtx = dbCtx.Where("branch_id = ?", *filter.BranchId)
	}
	if filter.ActiveOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}

	err := dbCtx.Order("branch_id, category, name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetItem(ctx context.Context, itemId string, branchId int) (*Item, error) {

	db := config.GetDB()
	var result Item
	err := db.WithContext(ctx).
		Where("item_id = ? AND branch_id = ?", itemId, branchId).
		First(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func (input *NewItem) validate(ctx context.Context) error {
	if !input.Category.IsValid() {
		return errors.New("invalid item category")
	}
	if input.CurrentStock.IsNegative() || input.MinStock.IsNegative() || input.CostPerUnit.IsNegative() {
		return errors.New("stock quantities cannot be negative")
	}
	if err := utils.ValidateResourceId[Branch](ctx, input.BranchId); err != nil {
		return errors.New("branch not found")
	}
	return nil
}

// AddItem is insert-or-replace by (item_id, branch_id): re-adding an
// existing pair overwrites the row, including its stock level. The opening
// level is recorded as an ADMIN_SET baseline movement in the same
// transaction — unconditionally, zero included — so the ledger replays to
// exactly current_stock whether the row is fresh or replaced over old
// history.
func AddItem(ctx context.Context, input *NewItem) (*Item, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	username, _ := utils.GetUsernameFromContext(ctx)
	if username == "" {
		username = "system"
	}

	item := Item{
		ItemId:        strings.TrimSpace(input.ItemId),
		BranchId:      input.BranchId,
		Name:          input.Name,
		Category:      input.Category,
		Unit:          input.Unit,
		CurrentStock:  input.CurrentStock,
		MinStock:      input.MinStock,
		CostPerUnit:   input.CostPerUnit,
		Location:      input.Location,
		WarehouseArea: input.WarehouseArea,
		IsActive:      utils.NewTrue(),
		CreatedBy:     username,
	}
	if item.Location == "" {
		item.Location = "Main"
	}
	if item.WarehouseArea == "" {
		item.WarehouseArea = "General"
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}, {Name: "branch_id"}},
		UpdateAll: true,
	}).Create(&item).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	movement := StockMovement{
		ItemId:       item.ItemId,
		BranchId:     item.BranchId,
		MovementType: MovementTypeAdminSet,
		Quantity:     item.CurrentStock,
		Reference:    "Opening stock",
		DateTime:     time.Now(),
		UserId:       username,
	}
	if err := AppendMovement(tx, &movement); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &item, nil
}

// DeleteItem deactivates the row. The ledger history stays intact;
// PurgeItem is the destructive path.
func DeleteItem(ctx context.Context, itemId string, branchId int) (*Item, error) {

	item, err := GetItem(ctx, itemId, branchId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&item).UpdateColumn("IsActive", false).Error
	if err != nil {
		return nil, err
	}
	return item, nil
}

// PurgeItem removes the item row AND its ledger rows. Manager-only,
// meant for rows created by mistake, not for retiring real items.
func PurgeItem(ctx context.Context, itemId string, branchId int) error {

	item, err := GetItem(ctx, itemId, branchId)
	if err != nil {
		return err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Where("item_id = ? AND branch_id = ?", itemId, branchId).
		Delete(&StockMovement{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("(final_product_id = ? OR ingredient_id = ?) AND branch_id = ?", itemId, itemId, branchId).
		Delete(&BOMEntry{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("item_id = ? AND branch_id = ?", itemId, branchId).
		Delete(&item).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
