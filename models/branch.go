package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/utils"
)

type Branch struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Code        string    `gorm:"size:20;not null;unique" json:"code" binding:"required"`
	Name        string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Location    string    `gorm:"size:100" json:"location"`
	ManagerName string    `gorm:"size:100" json:"manager_name"`
	ContactInfo string    `gorm:"size:100" json:"contact_info"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBranch struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Location    string `json:"location"`
	ManagerName string `json:"manager_name"`
	ContactInfo string `json:"contact_info"`
}

/*
caches:
	BranchList
*/

func removeBranchListRedis() {
	_ = config.RemoveRedisKey("BranchList")
}

// validate input for both create & update. (id = 0 for create)
func (input *NewBranch) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Branch](ctx, id); err != nil {
			return err
		}
	}
	// code
	if err := utils.ValidateUnique[Branch](ctx, "code", input.Code, id); err != nil {
		return err
	}
	// name
	if err := utils.ValidateUnique[Branch](ctx, "name", input.Name, id); err != nil {
		return err
	}
	// contact info doubles as a phone number when it looks like one
	contact := strings.TrimSpace(input.ContactInfo)
	if len(contact) > 0 && strings.IndexFunc(contact, func(r rune) bool {
		return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
	}) < 0 {
		if err := utils.ValidatePhoneNumber(contact, utils.CountryCode); err != nil {
			return errors.New("contact info is not a valid phone number")
		}
	}
	return nil
}

func CreateBranch(ctx context.Context, input *NewBranch) (*Branch, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	branch := Branch{
		Code:        strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:        input.Name,
		Location:    input.Location,
		ManagerName: input.ManagerName,
		ContactInfo: input.ContactInfo,
		IsActive:    utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&branch).Error
	if err != nil {
		return nil, err
	}

	removeBranchListRedis()

	return &branch, nil
}

func UpdateBranch(ctx context.Context, id int, input *NewBranch) (*Branch, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	branch, err := utils.FetchSingleModel[Branch](ctx, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&branch).Updates(map[string]interface{}{
		"Code":        strings.ToUpper(strings.TrimSpace(input.Code)),
		"Name":        input.Name,
		"Location":    input.Location,
		"ManagerName": input.ManagerName,
		"ContactInfo": input.ContactInfo,
	}).Error
	if err != nil {
		return nil, err
	}

	removeBranchListRedis()

	return branch, nil
}

func GetBranch(ctx context.Context, id int) (*Branch, error) {
	return utils.FetchSingleModel[Branch](ctx, id)
}

func GetBranches(ctx context.Context, activeOnly bool) ([]*Branch, error) {

	db := config.GetDB()
	var results []*Branch

	if activeOnly {
		// the active list is hot (every page loads it), cache it
		exists, err := config.GetRedisObject("BranchList", &results)
		if err == nil && exists {
			return results, nil
		}
	}

	dbCtx := db.WithContext(ctx)
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}

	if activeOnly {
		_ = config.SetRedisObject("BranchList", results, 10*time.Minute)
	}
	return results, nil
}

// Branches are never hard-deleted: items and ledger rows reference them.
func ToggleActiveBranch(ctx context.Context, id int, isActive bool) (*Branch, error) {

	branch, err := utils.FetchSingleModel[Branch](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&branch).UpdateColumn("IsActive", isActive).Error
	if err != nil {
		return nil, err
	}

	removeBranchListRedis()

	return branch, nil
}
