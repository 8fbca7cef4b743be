package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireStockLock serializes mutations per (item, branch) across instances
// using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB (transaction) that will do the stock mutation.
func AcquireStockLock(tx *gorm.DB, itemId string, branchId int) error {
	lockName := fmt.Sprintf("stock:%s:%d", itemId, branchId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire stock lock for item_id=%s branch_id=%d", itemId, branchId)
	}
	return nil
}

func ReleaseStockLock(tx *gorm.DB, itemId string, branchId int) {
	lockName := fmt.Sprintf("stock:%s:%d", itemId, branchId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
