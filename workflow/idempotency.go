package workflow

import (
	"errors"
	"time"

	"bitbucket.org/flameblock/inventory_backend/models"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrIdempotencyInProgress = errors.New("idempotency in progress")

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// BeginIdempotency inserts STARTED. If SUCCEEDED exists, returns (0, true, nil)
// meaning "skip safely": the caller already applied this mutation.
// The returned key id is stamped onto the ledger rows the handler writes.
func BeginIdempotency(tx *gorm.DB, handlerName, messageId string) (keyId int, skip bool, err error) {
	key := models.IdempotencyKey{
		HandlerName: handlerName,
		MessageId:   messageId,
		Status:      models.IdempotencyStatusStarted,
	}
	if err := tx.Create(&key).Error; err == nil {
		return key.ID, false, nil
	} else if !isDuplicateKeyErr(err) {
		return 0, false, err
	}

	var existing models.IdempotencyKey
	if err := tx.Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		First(&existing).Error; err != nil {
		return 0, false, err
	}

	switch existing.Status {
	case models.IdempotencyStatusSucceeded:
		return existing.ID, true, nil
	case models.IdempotencyStatusStarted:
		// Another request is currently processing; tell the caller to retry
		// later. A stale STARTED row is reclaimed.
		if time.Since(existing.UpdatedAt) < 5*time.Minute {
			return 0, false, ErrIdempotencyInProgress
		}
		fallthrough
	default:
		return existing.ID, false, tx.Model(&models.IdempotencyKey{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{"status": models.IdempotencyStatusStarted, "last_error": nil}).Error
	}
}

func MarkIdempotencySucceeded(tx *gorm.DB, handlerName, messageId string) error {
	return tx.Model(&models.IdempotencyKey{}).
		Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusSucceeded, "last_error": nil}).Error
}

func MarkIdempotencyFailed(db *gorm.DB, handlerName, messageId string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return db.Model(&models.IdempotencyKey{}).
		Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusFailed, "last_error": &msg}).Error
}
