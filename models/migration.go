package models

import (
	"log"

	"bitbucket.org/flameblock/inventory_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Branch{},
		&Item{},
		&BOMEntry{},
		&StockMovement{},
		&User{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
