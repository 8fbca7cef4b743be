// movements-dedup collapses historical duplicate ledger rows down to the
// earliest-inserted copy. New writes are deduplicated at write time via
// idempotency keys; this tool repairs data from before that existed.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/movements-dedup
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/models"
)

func main() {
	dryRun := flag.Bool("dry-run", true, "Count duplicates only (no writes)")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if *dryRun {
		var count int64
		err := db.WithContext(ctx).Raw(`
			SELECT COUNT(*) FROM stock_movements
			WHERE id NOT IN (
				SELECT keep_id FROM (
					SELECT MIN(id) AS keep_id
					FROM stock_movements
					GROUP BY item_id, branch_id, movement_type, quantity, date_time, user_id, from_branch_id, to_branch_id
				) keepers
			)`).Scan(&count).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to count duplicates: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d duplicate movements (dry run, use -dry-run=false to delete)\n", count)
		return
	}

	removed, err := models.DeduplicateMovements(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deduplication failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("removed %d duplicate movements\n", removed)
}
