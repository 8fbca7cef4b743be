// inventory-rebuild replays the movement ledger into current_stock for
// every item of a branch (or all branches), correcting drift between the
// cached counter and the ledger.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/inventory-rebuild -branch-id=1
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/models"
	"bitbucket.org/flameblock/inventory_backend/workflow"
)

func main() {
	branchId := flag.Int("branch-id", 0, "Branch to rebuild (0 = all branches)")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var branchIds []int
	if *branchId > 0 {
		branchIds = []int{*branchId}
	} else {
		var branches []*models.Branch
		if err := db.WithContext(ctx).Select("id").Find(&branches).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to list branches: %v\n", err)
			os.Exit(1)
		}
		for _, b := range branches {
			branchIds = append(branchIds, b.ID)
		}
	}

	for _, id := range branchIds {
		result, err := workflow.RebuildBranchStock(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rebuild failed for branch %d: %v\n", id, err)
			os.Exit(1)
		}
		fmt.Printf("branch %d: %d items replayed, %d corrected\n", result.BranchId, result.ItemsRebuilt, result.ItemsCorrected)
	}
}
