// seed-admin bootstraps an empty database: default users (one per role),
// the MAIN/CPT/DBN branches, the sample item catalog for MAIN and the
// LITHIUM BLACK recipes. Existing rows are left untouched.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/models"
	"bitbucket.org/flameblock/inventory_backend/utils"
	"github.com/shopspring/decimal"
)

type seedUser struct {
	username string
	password string
	role     models.UserRole
	fullName string
}

type seedBranch struct {
	code     string
	name     string
	location string
	manager  string
	contact  string
}

type seedItem struct {
	itemId       string
	name         string
	category     models.ItemCategory
	unit         string
	currentStock string
	minStock     string
}

type seedBomLine struct {
	finalProductId string
	ingredientId   string
	quantity       string
}

var defaultUsers = []seedUser{
	{"warehouse_manager", "manager123", models.UserRoleWarehouseManager, "Warehouse Manager"},
	{"boss", "boss123", models.UserRoleBoss, "Boss/Owner"},
	{"viewer", "viewer123", models.UserRoleViewer, "Branch Viewer"},
	{"admin", "admin123", models.UserRoleAdmin, "Stock Admin"},
}

var defaultBranches = []seedBranch{
	{"MAIN", "Main Warehouse", "Johannesburg", "Main Manager", "011-555-0100"},
	{"CPT", "Cape Town Branch", "Cape Town", "Cape Town Manager", "021-555-0100"},
	{"DBN", "Durban Branch", "Durban", "Durban Manager", "031-555-0100"},
}

var sampleItems = []seedItem{
	// Raw materials
	{"LIG001", "LIGNO", models.ItemCategoryRawMaterial, "kg", "300", "100"},
	{"KOH001", "KOH", models.ItemCategoryRawMaterial, "kg", "40", "50"},
	{"ETH001", "ETHYLENE GLYCOL", models.ItemCategoryRawMaterial, "kg", "64", "20"},
	{"FOR001", "FORMIC ACID", models.ItemCategoryRawMaterial, "kg", "678.5", "250"},
	{"BEN001", "BENTONITE CLAY", models.ItemCategoryRawMaterial, "kg", "40", "100"},

	// Pre-final components
	{"LIB001", "LITHIUM BLACK POWDER", models.ItemCategoryPreFinal, "kg", "2000", "500"},
	{"2LB001", "2L BOXES", models.ItemCategoryPreFinal, "pieces", "325", "50"},
	{"6LB001", "6L BOXES", models.ItemCategoryPreFinal, "pieces", "146", "50"},
	{"9LB001", "9L BOXES", models.ItemCategoryPreFinal, "pieces", "2", "50"},
	{"2LE001", "2L EMPTY EXTINGUISHERS", models.ItemCategoryPreFinal, "pieces", "9", "10"},

	// Final products
	{"LB9L001", "LITHIUM BLACK 9L", models.ItemCategoryFinalProduct, "pieces", "25", "20"},
	{"LB6L001", "LITHIUM BLACK 6L", models.ItemCategoryFinalProduct, "pieces", "35", "15"},
	{"LB2L001", "LITHIUM BLACK 2L", models.ItemCategoryFinalProduct, "pieces", "45", "10"},
	{"SH20001", "SHIELD 20KG", models.ItemCategoryFinalProduct, "pieces", "15", "5"},
	{"CT9L001", "CAPE TOWN 9L", models.ItemCategoryFinalProduct, "pieces", "12", "8"},
	{"PT9L001", "PINE TOWN 9L", models.ItemCategoryFinalProduct, "pieces", "18", "10"},
}

var sampleBom = []seedBomLine{
	{"LB9L001", "LIB001", "2.5"},
	{"LB9L001", "9LB001", "1"},

	{"LB6L001", "LIB001", "1.8"},
	{"LB6L001", "6LB001", "1"},

	{"LB2L001", "LIB001", "0.8"},
	{"LB2L001", "2LB001", "1"},
	{"LB2L001", "2LE001", "1"},
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx = utils.SetUsernameInContext(ctx, "system")

	// users
	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to count users: %v\n", err)
		os.Exit(1)
	}
	if userCount == 0 {
		for _, u := range defaultUsers {
			hashed, err := utils.HashPassword(u.password)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
				os.Exit(1)
			}
			user := models.User{
				Username: u.username,
				Password: string(hashed),
				Role:     u.role,
				FullName: u.fullName,
				IsActive: utils.NewTrue(),
			}
			if err := db.Create(&user).Error; err != nil {
				fmt.Fprintf(os.Stderr, "failed to create user %s: %v\n", u.username, err)
				os.Exit(1)
			}
		}
		fmt.Printf("created %d default users\n", len(defaultUsers))
	}

	// branches
	var branchCount int64
	if err := db.Model(&models.Branch{}).Count(&branchCount).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to count branches: %v\n", err)
		os.Exit(1)
	}
	if branchCount == 0 {
		for _, b := range defaultBranches {
			if _, err := models.CreateBranch(ctx, &models.NewBranch{
				Code:        b.code,
				Name:        b.name,
				Location:    b.location,
				ManagerName: b.manager,
				ContactInfo: b.contact,
			}); err != nil {
				fmt.Fprintf(os.Stderr, "failed to create branch %s: %v\n", b.code, err)
				os.Exit(1)
			}
		}
		fmt.Printf("created %d default branches\n", len(defaultBranches))
	}

	// sample catalog for MAIN
	var itemCount int64
	if err := db.Model(&models.Item{}).Count(&itemCount).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to count items: %v\n", err)
		os.Exit(1)
	}
	if itemCount > 0 {
		fmt.Println("items already present, skipping sample data")
		return
	}

	var mainBranch models.Branch
	if err := db.Where("code = ?", "MAIN").First(&mainBranch).Error; err != nil {
		fmt.Fprintln(os.Stderr, "MAIN branch not found, skipping sample data")
		return
	}

	for _, it := range sampleItems {
		stock, _ := decimal.NewFromString(it.currentStock)
		minStock, _ := decimal.NewFromString(it.minStock)
		if _, err := models.AddItem(ctx, &models.NewItem{
			ItemId:       it.itemId,
			BranchId:     mainBranch.ID,
			Name:         it.name,
			Category:     it.category,
			Unit:         it.unit,
			CurrentStock: stock,
			MinStock:     minStock,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create item %s: %v\n", it.itemId, err)
			os.Exit(1)
		}
	}
	fmt.Printf("created %d sample items in %s\n", len(sampleItems), mainBranch.Code)

	for _, line := range sampleBom {
		qty, _ := decimal.NewFromString(line.quantity)
		if _, err := models.UpsertRecipeLine(ctx, &models.NewRecipeLine{
			FinalProductId:   line.finalProductId,
			IngredientId:     line.ingredientId,
			BranchId:         mainBranch.ID,
			QuantityRequired: qty,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create recipe line %s/%s: %v\n", line.finalProductId, line.ingredientId, err)
			os.Exit(1)
		}
	}
	fmt.Printf("created %d recipe lines\n", len(sampleBom))
}
