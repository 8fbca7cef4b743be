package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/models"
	"bitbucket.org/flameblock/inventory_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

type ProduceInput struct {
	FinalProductId string          `json:"final_product_id" binding:"required"`
	BranchId       int             `json:"branch_id" binding:"required"`
	Units          decimal.Decimal `json:"units" binding:"required"`
	Reference      string          `json:"reference"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type ProduceResult struct {
	Message       string          `json:"message"`
	ProducedUnits decimal.Decimal `json:"produced_units"`
	FinalProduct  *models.Item    `json:"final_product"`
}

// Produce converts ingredient stock into final-product stock per the
// branch's recipe, all-or-nothing: every shortfall is collected before
// failing, and a failure changes no stock.
func Produce(ctx context.Context, input *ProduceInput) (*ProduceResult, error) {

	logger := config.GetLogger()

	if !input.Units.IsPositive() {
		return nil, fmt.Errorf("%w: units must be positive", models.ErrValidation)
	}

	username, _ := utils.GetUsernameFromContext(ctx)
	if username == "" {
		username = "system"
	}

	release, err := utils.BranchLock(ctx, input.BranchId, "production", "productionWorkflow.go", "Produce")
	if err != nil {
		return nil, err
	}
	defer release()

	messageId := input.IdempotencyKey
	if messageId == "" {
		messageId = uuid.NewString()
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	keyId, skip, err := BeginIdempotency(tx, "Produce", messageId)
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "productionWorkflow.go", "Produce", "BeginIdempotency", messageId, err)
		return nil, err
	}
	if skip {
		tx.Rollback()
		return &ProduceResult{Message: "production already applied", ProducedUnits: input.Units}, nil
	}

	var recipe []*models.BOMEntry
	err = tx.Where("final_product_id = ? AND branch_id = ?", input.FinalProductId, input.BranchId).
		Order("ingredient_id").
		Find(&recipe).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(recipe) == 0 {
		tx.Rollback()
		return nil, models.ErrNoRecipe
	}

	// lock every ingredient row up front, in recipe order, then
	// collect ALL shortfalls before deciding
	var shortfalls []models.IngredientShortfall
	ingredients := make(map[string]*models.Item, len(recipe))
	for _, line := range recipe {
		var ingredient models.Item
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("item_id = ? AND branch_id = ?", line.IngredientId, input.BranchId).
			First(&ingredient).Error
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("ingredient %s not found in branch", line.IngredientId)
		}
		ingredients[line.IngredientId] = &ingredient

		required := line.QuantityRequired.Mul(input.Units)
		if ingredient.CurrentStock.LessThan(required) {
			shortfalls = append(shortfalls, models.IngredientShortfall{
				IngredientId:   line.IngredientId,
				IngredientName: ingredient.Name,
				Required:       required,
				Available:      ingredient.CurrentStock,
			})
		}
	}
	if len(shortfalls) > 0 {
		tx.Rollback()
		config.ProductionRunsTotal.WithLabelValues("insufficient_ingredients").Inc()
		return nil, &models.InsufficientIngredientsError{Shortfalls: shortfalls}
	}

	timestamp := time.Now()
	reference := input.Reference
	if reference == "" {
		reference = fmt.Sprintf("Production of %s x %s", input.Units, input.FinalProductId)
	}

	for _, line := range recipe {
		required := line.QuantityRequired.Mul(input.Units)
		_, err := models.ApplyStockDelta(tx, &models.StockDeltaInput{
			ItemId:        line.IngredientId,
			BranchId:      input.BranchId,
			MovementType:  models.MovementTypeOut,
			Quantity:      required,
			Reference:     reference,
			UserId:        username,
			DateTime:      timestamp,
			IdempotencyId: &keyId,
		})
		if err != nil {
			tx.Rollback()
			config.LogError(logger, "productionWorkflow.go", "Produce", "ApplyStockDelta > ingredient OUT", line.IngredientId, err)
			return nil, err
		}
	}

	creditResult, err := models.ApplyStockDelta(tx, &models.StockDeltaInput{
		ItemId:        input.FinalProductId,
		BranchId:      input.BranchId,
		MovementType:  models.MovementTypeProduction,
		Quantity:      input.Units,
		Reference:     fmt.Sprintf("Produced %s units", input.Units),
		UserId:        username,
		DateTime:      timestamp,
		IdempotencyId: &keyId,
	})
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "productionWorkflow.go", "Produce", "ApplyStockDelta > PRODUCTION", input, err)
		return nil, err
	}

	if err := MarkIdempotencySucceeded(tx, "Produce", messageId); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "productionWorkflow.go", "Produce", "Commit", input, err)
		return nil, err
	}

	config.ProductionRunsTotal.WithLabelValues("success").Inc()
	config.StockMovementsTotal.WithLabelValues(string(models.MovementTypeProduction)).Inc()

	return &ProduceResult{
		Message:       fmt.Sprintf("Successfully produced %s units", input.Units),
		ProducedUnits: input.Units,
		FinalProduct:  creditResult.Item,
	}, nil
}

// ProduceWithoutRecipe credits the final product with no ingredient
// deductions. Deliberately permissive: it exists for products that are
// bought in finished or assembled off-book, and is manager-only.
func ProduceWithoutRecipe(ctx context.Context, input *ProduceInput) (*ProduceResult, error) {

	logger := config.GetLogger()

	if !input.Units.IsPositive() {
		return nil, fmt.Errorf("%w: units must be positive", models.ErrValidation)
	}

	username, _ := utils.GetUsernameFromContext(ctx)
	if username == "" {
		username = "system"
	}

	messageId := input.IdempotencyKey
	if messageId == "" {
		messageId = uuid.NewString()
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	keyId, skip, err := BeginIdempotency(tx, "ProduceWithoutRecipe", messageId)
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "productionWorkflow.go", "ProduceWithoutRecipe", "BeginIdempotency", messageId, err)
		return nil, err
	}
	if skip {
		tx.Rollback()
		return &ProduceResult{Message: "production already applied", ProducedUnits: input.Units}, nil
	}

	reference := input.Reference
	if reference == "" {
		reference = fmt.Sprintf("Produced %s units (no recipe)", input.Units)
	}

	creditResult, err := models.ApplyStockDelta(tx, &models.StockDeltaInput{
		ItemId:        input.FinalProductId,
		BranchId:      input.BranchId,
		MovementType:  models.MovementTypeProduction,
		Quantity:      input.Units,
		Reference:     reference,
		UserId:        username,
		DateTime:      time.Now(),
		IdempotencyId: &keyId,
	})
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "productionWorkflow.go", "ProduceWithoutRecipe", "ApplyStockDelta > PRODUCTION", input, err)
		return nil, err
	}

	if err := MarkIdempotencySucceeded(tx, "ProduceWithoutRecipe", messageId); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	config.ProductionRunsTotal.WithLabelValues("no_recipe").Inc()
	config.StockMovementsTotal.WithLabelValues(string(models.MovementTypeProduction)).Inc()

	return &ProduceResult{
		Message:       fmt.Sprintf("Successfully produced %s units", input.Units),
		ProducedUnits: input.Units,
		FinalProduct:  creditResult.Item,
	}, nil
}
