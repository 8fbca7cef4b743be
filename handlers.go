package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/flameblock/inventory_backend/models"
	"bitbucket.org/flameblock/inventory_backend/utils"
	"bitbucket.org/flameblock/inventory_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const requestTimeout = 30 * time.Second

func requestCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func actingRole(c *gin.Context) (models.UserRole, bool) {
	role, ok := utils.GetRoleFromContext(c.Request.Context())
	if !ok || role == "" {
		return "", false
	}
	return models.UserRole(role), true
}

// requireOp answers whether the request may proceed; it writes the
// refusal response itself when not.
func requireOp(c *gin.Context, op models.Operation) (models.UserRole, bool) {
	role, ok := actingRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", false
	}
	if !models.CanPerform(role, op) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return role, false
	}
	return role, true
}

func respondError(c *gin.Context, err error) {
	var insufficient *models.InsufficientIngredientsError
	var validationErrors validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrors):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientStock):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "insufficient ingredients",
			"shortfalls": insufficient.Shortfalls,
		})
	case errors.Is(err, models.ErrNoRecipe):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrIdempotencyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func registerRoutes(r *gin.Engine) {

	// auth
	r.POST("/auth/login", loginHandler)
	r.POST("/auth/logout", logoutHandler)
	r.POST("/auth/change-password", changePasswordHandler)

	// catalog
	r.GET("/branches", listBranchesHandler)
	r.POST("/branches", createBranchHandler)
	r.PUT("/branches/:id", updateBranchHandler)
	r.POST("/branches/:id/toggle-active", toggleActiveBranchHandler)
	r.GET("/items", listItemsHandler)
	r.POST("/items", addItemHandler)
	r.DELETE("/items/:branchId/:itemId", deleteItemHandler)
	r.DELETE("/items/:branchId/:itemId/purge", purgeItemHandler)

	// ledger
	r.GET("/movements", listMovementsHandler)
	r.POST("/movements/deduplicate", deduplicateMovementsHandler)

	// stock mutation
	r.POST("/stock/adjust", adjustStockHandler)
	r.POST("/stock/transfer", transferStockHandler)
	r.POST("/stock/rebuild/:branchId", rebuildStockHandler)

	// BOM / production
	r.GET("/recipes/:branchId/:productId", getRecipeHandler)
	r.GET("/recipes/:branchId/:productId/max-producible", maxProducibleHandler)
	r.POST("/recipes", upsertRecipeLineHandler)
	r.DELETE("/recipes/:branchId/:productId/:ingredientId", deleteRecipeLineHandler)
	r.POST("/production", produceHandler)
	r.POST("/production/no-recipe", produceWithoutRecipeHandler)

	// users
	r.GET("/users", listUsersHandler)
	r.POST("/users", createUserHandler)
	r.PUT("/users/:id", updateUserHandler)
	r.DELETE("/users/:id", deleteUserHandler)
}

/* auth */

func loginHandler(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	info, err := models.Login(ctx, input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func logoutHandler(c *gin.Context) {
	ctx, cancel := requestCtx(c)
	defer cancel()

	ok, err := models.Logout(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func changePasswordHandler(c *gin.Context) {
	var input struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := models.ChangePassword(ctx, input.OldPassword, input.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

/* catalog */

func listBranchesHandler(c *gin.Context) {
	ctx, cancel := requestCtx(c)
	defer cancel()

	activeOnly := c.DefaultQuery("active", "1") != "0"
	branches, err := models.GetBranches(ctx, activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

func createBranchHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageBranches); !ok {
		return
	}
	var input models.NewBranch
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	branch, err := models.CreateBranch(ctx, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

func updateBranchHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageBranches); !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
		return
	}
	var input models.NewBranch
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	branch, err := models.UpdateBranch(ctx, id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

func toggleActiveBranchHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageBranches); !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
		return
	}
	var input struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	branch, err := models.ToggleActiveBranch(ctx, id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

func listItemsHandler(c *gin.Context) {
	role, ok := actingRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if !models.CanPerform(role, models.OpViewFinalProducts) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	var filter models.ItemFilter
	if v := c.Query("branch_id"); v != "" {
		branchId, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
			return
		}
		filter.BranchId = &branchId
	}
	if v := c.Query("category"); v != "" {
		category := models.ItemCategory(v)
		if !category.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		filter.Category = &category
	}
	filter.ActiveOnly = c.DefaultQuery("active", "1") != "0"

	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := models.GetItems(ctx, role, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func addItemHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageItems); !ok {
		return
	}
	var input models.NewItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	item, err := models.AddItem(ctx, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func deleteItemHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageItems); !ok {
		return
	}
	branchId, err := strconv.Atoi(c.Param("branchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	item, err := models.DeleteItem(ctx, c.Param("itemId"), branchId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func purgeItemHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageItems); !ok {
		return
	}
	branchId, err := strconv.Atoi(c.Param("branchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := models.PurgeItem(ctx, c.Param("itemId"), branchId); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* ledger */

func listMovementsHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpViewMovements); !ok {
		return
	}

	var filter models.MovementFilter
	if v := c.Query("branch_id"); v != "" {
		branchId, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
			return
		}
		filter.BranchId = &branchId
	}
	if v := c.Query("item_id"); v != "" {
		filter.ItemId = &v
	}
	if v := c.Query("user_id"); v != "" {
		filter.UserId = &v
	}
	if v := c.Query("category"); v != "" {
		category := models.ItemCategory(v)
		if !category.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		filter.Category = &category
	}
	if v := c.Query("class"); v != "" {
		class := models.MovementClass(v)
		if class.MovementTypes() == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid movement class"})
			return
		}
		filter.Class = &class
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	ctx, cancel := requestCtx(c)
	defer cancel()

	movements, err := models.GetMovements(ctx, filter, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

func deduplicateMovementsHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpDeduplicate); !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	removed, err := models.DeduplicateMovements(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

/* stock mutation */

func adjustStockHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpAdjustStock); !ok {
		return
	}
	var input workflow.AdjustStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	item, err := workflow.AdjustStock(ctx, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func transferStockHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpTransferStock); !ok {
		return
	}
	var input workflow.TransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	result, err := workflow.TransferStock(ctx, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func rebuildStockHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpRebuildStock); !ok {
		return
	}
	branchId, err := strconv.Atoi(c.Param("branchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	result, err := workflow.RebuildBranchStock(ctx, branchId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

/* BOM / production */

func getRecipeHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpViewAllItems); !ok {
		return
	}
	branchId, err := strconv.Atoi(c.Param("branchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	recipe, err := models.GetRecipe(ctx, c.Param("productId"), branchId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func maxProducibleHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpViewAllItems); !ok {
		return
	}
	branchId, err := strconv.Atoi(c.Param("branchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	result, err := models.MaxProducible(ctx, c.Param("productId"), branchId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func upsertRecipeLineHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageRecipes); !ok {
		return
	}
	var input models.NewRecipeLine
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	entry, err := models.UpsertRecipeLine(ctx, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func deleteRecipeLineHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageRecipes); !ok {
		return
	}
	branchId, err := strconv.Atoi(c.Param("branchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := models.DeleteRecipeLine(ctx, c.Param("productId"), c.Param("ingredientId"), branchId); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func produceHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpProduce); !ok {
		return
	}
	var input workflow.ProduceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	result, err := workflow.Produce(ctx, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func produceWithoutRecipeHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpProduce); !ok {
		return
	}
	var input workflow.ProduceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	result, err := workflow.ProduceWithoutRecipe(ctx, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

/* users */

func listUsersHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageUsers); !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	users, err := models.GetAllUsers(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func createUserHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageUsers); !ok {
		return
	}
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := models.CreateUser(ctx, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func updateUserHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageUsers); !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := models.UpdateUser(ctx, id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func deleteUserHandler(c *gin.Context) {
	if _, ok := requireOp(c, models.OpManageUsers); !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := models.DeleteUser(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
