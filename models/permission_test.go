package models_test

import (
	"testing"

	"bitbucket.org/flameblock/inventory_backend/models"
)

func TestCanPerform_RoleMatrix(t *testing.T) {
	cases := []struct {
		role     models.UserRole
		op       models.Operation
		expected bool
	}{
		// viewer: final-product availability only
		{models.UserRoleViewer, models.OpViewFinalProducts, true},
		{models.UserRoleViewer, models.OpViewAllItems, false},
		{models.UserRoleViewer, models.OpViewMovements, false},
		{models.UserRoleViewer, models.OpAdjustStock, false},
		{models.UserRoleViewer, models.OpTransferStock, false},

		// admin: read all, adjust and transfer, nothing structural
		{models.UserRoleAdmin, models.OpViewAllItems, true},
		{models.UserRoleAdmin, models.OpViewMovements, true},
		{models.UserRoleAdmin, models.OpAdjustStock, true},
		{models.UserRoleAdmin, models.OpTransferStock, true},
		{models.UserRoleAdmin, models.OpProduce, false},
		{models.UserRoleAdmin, models.OpManageItems, false},
		{models.UserRoleAdmin, models.OpManageUsers, false},
		{models.UserRoleAdmin, models.OpRebuildStock, false},

		// boss: read everything, mutate nothing
		{models.UserRoleBoss, models.OpViewAllItems, true},
		{models.UserRoleBoss, models.OpViewMovements, true},
		{models.UserRoleBoss, models.OpAdjustStock, false},
		{models.UserRoleBoss, models.OpTransferStock, false},
		{models.UserRoleBoss, models.OpProduce, false},
		{models.UserRoleBoss, models.OpManageBranches, false},

		// warehouse_manager: everything
		{models.UserRoleWarehouseManager, models.OpAdjustStock, true},
		{models.UserRoleWarehouseManager, models.OpTransferStock, true},
		{models.UserRoleWarehouseManager, models.OpProduce, true},
		{models.UserRoleWarehouseManager, models.OpManageItems, true},
		{models.UserRoleWarehouseManager, models.OpManageBranches, true},
		{models.UserRoleWarehouseManager, models.OpManageRecipes, true},
		{models.UserRoleWarehouseManager, models.OpManageUsers, true},
		{models.UserRoleWarehouseManager, models.OpDeduplicate, true},
		{models.UserRoleWarehouseManager, models.OpRebuildStock, true},
	}
	for _, tc := range cases {
		if got := models.CanPerform(tc.role, tc.op); got != tc.expected {
			t.Errorf("CanPerform(%s, %s) = %v, expected %v", tc.role, tc.op, got, tc.expected)
		}
	}
}

func TestCanPerform_UnknownRoleDeniesEverything(t *testing.T) {
	ops := []models.Operation{
		models.OpViewFinalProducts,
		models.OpViewAllItems,
		models.OpAdjustStock,
		models.OpManageUsers,
	}
	for _, op := range ops {
		if models.CanPerform(models.UserRole("intern"), op) {
			t.Errorf("unknown role was granted %s", op)
		}
		if models.CanPerform(models.UserRole(""), op) {
			t.Errorf("anonymous role was granted %s", op)
		}
	}
}

func TestCategoryRestricted(t *testing.T) {
	if !models.CategoryRestricted(models.UserRoleAdmin) {
		t.Error("admin must be restricted to final products")
	}
	for _, role := range []models.UserRole{
		models.UserRoleViewer,
		models.UserRoleBoss,
		models.UserRoleWarehouseManager,
	} {
		if models.CategoryRestricted(role) {
			t.Errorf("%s must not be category restricted", role)
		}
	}
}
