package models

// Operation names the mutating and reading entry points guarded by CanPerform.
type Operation string

const (
	OpViewFinalProducts Operation = "ViewFinalProducts"
	OpViewAllItems      Operation = "ViewAllItems"
	OpViewMovements     Operation = "ViewMovements"
	OpAdjustStock       Operation = "AdjustStock"
	OpTransferStock     Operation = "TransferStock"
	OpProduce           Operation = "Produce"
	OpManageItems       Operation = "ManageItems"
	OpManageBranches    Operation = "ManageBranches"
	OpManageRecipes     Operation = "ManageRecipes"
	OpManageUsers       Operation = "ManageUsers"
	OpDeduplicate       Operation = "DeduplicateMovements"
	OpRebuildStock      Operation = "RebuildStock"
)

// rolePermissions is the whole authorization model. It is pure data:
// no state, no I/O. Handlers consult CanPerform before every mutation.
//
// viewer            read final-product availability only
// admin             read all, adjust/transfer final products only
// boss              read everything, no mutation
// warehouse_manager everything
var rolePermissions = map[UserRole]map[Operation]bool{
	UserRoleViewer: {
		OpViewFinalProducts: true,
	},
	UserRoleAdmin: {
		OpViewFinalProducts: true,
		OpViewAllItems:      true,
		OpViewMovements:     true,
		OpAdjustStock:       true,
		OpTransferStock:     true,
	},
	UserRoleBoss: {
		OpViewFinalProducts: true,
		OpViewAllItems:      true,
		OpViewMovements:     true,
	},
	UserRoleWarehouseManager: {
		OpViewFinalProducts: true,
		OpViewAllItems:      true,
		OpViewMovements:     true,
		OpAdjustStock:       true,
		OpTransferStock:     true,
		OpProduce:           true,
		OpManageItems:       true,
		OpManageBranches:    true,
		OpManageRecipes:     true,
		OpManageUsers:       true,
		OpDeduplicate:       true,
		OpRebuildStock:      true,
	},
}

func CanPerform(role UserRole, op Operation) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return perms[op]
}

// CategoryRestricted reports whether the role may only mutate
// Final Product rows (the admin role's adjust/transfer limitation).
func CategoryRestricted(role UserRole) bool {
	return role == UserRoleAdmin
}
