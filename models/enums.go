package models

type MovementType string

const (
	MovementTypeIn          MovementType = "IN"
	MovementTypeOut         MovementType = "OUT"
	MovementTypeAdminIn     MovementType = "ADMIN_IN"
	MovementTypeAdminOut    MovementType = "ADMIN_OUT"
	MovementTypeAdminSet    MovementType = "ADMIN_SET"
	MovementTypeTransferIn  MovementType = "TRANSFER_IN"
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
	MovementTypeProduction  MovementType = "PRODUCTION"
)

// Sign returns +1 for credits, -1 for debits and 0 for ADMIN_SET,
// which records an absolute value rather than a delta.
func (m MovementType) Sign() int {
	switch m {
	case MovementTypeIn, MovementTypeAdminIn, MovementTypeTransferIn, MovementTypeProduction:
		return 1
	case MovementTypeOut, MovementTypeAdminOut, MovementTypeTransferOut:
		return -1
	default:
		return 0
	}
}

func (m MovementType) IsValid() bool {
	switch m {
	case MovementTypeIn, MovementTypeOut,
		MovementTypeAdminIn, MovementTypeAdminOut, MovementTypeAdminSet,
		MovementTypeTransferIn, MovementTypeTransferOut,
		MovementTypeProduction:
		return true
	}
	return false
}

// MovementClass groups movement types for ledger filtering.
type MovementClass string

const (
	MovementClassTransfer   MovementClass = "transfer"
	MovementClassProduction MovementClass = "production"
	MovementClassAdmin      MovementClass = "admin"
	MovementClassPlain      MovementClass = "plain"
)

func (c MovementClass) MovementTypes() []MovementType {
	switch c {
	case MovementClassTransfer:
		return []MovementType{MovementTypeTransferIn, MovementTypeTransferOut}
	case MovementClassProduction:
		return []MovementType{MovementTypeProduction}
	case MovementClassAdmin:
		return []MovementType{MovementTypeAdminIn, MovementTypeAdminOut, MovementTypeAdminSet}
	case MovementClassPlain:
		return []MovementType{MovementTypeIn, MovementTypeOut}
	default:
		return nil
	}
}

type ItemCategory string

const (
	ItemCategoryRawMaterial  ItemCategory = "Raw Material"
	ItemCategoryPreFinal     ItemCategory = "Pre-Final"
	ItemCategoryFinalProduct ItemCategory = "Final Product"
)

func (c ItemCategory) IsValid() bool {
	switch c {
	case ItemCategoryRawMaterial, ItemCategoryPreFinal, ItemCategoryFinalProduct:
		return true
	}
	return false
}

type UserRole string

const (
	UserRoleViewer           UserRole = "viewer"
	UserRoleAdmin            UserRole = "admin"
	UserRoleBoss             UserRole = "boss"
	UserRoleWarehouseManager UserRole = "warehouse_manager"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleViewer, UserRoleAdmin, UserRoleBoss, UserRoleWarehouseManager:
		return true
	}
	return false
}

// AdjustOp is the arithmetic applied by AdjustStock.
type AdjustOp string

const (
	AdjustOpSet      AdjustOp = "SET"
	AdjustOpAdd      AdjustOp = "ADD"
	AdjustOpSubtract AdjustOp = "SUBTRACT"
)

func (op AdjustOp) IsValid() bool {
	switch op {
	case AdjustOpSet, AdjustOpAdd, AdjustOpSubtract:
		return true
	}
	return false
}
