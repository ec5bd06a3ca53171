// Package access maps account roles to the capabilities checked at the HTTP
// edge. Domain services never look at roles.
package access

import (
	"github.com/google/uuid"

	"github.com/farmdesk/farmdesk-backend/pkg/enums"
)

type Capability string

const (
	OrdersPlace      Capability = "orders:place"
	OrdersTransition Capability = "orders:transition"
	OrdersRead       Capability = "orders:read"
	OrdersCorrect    Capability = "orders:correct"
	OrdersDelete     Capability = "orders:delete"
	ProfileManage    Capability = "profile:manage"
	StockAdjust      Capability = "stock:adjust"
)

var grants = map[enums.UserRole][]Capability{
	enums.UserRoleAdmin: {
		OrdersTransition, OrdersRead, OrdersCorrect, OrdersDelete, StockAdjust,
	},
	enums.UserRoleFarmer: {
		OrdersRead, OrdersCorrect, OrdersDelete, StockAdjust,
	},
	enums.UserRoleEmployee: {
		OrdersTransition, OrdersRead, StockAdjust,
	},
	enums.UserRoleCustomer: {
		OrdersPlace, OrdersRead, ProfileManage,
	},
}

// Allows reports whether role holds capability. Unknown roles hold nothing.
func Allows(role enums.UserRole, capability Capability) bool {
	for _, granted := range grants[role] {
		if granted == capability {
			return true
		}
	}
	return false
}

// ReadScope says which orders a reader may see.
type ReadScope struct {
	// OwnerUserID restricts reads to orders placed by this user. Nil means all.
	OwnerUserID *uuid.UUID
}

// ScopeFor derives the order read scope for an actor. Customers only see their
// own orders; staff roles see everything.
func ScopeFor(role enums.UserRole, userID uuid.UUID) ReadScope {
	if role == enums.UserRoleCustomer {
		id := userID
		return ReadScope{OwnerUserID: &id}
	}
	return ReadScope{}
}
