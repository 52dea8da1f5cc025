package auth

import (
	"fmt"
	"sort"
)

// Role identifies a principal's permission context in BiteBack.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleOwner    Role = "owner"
)

// Permission represents an action that can be authorized.
type Permission string

const (
	PermissionBrowse             Permission = "browse"
	PermissionBookReservations   Permission = "book_reservations"
	PermissionWriteReviews       Permission = "write_reviews"
	PermissionRedeemRewards      Permission = "redeem_rewards"
	PermissionManageRestaurants  Permission = "manage_restaurants"
	PermissionManageReservations Permission = "manage_reservations"
	PermissionManageRewards      Permission = "manage_rewards"
	PermissionViewAuditLogs      Permission = "view_audit_logs"
)

var permissionMatrix = map[Role]map[Permission]bool{
	RoleCustomer: {
		PermissionBrowse:           true,
		PermissionBookReservations: true,
		PermissionWriteReviews:     true,
		PermissionRedeemRewards:    true,
	},
	RoleStaff: {
		PermissionBrowse:             true,
		PermissionManageRestaurants:  true,
		PermissionManageReservations: true,
	},
	RoleOwner: {
		PermissionManageRewards: true,
		PermissionViewAuditLogs: true,
	},
}

func init() {
	for permission := range allPermissionsSet() {
		permissionMatrix[RoleOwner][permission] = true
	}
}

func allPermissionsSet() map[Permission]struct{} {
	all := make(map[Permission]struct{})
	for _, rolePerms := range permissionMatrix {
		for permission := range rolePerms {
			all[permission] = struct{}{}
		}
	}
	return all
}

// Roles returns the list of known roles in stable order.
func Roles() []Role {
	return []Role{RoleCustomer, RoleStaff, RoleOwner}
}

// Permissions returns all known permissions in stable order.
func Permissions() []Permission {
	all := make([]Permission, 0, len(allPermissionsSet()))
	for permission := range allPermissionsSet() {
		all = append(all, permission)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i] < all[j]
	})
	return all
}

func (r Role) String() string {
	return string(r)
}

func (p Permission) String() string {
	return string(p)
}

// IsKnown reports whether r is one of the roles in the matrix.
func (r Role) IsKnown() bool {
	_, exists := permissionMatrix[r]
	return exists
}

// IsAllowed checks a role/permission pair against the RBAC matrix.
func IsAllowed(role Role, permission Permission) bool {
	rolePerms, exists := permissionMatrix[role]
	if !exists {
		return false
	}
	return rolePerms[permission]
}

// MustBeAllowed validates and returns an error useful for API handlers.
func MustBeAllowed(role Role, permission Permission) error {
	if IsAllowed(role, permission) {
		return nil
	}
	return fmt.Errorf("rbac forbidden: role=%s permission=%s", role, permission)
}
