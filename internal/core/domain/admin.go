package domain

import "time"

// Permission is a capability bitset granted to an admin.
type Permission uint8

const (
	PermSuperAdmin Permission = 1 << iota
	PermManageUsers

	PermNone Permission = 0
)

// Has reports whether every bit of p is set.
func (ps Permission) Has(p Permission) bool {
	return p != PermNone && ps&p == p
}

// Any reports whether at least one bit of p is set.
func (ps Permission) Any(p Permission) bool {
	return ps&p != 0
}

// PermissionsFromFlags builds a bitset from the stored boolean flags.
func PermissionsFromFlags(superAdmin, manageUsers bool) Permission {
	var p Permission
	if superAdmin {
		p |= PermSuperAdmin
	}
	if manageUsers {
		p |= PermManageUsers
	}
	return p
}

// AdminPermissions is the JSON/bson shape of an admin's permissions.
type AdminPermissions struct {
	SuperAdmin  bool `json:"super_admin"`
	ManageUsers bool `json:"manage_users"`
}

// Admin models a back-office operator.
type Admin struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	Permissions  Permission `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PermissionFlags expands the bitset back into named flags.
func (a *Admin) PermissionFlags() AdminPermissions {
	return AdminPermissions{
		SuperAdmin:  a.Permissions.Has(PermSuperAdmin),
		ManageUsers: a.Permissions.Has(PermManageUsers),
	}
}
