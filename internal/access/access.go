// Package access maps staff roles to what they may do. The shift resolver
// and the aggregation engine know nothing about it; only the HTTP and chat
// surfaces consult it.
package access

import "strings"

// Role is a staff role carried in the auth token.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleSalesRep Role = "sales_rep"
)

// ParseRole normalizes a role name.
func ParseRole(value string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(value))); r {
	case RoleOwner, RoleManager, RoleSalesRep:
		return r, true
	}
	return "", false
}

// Capability is a single permission.
type Capability string

const (
	LogProduction Capability = "log_production"
	LogSales      Capability = "log_sales"
	ViewReports   Capability = "view_reports"
	ViewInventory Capability = "view_inventory"
	ManageUsers   Capability = "manage_users"
	SendMessages  Capability = "send_messages"
)

// Checker answers authorization questions.
type Checker interface {
	Can(role Role, capability Capability) bool
	CanInvite(inviter, invitee Role) bool
}

// RoleChecker is the static role table.
type RoleChecker struct {
	grants map[Role]map[Capability]bool
}

// NewRoleChecker builds the default role table.
func NewRoleChecker() *RoleChecker {
	return &RoleChecker{
		grants: map[Role]map[Capability]bool{
			RoleOwner:    set(LogProduction, LogSales, ViewReports, ViewInventory, ManageUsers, SendMessages),
			RoleManager:  set(LogProduction, LogSales, ViewReports, ViewInventory, ManageUsers, SendMessages),
			RoleSalesRep: set(LogSales, ViewInventory),
		},
	}
}

func set(caps ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

// Can reports whether role holds capability. Unknown roles hold nothing.
func (c *RoleChecker) Can(role Role, capability Capability) bool {
	return c.grants[role][capability]
}

// CanInvite reports whether inviter may hand out the invitee role. Owners
// invite anyone; managers invite sales reps only.
func (c *RoleChecker) CanInvite(inviter, invitee Role) bool {
	if _, ok := ParseRole(string(invitee)); !ok {
		return false
	}
	if !c.Can(inviter, ManageUsers) {
		return false
	}
	switch inviter {
	case RoleOwner:
		return true
	case RoleManager:
		return invitee == RoleSalesRep
	}
	return false
}
