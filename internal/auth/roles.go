package auth

import (
	"log/slog"
	"os"
)

// RoleChecker decides whether a viewer may use the admin surface. The policy is
// behind an interface so it can be swapped without touching the feed code.
type RoleChecker interface {
	IsAdmin(viewer *Viewer) bool
}

// adminEmailChecker recognizes the administrator by exact comparison of the
// viewer's email against a single configured address. Known-weak mechanism,
// preserved from the original deployment.
type adminEmailChecker struct {
	adminEmail string
}

func (c *adminEmailChecker) IsAdmin(viewer *Viewer) bool {
	if viewer == nil || c.adminEmail == "" {
		return false
	}
	return viewer.Email == c.adminEmail
}

// NewAdminEmailChecker builds the fixed-address role check.
func NewAdminEmailChecker(adminEmail string) RoleChecker {
	return &adminEmailChecker{adminEmail: adminEmail}
}

var Roles RoleChecker

func InitRoles() {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		slog.Warn("ADMIN_EMAIL not set; no viewer will pass the admin check")
	}
	Roles = NewAdminEmailChecker(adminEmail)
}
