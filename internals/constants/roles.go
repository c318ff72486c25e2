package constants

import (
	"fmt"
	"strings"
)

// School membership roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

const (
	ErrOnlyAdminsCanAccess  = "❌ Only school admins can access %s."
	ErrOnlyMembersCanAccess = "❌ Only members of this school can access %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorMember(feature string) string {
	return fmt.Sprintf(ErrOnlyMembersCanAccess, feature)
}

var (
	AllRoles  = []string{RoleAdmin, RoleTeacher}
	AdminOnly = []string{RoleAdmin}
	// StaffRoles may run day-to-day attendance.
	StaffRoles = []string{RoleAdmin, RoleTeacher}
)

// NormalizeRole lowercases and validates a membership role.
func NormalizeRole(s string) (string, bool) {
	r := strings.ToLower(strings.TrimSpace(s))
	for _, v := range AllRoles {
		if r == v {
			return r, true
		}
	}
	return "", false
}
