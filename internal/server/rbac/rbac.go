// Package rbac holds the static role to permission table consulted by the
// authentication service.
//
// Roles and permissions are string-backed so their persisted and logged form
// is the plain name ("ADMIN", "USER_MANAGEMENT"). PermissionAll is a
// distinguished value: a role holding it is granted every permission,
// including capabilities this package has never heard of.
package rbac

import (
	"sort"
	"strings"
)

// Role is an account role as stored in the users table.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
	RoleStaff   Role = "STAFF"
)

// Permission names one authorized action category.
type Permission string

const (
	PermissionAll Permission = "ALL"

	PermissionUserManagement      Permission = "USER_MANAGEMENT"
	PermissionStudentManagement   Permission = "STUDENT_MANAGEMENT"
	PermissionCourseManagement    Permission = "COURSE_MANAGEMENT"
	PermissionGradeManagement     Permission = "GRADE_MANAGEMENT"
	PermissionSystemConfiguration Permission = "SYSTEM_CONFIGURATION"
	PermissionAuditLogs           Permission = "AUDIT_LOGS"
	PermissionReports             Permission = "REPORTS"

	PermissionStudentView Permission = "STUDENT_VIEW"
	PermissionStudentEdit Permission = "STUDENT_EDIT"
	PermissionCourseView  Permission = "COURSE_VIEW"
	PermissionGradeView   Permission = "GRADE_VIEW"
	PermissionProfileView Permission = "PROFILE_VIEW"
)

type permissionSet map[Permission]struct{}

func setOf(perms ...Permission) permissionSet {
	s := make(permissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// rolePermissions is never written after package initialization.
var rolePermissions = map[Role]permissionSet{
	// Everything after ALL is redundant for checks but keeps the
	// administrator's grants readable in listings.
	RoleAdmin: setOf(
		PermissionAll,
		PermissionUserManagement,
		PermissionStudentManagement,
		PermissionCourseManagement,
		PermissionGradeManagement,
		PermissionSystemConfiguration,
		PermissionAuditLogs,
		PermissionReports,
	),
	RoleTeacher: setOf(PermissionStudentView, PermissionGradeManagement, PermissionCourseView, PermissionReports),
	RoleStudent: setOf(PermissionProfileView, PermissionGradeView, PermissionCourseView),
	RoleStaff:   setOf(PermissionStudentView, PermissionStudentEdit, PermissionCourseView, PermissionReports),
}

// Roles lists the known roles in a stable order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleStaff}
}

// ParseRole resolves a role name, ignoring case and surrounding space.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Valid reports whether r is one of the predefined roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Can reports whether r is granted p. Unknown roles are granted nothing.
func (r Role) Can(p Permission) bool {
	perms, ok := rolePermissions[r]
	if !ok {
		return false
	}
	if _, all := perms[PermissionAll]; all {
		return true
	}
	_, granted := perms[p]
	return granted
}

// Permissions returns the explicit grants of r, sorted by name.
func (r Role) Permissions() []Permission {
	perms := rolePermissions[r]
	out := make([]Permission, 0, len(perms))
	for p := range perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r Role) String() string { return string(r) }

func (p Permission) String() string { return string(p) }
