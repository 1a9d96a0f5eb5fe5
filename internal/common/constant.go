// Package common contains shared constants and sentinel errors used across
// campusauth components.
package common

// AuditTableUsers is the table name recorded on audit entries that refer to
// rows of the users table.
const AuditTableUsers = "users"
