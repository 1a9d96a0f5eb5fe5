package models

import "time"

// Audit actions written by the authentication service.
const (
	ActionLoginSuccess    = "LOGIN_SUCCESS"
	ActionLoginError      = "LOGIN_ERROR"
	ActionLogout          = "LOGOUT"
	ActionPasswordChange  = "PASSWORD_CHANGE"
	ActionUserCreated     = "USER_CREATED"
	ActionUserActivated   = "USER_ACTIVATED"
	ActionUserDeactivated = "USER_DEACTIVATED"
)

// AuditEntry is one append-only row of the audit trail. A zero UserID or
// RecordID is stored as NULL and means the value is unknown.
type AuditEntry struct {
	ID        int64
	UserID    int64
	Action    string
	TableName string
	RecordID  int64
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}
