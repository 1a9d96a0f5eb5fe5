// Package services contains server-side business logic. AuthService ties the
// credential store, password hashing, lockout tracking and the session
// registry together into login, logout and account administration flows.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/campusauth/internal/common"
	"github.com/dmitrijs2005/campusauth/internal/dbx"
	"github.com/dmitrijs2005/campusauth/internal/logging"
	"github.com/dmitrijs2005/campusauth/internal/server/lockout"
	"github.com/dmitrijs2005/campusauth/internal/server/models"
	"github.com/dmitrijs2005/campusauth/internal/server/passwords"
	"github.com/dmitrijs2005/campusauth/internal/server/rbac"
	"github.com/dmitrijs2005/campusauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/campusauth/internal/server/sessions"
)

// Messages returned in LoginResult.
const (
	MsgLoginSuccess = "Login successful!"
	MsgInvalidLogin = "Invalid username or password."
	MsgDeactivated  = "Account is deactivated. Please contact administrator."
	MsgLockedOut    = "Account is temporarily locked due to multiple failed attempts. Please try again later."
	MsgSystemError  = "System error occurred. Please try again later."
)

// DefaultAuditLimit caps AuditTrail when the caller passes a non-positive limit.
const DefaultAuditLimit = 100

// LoginResult is the outcome of a login attempt. Session is set iff Success.
type LoginResult struct {
	Success bool
	Message string
	Session *sessions.Session
}

// AuthService implements authentication and account administration. It is
// safe for concurrent use.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *sessions.Registry
	lockout     *lockout.Tracker
	log         logging.Logger
	now         func() time.Time
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, reg *sessions.Registry, lt *lockout.Tracker, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthService{
		db:          db,
		repomanager: m,
		sessions:    reg,
		lockout:     lt,
		log:         log.With("module", "auth"),
		now:         time.Now,
	}
}

// Login checks the credentials and, on success, issues a session.
//
// Unknown usernames and wrong passwords produce the same message and both
// count towards the lockout. The active flag is only checked after a
// password match.
func (s *AuthService) Login(ctx context.Context, username, password, ip, userAgent string) LoginResult {
	if s.lockout.IsLocked(username) {
		s.log.Warn(ctx, "login rejected, account locked", "user", username, "remaining", s.lockout.Remaining(username))
		return LoginResult{Message: MsgLockedOut}
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.recordFailure(ctx, username)
			return LoginResult{Message: MsgInvalidLogin}
		}
		return s.loginError(ctx, err, ip, userAgent)
	}

	if !passwords.Verify(password, user.PasswordHash) {
		s.recordFailure(ctx, username)
		return LoginResult{Message: MsgInvalidLogin}
	}

	if !user.Active {
		s.log.Info(ctx, "login rejected, account inactive", "user", username)
		return LoginResult{Message: MsgDeactivated}
	}

	s.lockout.Reset(username)

	sess, err := s.sessions.Issue(*user, ip, userAgent)
	if err != nil {
		return s.loginError(ctx, err, ip, userAgent)
	}

	if err := s.repomanager.Users(s.db).UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.sessions.Revoke(sess.Token)
		return s.loginError(ctx, err, ip, userAgent)
	}

	s.appendAudit(ctx, models.AuditEntry{
		UserID:    user.ID,
		Action:    models.ActionLoginSuccess,
		TableName: common.AuditTableUsers,
		RecordID:  user.ID,
		IPAddress: ip,
		UserAgent: userAgent,
	})

	s.log.Info(ctx, "login successful", "user", username, "session_id", sess.ID, "role", user.Role)
	return LoginResult{Success: true, Message: MsgLoginSuccess, Session: &sess}
}

// Logout revokes token and reports whether a session was removed.
func (s *AuthService) Logout(ctx context.Context, token, ip string) bool {
	sess, ok := s.sessions.Revoke(token)
	if !ok {
		return false
	}

	s.appendAudit(ctx, models.AuditEntry{
		UserID:    sess.User.ID,
		Action:    models.ActionLogout,
		TableName: common.AuditTableUsers,
		RecordID:  sess.User.ID,
		IPAddress: ip,
	})
	s.log.Info(ctx, "logout", "user", sess.User.UserName, "session_id", sess.ID)
	return true
}

// ValidateSession returns the live session for token and extends it.
func (s *AuthService) ValidateSession(token string) (sessions.Session, bool) {
	return s.sessions.Validate(token)
}

// HasPermission reports whether token names a live session whose role grants p.
func (s *AuthService) HasPermission(token string, p rbac.Permission) bool {
	_, ok := s.authorize(token, p)
	return ok
}

// ChangePassword replaces the caller's password after re-checking current
// against the stored hash.
func (s *AuthService) ChangePassword(ctx context.Context, token, current, next string) bool {
	sess, ok := s.sessions.Validate(token)
	if !ok {
		return false
	}
	log := s.log.With("user", sess.User.UserName, "session_id", sess.ID)

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, sess.User.UserName)
	if err != nil {
		log.Error(ctx, "change password: lookup failed", "err", err)
		return false
	}
	if !user.Active {
		log.Warn(ctx, "change password: account inactive")
		return false
	}
	if !passwords.Verify(current, user.PasswordHash) {
		log.Warn(ctx, "change password: current password mismatch")
		return false
	}

	hash, err := passwords.Hash(next)
	if err != nil {
		log.Warn(ctx, "change password: new password rejected", "err", err)
		return false
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePasswordHash(ctx, user.ID, hash, s.now()); err != nil {
			return err
		}
		return s.repomanager.Audit(tx).Append(ctx, models.AuditEntry{
			UserID:    user.ID,
			Action:    models.ActionPasswordChange,
			TableName: common.AuditTableUsers,
			RecordID:  user.ID,
			IPAddress: sess.IPAddress,
			UserAgent: sess.UserAgent,
		})
	})
	if err != nil {
		log.Error(ctx, "change password failed", "err", err)
		return false
	}

	log.Info(ctx, "password changed")
	return true
}

// CreateUser adds an active account. The caller needs USER_MANAGEMENT; role
// must name one of the known roles.
func (s *AuthService) CreateUser(ctx context.Context, token, username, password, email, role string) bool {
	caller, ok := s.authorize(token, rbac.PermissionUserManagement)
	if !ok {
		return false
	}
	log := s.log.With("caller", caller.User.UserName, "user", username)

	r, ok := rbac.ParseRole(role)
	if !ok {
		log.Warn(ctx, "create user: unknown role", "role", role)
		return false
	}

	hash, err := passwords.Hash(password)
	if err != nil {
		log.Warn(ctx, "create user: password rejected", "err", err)
		return false
	}

	var id int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			UserName:     username,
			Email:        email,
			Role:         r,
			Active:       true,
			PasswordHash: hash,
			CreatedAt:    s.now(),
		})
		if err != nil {
			return err
		}
		id = created.ID
		return s.repomanager.Audit(tx).Append(ctx, models.AuditEntry{
			UserID:    caller.User.ID,
			Action:    models.ActionUserCreated,
			TableName: common.AuditTableUsers,
			RecordID:  created.ID,
			IPAddress: caller.IPAddress,
			UserAgent: caller.UserAgent,
		})
	})
	if err != nil {
		log.Error(ctx, "create user failed", "err", err)
		return false
	}

	log.Info(ctx, "user created", "id", id, "role", r)
	return true
}

// SetUserActive toggles the active flag of username. Deactivation also ends
// the target's live sessions. The caller needs USER_MANAGEMENT.
func (s *AuthService) SetUserActive(ctx context.Context, token, username string, active bool) bool {
	caller, ok := s.authorize(token, rbac.PermissionUserManagement)
	if !ok {
		return false
	}
	log := s.log.With("caller", caller.User.UserName, "user", username)

	target, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		log.Warn(ctx, "set active: lookup failed", "err", err)
		return false
	}

	action := models.ActionUserActivated
	if !active {
		action = models.ActionUserDeactivated
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetActive(ctx, target.ID, active, s.now()); err != nil {
			return err
		}
		return s.repomanager.Audit(tx).Append(ctx, models.AuditEntry{
			UserID:    caller.User.ID,
			Action:    action,
			TableName: common.AuditTableUsers,
			RecordID:  target.ID,
			IPAddress: caller.IPAddress,
			UserAgent: caller.UserAgent,
		})
	})
	if err != nil {
		log.Error(ctx, "set active failed", "err", err)
		return false
	}

	if !active {
		n := s.sessions.RevokeUser(target.ID)
		log.Info(ctx, "user deactivated", "sessions_revoked", n)
	} else {
		log.Info(ctx, "user activated")
	}
	return true
}

// AuditTrail returns the newest audit entries. The caller needs AUDIT_LOGS.
func (s *AuthService) AuditTrail(ctx context.Context, token string, limit int) ([]models.AuditEntry, bool) {
	if _, ok := s.authorize(token, rbac.PermissionAuditLogs); !ok {
		return nil, false
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	entries, err := s.repomanager.Audit(s.db).List(ctx, limit)
	if err != nil {
		s.log.Error(ctx, "audit trail: list failed", "err", err)
		return nil, false
	}
	return entries, true
}

// ForceLogout removes token without an ownership check. Callers decide who
// may use it.
func (s *AuthService) ForceLogout(token string) bool {
	sess, ok := s.sessions.Revoke(token)
	if ok {
		s.log.Info(context.Background(), "session force-terminated", "user", sess.User.UserName, "session_id", sess.ID)
	}
	return ok
}

// CleanupExpiredSessions sweeps expired sessions and stale lockout records.
// It returns the number of sessions removed.
func (s *AuthService) CleanupExpiredSessions() int {
	n := s.sessions.SweepExpired()
	locks := s.lockout.Cleanup()
	if n > 0 || locks > 0 {
		s.log.Info(context.Background(), "expired sessions removed",
			"count", n, "remaining", s.sessions.Len(), "lockout_records", locks)
	}
	return n
}

// ActiveSessions lists every held session, oldest first.
func (s *AuthService) ActiveSessions() []sessions.Session {
	return s.sessions.ListActive()
}

// EnsureAdmin creates an active ADMIN account named username unless a user
// with that name exists. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password, email string) (bool, error) {
	_, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return false, err
	}

	hash, err := passwords.Hash(password)
	if err != nil {
		return false, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			UserName:     username,
			Email:        email,
			Role:         rbac.RoleAdmin,
			Active:       true,
			PasswordHash: hash,
			CreatedAt:    s.now(),
		})
		if err != nil {
			return err
		}
		return s.repomanager.Audit(tx).Append(ctx, models.AuditEntry{
			Action:    models.ActionUserCreated,
			TableName: common.AuditTableUsers,
			RecordID:  created.ID,
		})
	})
	if err != nil {
		return false, err
	}

	s.log.Warn(ctx, "default administrator created; change its password", "user", username)
	return true, nil
}

// --- helpers below ---

func (s *AuthService) authorize(token string, p rbac.Permission) (sessions.Session, bool) {
	sess, ok := s.sessions.Validate(token)
	if !ok || !sess.User.Role.Can(p) {
		return sessions.Session{}, false
	}
	return sess, true
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if s.lockout.RecordFailure(username) {
		s.log.Warn(ctx, "account locked after repeated failures", "user", username, "for", s.lockout.Remaining(username))
		return
	}
	s.log.Info(ctx, "login failed", "user", username)
}

func (s *AuthService) loginError(ctx context.Context, cause error, ip, userAgent string) LoginResult {
	s.log.Error(ctx, "login error", "err", cause)
	s.appendAudit(ctx, models.AuditEntry{
		Action:    models.ActionLoginError,
		TableName: common.AuditTableUsers,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	return LoginResult{Message: MsgSystemError}
}

// appendAudit writes outside any transaction. Failures are logged only.
func (s *AuthService) appendAudit(ctx context.Context, e models.AuditEntry) {
	if err := s.repomanager.Audit(s.db).Append(ctx, e); err != nil {
		s.log.Error(ctx, "audit append failed", "action", e.Action, "err", err)
	}
}
