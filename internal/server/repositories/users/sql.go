package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/campusauth/internal/common"
	"github.com/dmitrijs2005/campusauth/internal/dbx"
	"github.com/dmitrijs2005/campusauth/internal/server/models"
	"github.com/dmitrijs2005/campusauth/internal/server/rbac"
)

// SQLRepository implements Repository over dbx.DBTX. Queries use $N
// placeholders, which both the pgx and the sqlite drivers accept.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password_hash, email, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING id`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.PasswordHash, user.Email, string(user.Role), user.Active, user.CreatedAt).
		Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetUserByLogin(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, email, role, is_active, last_login, created_at
		 FROM users
		 WHERE username = $1`

	var (
		user      models.User
		role      string
		lastLogin sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.UserName, &user.PasswordHash, &user.Email,
		&role, &user.Active, &lastLogin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Role = rbac.Role(role)
	if lastLogin.Valid {
		ts := lastLogin.Time
		user.LastLogin = &ts
	}
	return &user, nil
}

func (r *SQLRepository) UpdateLastLogin(ctx context.Context, userID int64, ts time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`
	return r.execOne(ctx, query, ts, userID)
}

func (r *SQLRepository) UpdatePasswordHash(ctx context.Context, userID int64, hash string, ts time.Time) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	return r.execOne(ctx, query, hash, ts, userID)
}

func (r *SQLRepository) SetActive(ctx context.Context, userID int64, active bool, ts time.Time) error {
	query := `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`
	return r.execOne(ctx, query, active, ts, userID)
}

// execOne runs an update that must touch exactly one row.
func (r *SQLRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
