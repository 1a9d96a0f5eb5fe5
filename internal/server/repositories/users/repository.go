// Package users declares the credential store contract for account records
// and its SQL implementation.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/campusauth/internal/server/models"
)

// Repository reads and updates user records. Lookups of absent users return
// common.ErrorNotFound.
type Repository interface {
	// Create inserts user and returns it with ID set. A zero CreatedAt is
	// replaced with the current time.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByLogin returns the full record, including the password hash.
	GetUserByLogin(ctx context.Context, username string) (*models.User, error)

	UpdateLastLogin(ctx context.Context, userID int64, ts time.Time) error
	UpdatePasswordHash(ctx context.Context, userID int64, hash string, ts time.Time) error
	SetActive(ctx context.Context, userID int64, active bool, ts time.Time) error
}
