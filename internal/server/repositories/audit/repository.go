// Package audit stores the append-only trail of authentication and account
// events.
package audit

import (
	"context"

	"github.com/dmitrijs2005/campusauth/internal/server/models"
)

type Repository interface {
	// Append writes entry. Zero UserID and RecordID are stored as NULL.
	Append(ctx context.Context, entry models.AuditEntry) error

	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]models.AuditEntry, error)
}
