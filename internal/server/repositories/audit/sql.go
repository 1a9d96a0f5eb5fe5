package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/campusauth/internal/dbx"
	"github.com/dmitrijs2005/campusauth/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Append(ctx context.Context, e models.AuditEntry) error {
	query :=
		`INSERT INTO audit_log (user_id, action, table_name, record_id, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		nullID(e.UserID), e.Action, e.TableName, nullID(e.RecordID),
		nullString(e.IPAddress), nullString(e.UserAgent))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query :=
		`SELECT id, user_id, action, table_name, record_id, ip_address, user_agent, created_at
		 FROM audit_log
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var (
			e                models.AuditEntry
			userID, recordID sql.NullInt64
			table, ip, ua    sql.NullString
		)
		if err := rows.Scan(&e.ID, &userID, &e.Action, &table, &recordID, &ip, &ua, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.UserID = userID.Int64
		e.RecordID = recordID.Int64
		e.TableName = table.String
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
