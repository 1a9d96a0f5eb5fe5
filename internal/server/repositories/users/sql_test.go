package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/campusauth/internal/common"
	"github.com/dmitrijs2005/campusauth/internal/server/models"
	"github.com/dmitrijs2005/campusauth/internal/server/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wrappedDBErr = regexp.MustCompile(`db error: .*db down`)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewSQLRepository(db), mock
}

const (
	createQ = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*password_hash,\s*email,\s*role,\s*is_active,\s*created_at,\s*updated_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$6\)\s*RETURNING\s+id\s*$`
	selectQ = `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*email,\s*role,\s*is_active,\s*last_login,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(createQ).
		WithArgs("alice", "s:d", "alice@school.edu", "TEACHER", true, created).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	u := &models.User{UserName: "alice", PasswordHash: "s:d", Email: "alice@school.edu", Role: rbac.RoleTeacher, Active: true, CreatedAt: created}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_DefaultsCreatedAt(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(createQ).
		WithArgs("bob", "s:d", "bob@school.edu", "STUDENT", false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(43)))

	before := time.Now()
	got, err := repo.Create(context.Background(), &models.User{UserName: "bob", PasswordHash: "s:d", Email: "bob@school.edu", Role: rbac.RoleStudent})
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.Before(before.UTC().Add(-time.Second)))
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(createQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Role: rbac.RoleStudent})
	require.Error(t, err)
	assert.Regexp(t, wrappedDBErr, err.Error())
}

func TestGetUserByLogin_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	last := time.Date(2024, 2, 3, 8, 30, 0, 0, time.UTC)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "email", "role", "is_active", "last_login", "created_at"}).
		AddRow(int64(7), "alice", "s:d", "alice@school.edu", "ADMIN", true, last, created)
	mock.ExpectQuery(selectQ).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, rbac.RoleAdmin, got.Role)
	assert.Equal(t, "s:d", got.PasswordHash)
	assert.True(t, got.Active)
	require.NotNil(t, got.LastLogin)
	assert.Equal(t, last, *got.LastLogin)
	assert.Equal(t, created, got.CreatedAt)
}

func TestGetUserByLogin_NeverLoggedIn(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "email", "role", "is_active", "last_login", "created_at"}).
		AddRow(int64(8), "bob", "s:d", "bob@school.edu", "STUDENT", false, nil, time.Now())
	mock.ExpectQuery(selectQ).WithArgs("bob").WillReturnRows(rows)

	got, err := repo.GetUserByLogin(context.Background(), "bob")
	require.NoError(t, err)
	assert.Nil(t, got.LastLogin)
	assert.False(t, got.Active)
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetUserByLogin_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQ).WithArgs("alice").WillReturnError(errors.New("db down"))

	_, err := repo.GetUserByLogin(context.Background(), "alice")
	require.Error(t, err)
	assert.Regexp(t, wrappedDBErr, err.Error())
	assert.False(t, errors.Is(err, common.ErrorNotFound))
}

func TestUpdates(t *testing.T) {
	ts := time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)

	tests := []struct {
		name  string
		query string
		args  []driver.Value
		call  func(*SQLRepository) error
	}{
		{
			name:  "last login",
			query: `^UPDATE\s+users\s+SET\s+last_login\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`,
			args:  []driver.Value{ts, int64(7)},
			call:  func(r *SQLRepository) error { return r.UpdateLastLogin(context.Background(), 7, ts) },
		},
		{
			name:  "password hash",
			query: `^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$1,\s*updated_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3$`,
			args:  []driver.Value{"new:hash", ts, int64(7)},
			call:  func(r *SQLRepository) error { return r.UpdatePasswordHash(context.Background(), 7, "new:hash", ts) },
		},
		{
			name:  "active flag",
			query: `^UPDATE\s+users\s+SET\s+is_active\s*=\s*\$1,\s*updated_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3$`,
			args:  []driver.Value{false, ts, int64(7)},
			call:  func(r *SQLRepository) error { return r.SetActive(context.Background(), 7, false, ts) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/ok", func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(tt.query).WithArgs(tt.args...).WillReturnResult(sqlmock.NewResult(0, 1))
			assert.NoError(t, tt.call(repo))
		})
		t.Run(tt.name+"/missing row", func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(tt.query).WithArgs(tt.args...).WillReturnResult(sqlmock.NewResult(0, 0))
			assert.ErrorIs(t, tt.call(repo), common.ErrorNotFound)
		})
		t.Run(tt.name+"/db error", func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(tt.query).WithArgs(tt.args...).WillReturnError(errors.New("db down"))
			err := tt.call(repo)
			require.Error(t, err)
			assert.Regexp(t, wrappedDBErr, err.Error())
		})
	}
}
