package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/campusauth/internal/common"
	"github.com/dmitrijs2005/campusauth/internal/dbx"
	"github.com/dmitrijs2005/campusauth/internal/server/models"
	"github.com/dmitrijs2005/campusauth/internal/server/repositories/audit"
	"github.com/dmitrijs2005/campusauth/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

type fakeUsersRepo struct {
	mu        sync.Mutex
	byName    map[string]*models.User
	nextID    int64
	lastLogin map[int64]time.Time

	getErr       error
	createErr    error
	lastLoginErr error
	passwordErr  error
	activeErr    error

	getCalls    int
	createCalls int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}, lastLogin: map[int64]time.Time{}}
}

func (f *fakeUsersRepo) put(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.byName[u.UserName] = &u
	return &u
}

func (f *fakeUsersRepo) get(name string) (models.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byName[name]
	if !ok {
		return models.User{}, false
	}
	return *u, true
}

func (f *fakeUsersRepo) byID(id int64) *models.User {
	for _, u := range f.byName {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, dup := f.byName[u.UserName]; dup {
		return nil, errors.New("db error: duplicate username")
	}
	f.nextID++
	c := *u
	c.ID = f.nextID
	f.byName[c.UserName] = &c
	u.ID = c.ID
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(_ context.Context, name string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) UpdateLastLogin(_ context.Context, id int64, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastLoginErr != nil {
		return f.lastLoginErr
	}
	f.lastLogin[id] = ts
	return nil
}

func (f *fakeUsersRepo) UpdatePasswordHash(_ context.Context, id int64, hash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.passwordErr != nil {
		return f.passwordErr
	}
	u := f.byID(id)
	if u == nil {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsersRepo) SetActive(_ context.Context, id int64, active bool, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activeErr != nil {
		return f.activeErr
	}
	u := f.byID(id)
	if u == nil {
		return common.ErrorNotFound
	}
	u.Active = active
	return nil
}

type auditCall struct {
	entry models.AuditEntry
	inTx  bool
}

type fakeAuditRepo struct {
	mu        sync.Mutex
	calls     []auditCall
	appendErr error
	listErr   error
	listLimit int
	inTx      bool
}

func (f *fakeAuditRepo) Append(_ context.Context, e models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.calls = append(f.calls, auditCall{entry: e, inTx: f.inTx})
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, limit int) ([]models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.AuditEntry, 0, len(f.calls))
	for i := len(f.calls) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.calls[i].entry)
	}
	return out, nil
}

func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.entry.Action)
	}
	return out
}

func (f *fakeAuditRepo) last() auditCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// fakeRepoManager hands out the same fakes for every handle and notes
// whether the audit repo was requested with a transaction.
type fakeRepoManager struct {
	users *fakeUsersRepo
	audit *fakeAuditRepo
}

func (m *fakeRepoManager) DriverName() string                         { return "fake" }
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository            { return m.users }

func (m *fakeRepoManager) Audit(db dbx.DBTX) audit.Repository {
	_, isTx := db.(*sql.Tx)
	m.audit.mu.Lock()
	m.audit.inTx = isTx
	m.audit.mu.Unlock()
	return m.audit
}

