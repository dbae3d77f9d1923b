package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/dbx"
	"github.com/dmitrijs2005/admissions/internal/server/models"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/activities"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/applications"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/letters"
	"github.com/dmitrijs2005/admissions/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memStore backs every fake repository. Writes made through a handle that is
// not a transaction are recorded in outsideTx.
type memStore struct {
	mu sync.Mutex

	nextAppID  int64
	nextUserID int64
	apps       map[int64]*models.Application
	acts       map[int64][]models.Activity
	users      map[string]*models.User
	letters    map[models.ReviewStatus]string

	outsideTx []string

	failCreate   error
	failReplace  error
	failList     error
	failListActs map[int64]error

	// afterLockedRead runs after GetCurrentForUpdate, outside mu.
	afterLockedRead func()
}

func newMemStore() *memStore {
	return &memStore{
		apps:    map[int64]*models.Application{},
		acts:    map[int64][]models.Activity{},
		users:   map[string]*models.User{},
		letters: map[models.ReviewStatus]string{},
	}
}

func (s *memStore) mutated(db dbx.DBTX, op string) {
	if _, ok := db.(*sql.Tx); !ok {
		s.outsideTx = append(s.outsideTx, op)
	}
}

func (s *memStore) current(userID int64) *models.Application {
	var cur *models.Application
	for _, a := range s.apps {
		if a.UserID != userID {
			continue
		}
		if cur == nil || a.ID > cur.ID {
			cur = a
		}
	}
	return cur
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository { return &fakeUsersRepo{s: m.s, db: db} }
func (m *fakeRepoManager) Applications(db dbx.DBTX) applications.Repository {
	return &fakeAppsRepo{s: m.s, db: db}
}
func (m *fakeRepoManager) Activities(db dbx.DBTX) activities.Repository {
	return &fakeActsRepo{s: m.s, db: db}
}
func (m *fakeRepoManager) Letters(db dbx.DBTX) letters.Repository { return &fakeLettersRepo{s: m.s} }
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

type fakeAppsRepo struct {
	s  *memStore
	db dbx.DBTX
}

func cloneApp(a *models.Application) *models.Application {
	c := *a
	return &c
}

func (r *fakeAppsRepo) GetCurrent(_ context.Context, userID int64) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a := r.s.current(userID); a != nil {
		return cloneApp(a), nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeAppsRepo) GetCurrentForUpdate(ctx context.Context, userID int64) (*models.Application, error) {
	a, err := r.GetCurrent(ctx, userID)
	if r.s.afterLockedRead != nil {
		r.s.afterLockedRead()
	}
	return a, err
}

func (r *fakeAppsRepo) GetByID(_ context.Context, id int64) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.apps[id]; ok {
		return cloneApp(a), nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeAppsRepo) ListSubmitted(context.Context) ([]*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failList != nil {
		return nil, r.s.failList
	}
	var out []*models.Application
	for _, a := range r.s.apps {
		if a.Submitted() {
			out = append(out, cloneApp(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAppsRepo) Create(_ context.Context, userID int64, fields models.ApplicationFields) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.mutated(r.db, "create")
	if r.s.failCreate != nil {
		return nil, r.s.failCreate
	}
	r.s.nextAppID++
	a := &models.Application{
		ID:           r.s.nextAppID,
		UserID:       userID,
		Status:       models.StatusIncomplete,
		ReviewStatus: models.ReviewNone,
		Fields:       fields,
		CreatedAt:    time.Unix(r.s.nextAppID, 0),
	}
	r.s.apps[a.ID] = a
	return cloneApp(a), nil
}

func (r *fakeAppsRepo) UpdateDraft(_ context.Context, id int64, fields models.ApplicationFields) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.mutated(r.db, "update")
	a, ok := r.s.apps[id]
	if !ok || a.Submitted() {
		return nil, common.ErrAlreadySubmitted
	}
	a.Fields = fields
	return cloneApp(a), nil
}

func (r *fakeAppsRepo) Submit(_ context.Context, id int64, fields models.ApplicationFields, refs models.AttachmentRefs, at time.Time) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.mutated(r.db, "submit")
	a, ok := r.s.apps[id]
	if !ok || a.Submitted() {
		return nil, common.ErrAlreadySubmitted
	}
	a.Fields = fields
	a.Status = models.StatusSubmitted
	a.SubmittedAt = &at
	if refs.GradeReport != nil {
		a.GradeReportPath = refs.GradeReport
	}
	if refs.Upload != nil {
		a.UploadPath = refs.Upload
	}
	return cloneApp(a), nil
}

func (r *fakeAppsRepo) SetReviewStatus(_ context.Context, id int64, status models.ReviewStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.apps[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.ReviewStatus = status
	return nil
}

type fakeActsRepo struct {
	s  *memStore
	db dbx.DBTX
}

func (r *fakeActsRepo) Replace(_ context.Context, appID int64, items []models.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.mutated(r.db, "replace")
	if r.s.failReplace != nil {
		return r.s.failReplace
	}
	r.s.acts[appID] = append([]models.Activity(nil), items...)
	return nil
}

func (r *fakeActsRepo) List(_ context.Context, appID int64) ([]models.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failListActs[appID]; err != nil {
		return nil, err
	}
	return append([]models.Activity{}, r.s.acts[appID]...), nil
}

type fakeUsersRepo struct {
	s  *memStore
	db dbx.DBTX
}

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if r.s.failCreate != nil {
		return nil, r.s.failCreate
	}
	r.s.nextUserID++
	c := *u
	c.ID = r.s.nextUserID
	r.s.users[c.Email] = &c
	out := c
	return &out, nil
}

func (r *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[email]; ok {
		c := *u
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) UpdatePasswordHash(_ context.Context, email, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

type fakeLettersRepo struct{ s *memStore }

func (r *fakeLettersRepo) GetByStatus(_ context.Context, status models.ReviewStatus) (*models.Letter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	body, ok := r.s.letters[status]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &models.Letter{Status: status, Content: body}, nil
}
