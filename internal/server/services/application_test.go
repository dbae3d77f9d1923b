package services

import (
	"context"
	"database/sql"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/dbx"
	"github.com/dmitrijs2005/admissions/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lockQuery = regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newApplicationService(t *testing.T) (*ApplicationService, *memStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	store := newMemStore()
	svc := NewApplicationService(db, &fakeRepoManager{s: store})
	return svc, store, mock
}

// expectLockedTx registers one transaction that takes the user's advisory
// lock and then commits or rolls back.
func expectLockedTx(mock sqlmock.Sqlmock, userID int64, commit bool) {
	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).
		WithArgs(dbx.LockKey(dbx.LockNamespaceApplicationUser, userID)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func sampleFields(name string) models.ApplicationFields {
	return models.ApplicationFields{
		StudentName: name,
		Email:       "student@example.com",
		Grade:       "11",
		Essay1:      "  keeps its spaces  ",
	}
}

func TestApplicationService_GetCurrent_None(t *testing.T) {
	svc, _, mock := newApplicationService(t)

	app, err := svc.GetCurrent(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, app)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationService_AutosaveThenGetCurrent(t *testing.T) {
	svc, store, mock := newApplicationService(t)
	ctx := context.Background()
	expectLockedTx(mock, 7, true)

	fields := sampleFields("Ada")
	saved, err := svc.UpsertDraft(ctx, 7, fields, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIncomplete, saved.Status)

	got, err := svc.GetCurrent(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusIncomplete, got.Status)
	assert.Equal(t, fields, got.Fields)
	assert.Empty(t, store.outsideTx)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationService_SecondAutosaveOverwritesAll(t *testing.T) {
	svc, store, mock := newApplicationService(t)
	ctx := context.Background()
	expectLockedTx(mock, 7, true)
	expectLockedTx(mock, 7, true)

	first, err := svc.UpsertDraft(ctx, 7, sampleFields("Ada"), []models.Activity{
		{Type: "Sport", Position: "Captain"},
		{Type: "Music"},
	})
	require.NoError(t, err)

	second := models.ApplicationFields{StudentName: "Grace"}
	again, err := svc.UpsertDraft(ctx, 7, second, []models.Activity{{Type: "Chess"}})
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID, "same draft row is reused")
	got, err := svc.GetCurrent(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, second, got.Fields, "absent fields are cleared, not merged")
	assert.Equal(t, []models.Activity{{Type: "Chess"}}, store.acts[got.ID])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationService_ActivityFiltering(t *testing.T) {
	svc, store, mock := newApplicationService(t)
	ctx := context.Background()
	expectLockedTx(mock, 1, true)
	expectLockedTx(mock, 1, true)

	in := []models.Activity{
		{Type: "   ", Position: "dropped"},
		{Type: " Debate ", Position: " Lead ", Org: "Club", Desc: "weekly\n"},
		{Type: "", Org: "dropped too"},
		{Type: "Robotics"},
	}
	app, err := svc.UpsertDraft(ctx, 1, models.ApplicationFields{}, in)
	require.NoError(t, err)

	want := []models.Activity{
		{Type: " Debate ", Position: " Lead ", Org: "Club", Desc: "weekly\n"},
		{Type: "Robotics"},
	}
	assert.Equal(t, want, store.acts[app.ID])

	// replaying the same payload leaves the same set
	_, err = svc.UpsertDraft(ctx, 1, models.ApplicationFields{}, in)
	require.NoError(t, err)
	assert.Equal(t, want, store.acts[app.ID])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationService_SubmitWithoutDraft(t *testing.T) {
	svc, store, mock := newApplicationService(t)
	expectLockedTx(mock, 3, false)

	_, err := svc.Submit(context.Background(), 3, sampleFields("Ada"), nil, models.AttachmentRefs{})
	require.ErrorIs(t, err, common.ErrNoDraftExists)
	assert.Empty(t, store.apps)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationService_SubmitFlow(t *testing.T) {
	svc, store, mock := newApplicationService(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	expectLockedTx(mock, 3, true)  // draft
	expectLockedTx(mock, 3, true)  // submit
	expectLockedTx(mock, 3, false) // second submit
	expectLockedTx(mock, 3, false) // autosave after submit

	grade := "user-3/a_report.pdf"
	draft, err := svc.UpsertDraft(ctx, 3, sampleFields("Ada"), nil)
	require.NoError(t, err)
	store.apps[draft.ID].UploadPath = ptr("user-3/b_old.png")

	final := sampleFields("Ada Lovelace")
	app, err := svc.Submit(ctx, 3, final, []models.Activity{{Type: "Math"}}, models.AttachmentRefs{GradeReport: &grade})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, app.Status)
	require.NotNil(t, app.SubmittedAt)
	assert.Equal(t, now, *app.SubmittedAt)
	assert.Equal(t, final, app.Fields)
	assert.Equal(t, grade, *app.GradeReportPath)
	assert.Equal(t, "user-3/b_old.png", *app.UploadPath, "nil ref keeps stored value")
	assert.Equal(t, []models.Activity{{Type: "Math"}}, store.acts[app.ID])

	_, err = svc.Submit(ctx, 3, final, nil, models.AttachmentRefs{})
	require.ErrorIs(t, err, common.ErrAlreadySubmitted)

	_, err = svc.UpsertDraft(ctx, 3, sampleFields("Changed"), nil)
	require.ErrorIs(t, err, common.ErrAlreadySubmitted)

	got, err := svc.GetCurrent(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, got.Status)
	assert.Equal(t, final, got.Fields)
	assert.Equal(t, now, *got.SubmittedAt, "submitted_at is never overwritten")
	assert.Empty(t, store.outsideTx)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationService_RollsBackOnActivityFailure(t *testing.T) {
	svc, store, mock := newApplicationService(t)
	store.failReplace = errBoom{}
	expectLockedTx(mock, 9, false)

	_, err := svc.UpsertDraft(context.Background(), 9, sampleFields("Ada"), []models.Activity{{Type: "x"}})
	require.ErrorContains(t, err, "error replacing activities: boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationService_LockFailure(t *testing.T) {
	svc, store, mock := newApplicationService(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WillReturnError(errBoom{})
	mock.ExpectRollback()

	_, err := svc.UpsertDraft(context.Background(), 9, sampleFields("Ada"), nil)
	require.ErrorContains(t, err, "advisory lock error")
	assert.Empty(t, store.apps)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationService_SetReviewStatus(t *testing.T) {
	svc, store, _ := newApplicationService(t)
	ctx := context.Background()
	store.apps[5] = &models.Application{ID: 5, UserID: 1, Status: models.StatusIncomplete, ReviewStatus: models.ReviewNone}

	require.NoError(t, svc.SetReviewStatus(ctx, 5, models.ReviewWaitlisted))
	assert.Equal(t, models.ReviewWaitlisted, store.apps[5].ReviewStatus)
	assert.Equal(t, models.StatusIncomplete, store.apps[5].Status, "review is independent of submission")

	require.ErrorIs(t, svc.SetReviewStatus(ctx, 5, "maybe"), common.ErrInvalidReviewStatus)
	require.ErrorIs(t, svc.SetReviewStatus(ctx, 99, models.ReviewAccepted), common.ErrorNotFound)
}

func TestApplicationService_ReadSide(t *testing.T) {
	svc, store, _ := newApplicationService(t)
	ctx := context.Background()
	at := time.Now()
	store.apps[2] = &models.Application{ID: 2, Status: models.StatusSubmitted, SubmittedAt: &at}
	store.apps[1] = &models.Application{ID: 1, Status: models.StatusIncomplete}
	store.apps[3] = &models.Application{ID: 3, Status: models.StatusSubmitted, SubmittedAt: &at}
	store.acts[2] = []models.Activity{{Type: "a"}}

	list, err := svc.ListSubmitted(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID)
	assert.Equal(t, int64(3), list[1].ID)

	acts, err := svc.ListActivities(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []models.Activity{{Type: "a"}}, acts)

	_, err = svc.GetByID(ctx, 42)
	require.ErrorIs(t, err, common.ErrorNotFound)

	store.failList = errBoom{}
	_, err = svc.ListSubmitted(ctx)
	require.ErrorContains(t, err, "error listing submitted applications: boom")
}

func TestFilterActivities_Empty(t *testing.T) {
	out := FilterActivities(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func ptr(s string) *string { return &s }

func TestApplicationService_ConcurrentAutosavesSerialize(t *testing.T) {
	ldb := newLockDB()
	db := ldb.open()
	t.Cleanup(func() { _ = db.Close() })

	store := newMemStore()
	store.afterLockedRead = func() {
		ldb.record("read")
		// widen the window in which an unlocked writer could interleave
		time.Sleep(20 * time.Millisecond)
	}
	svc := NewApplicationService(db, &fakeRepoManager{s: store})

	inputs := []struct {
		fields models.ApplicationFields
		acts   []models.Activity
	}{
		{sampleFields("Ada"), []models.Activity{{Type: "Sport"}, {Type: "Music"}}},
		{models.ApplicationFields{StudentName: "Grace", Essay1: "compilers"}, []models.Activity{{Type: "Chess"}}},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(inputs))
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, fields models.ApplicationFields, acts []models.Activity) {
			defer wg.Done()
			_, errs[i] = svc.UpsertDraft(context.Background(), 9, fields, acts)
		}(i, in.fields, in.acts)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"lock", "read", "unlock", "lock", "read", "unlock"}, ldb.Events(),
		"the advisory lock is held before the row is read and until commit")

	require.Len(t, store.apps, 1, "one draft row for the user")
	got, err := svc.GetCurrent(context.Background(), 9)
	require.NoError(t, err)

	matched := false
	for _, in := range inputs {
		if got.Fields == in.fields {
			matched = true
			assert.Equal(t, in.acts, store.acts[got.ID], "activities come from the same autosave as the fields")
		}
	}
	assert.True(t, matched, "stored fields are exactly one autosave's input, got %+v", got.Fields)
	assert.Empty(t, store.outsideTx)
}
