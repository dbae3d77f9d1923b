package dbx

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY, v TEXT);`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('ok')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, db), "must commit on success")
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('fail')`)
		require.NoError(t, e)
		return errors.New("boom")
	})
	require.Error(t, err)

	require.Equal(t, 0, countRows(t, db), "must rollback when fn returns error")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, db), "must rollback on panic")
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('panic')`)
		require.NoError(t, e)
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err, "begin should fail when DB is closed")
}

func TestAdvisoryXactLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	q := regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)
	mock.ExpectExec(q).WithArgs(LockKey(LockNamespaceApplicationUser, 42)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs(LockKey(LockNamespaceApplicationUser, 43)).WillReturnError(errors.New("conn reset"))

	require.NoError(t, AdvisoryXactLock(context.Background(), db, LockNamespaceApplicationUser, 42))

	err = AdvisoryXactLock(context.Background(), db, LockNamespaceApplicationUser, 43)
	require.ErrorContains(t, err, "advisory lock error: conn reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockKey_WideIDsStayDistinct(t *testing.T) {
	ns := LockNamespaceApplicationUser

	ids := []int64{1, 2, 1 << 31, 1<<31 + 1, 1 << 32, 1<<32 + 1, 1<<62 + 7}
	seen := make(map[int64]int64, len(ids))
	for _, id := range ids {
		k := LockKey(ns, id)
		if prev, ok := seen[k]; ok {
			t.Fatalf("ids %d and %d share lock key %d", prev, id, k)
		}
		seen[k] = id
	}

	require.Equal(t, LockKey(ns, 42), LockKey(ns, 42))
	require.NotEqual(t, LockKey(ns, 42), LockKey("other", 42))
}
