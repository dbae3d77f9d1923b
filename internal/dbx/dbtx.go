// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// a helper to run functions inside a transaction, and a transaction-scoped
// advisory lock used to serialize per-user mutations.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// Advisory lock namespaces.
const (
	LockNamespaceApplicationUser = "application-user"
)

// LockKey folds namespace into key for the single bigint form of
// pg_advisory_xact_lock. Within one namespace distinct keys never collide.
func LockKey(namespace string, key int64) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(namespace))
	return int64(h.Sum64()) ^ key
}

// AdvisoryXactLock takes a PostgreSQL transaction-level advisory lock on
// (namespace, key). The lock is released at commit or rollback, so tx must be
// a transaction handle.
func AdvisoryXactLock(ctx context.Context, tx DBTX, namespace string, key int64) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, LockKey(namespace, key)); err != nil {
		return fmt.Errorf("advisory lock error: %w", err)
	}
	return nil
}
