package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
)

// lockDB is a database/sql connector whose only statement is
// pg_advisory_xact_lock. Locks block like PostgreSQL's and are released when
// the owning transaction ends. Every step is appended to events.
type lockDB struct {
	mu     sync.Mutex
	locks  map[int64]chan struct{}
	events []string
}

func newLockDB() *lockDB {
	return &lockDB{locks: map[int64]chan struct{}{}}
}

func (d *lockDB) open() *sql.DB { return sql.OpenDB(d) }

func (d *lockDB) record(event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *lockDB) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

func (d *lockDB) lockChan(key int64) chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		d.locks[key] = ch
	}
	return ch
}

func (d *lockDB) Connect(context.Context) (driver.Conn, error) { return &lockConn{db: d}, nil }
func (d *lockDB) Driver() driver.Driver                        { return lockDriver{} }

type lockDriver struct{}

func (lockDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("use sql.OpenDB")
}

type lockConn struct {
	db   *lockDB
	held []int64
}

func (c *lockConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *lockConn) Close() error { return nil }

func (c *lockConn) Begin() (driver.Tx, error) { return &lockTx{c: c}, nil }

func (c *lockConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if !strings.Contains(query, "pg_advisory_xact_lock") || len(args) != 1 {
		return nil, errors.New("unexpected statement: " + query)
	}
	key, ok := args[0].Value.(int64)
	if !ok {
		return nil, errors.New("lock key must be bigint")
	}

	select {
	case c.db.lockChan(key) <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	c.held = append(c.held, key)
	c.db.record("lock")
	return driver.RowsAffected(0), nil
}

type lockTx struct{ c *lockConn }

func (t *lockTx) Commit() error   { t.release(); return nil }
func (t *lockTx) Rollback() error { t.release(); return nil }

func (t *lockTx) release() {
	if len(t.c.held) == 0 {
		return
	}
	t.c.db.record("unlock")
	for _, key := range t.c.held {
		<-t.c.db.lockChan(key)
	}
	t.c.held = nil
}
