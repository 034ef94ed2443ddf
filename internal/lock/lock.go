package lock

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/Jeomhps/coffee-api/internal/db"
)

// ErrNotAcquired means another holder owns the lock.
var ErrNotAcquired = errors.New("advisory lock held elsewhere")

// Lock is a held lock. Release is safe to call on a nil Lock.
type Lock interface {
	Release()
}

// Locker hands out a named, cluster-wide lock.
type Locker interface {
	Acquire(ctx context.Context) (Lock, error)
}

// ForDB returns a locker backed by the database's advisory locks: GET_LOCK
// on MySQL, pg_try_advisory_lock on PostgreSQL. SQLite has a single writer
// and gets a no-op locker.
func ForDB(d *db.DB, name string, timeoutSeconds int) Locker {
	switch d.DriverName() {
	case "mysql":
		return &advisoryLocker{db: d.DB.DB, name: name, timeout: timeoutSeconds, dialect: mysqlDialect}
	case "postgres":
		return &advisoryLocker{db: d.DB.DB, name: name, timeout: timeoutSeconds, dialect: postgresDialect}
	default:
		return Noop()
	}
}

// Noop returns a locker that always succeeds, for single-process backends.
func Noop() Locker { return noopLocker{} }

type noopLocker struct{}

func (noopLocker) Acquire(context.Context) (Lock, error) { return noopLock{}, nil }

type noopLock struct{}

func (noopLock) Release() {}

type dialect int

const (
	mysqlDialect dialect = iota
	postgresDialect
)

type advisoryLocker struct {
	db      *sql.DB
	name    string
	timeout int
	dialect dialect
}

// Advisory is a lock held on a dedicated connection; the lock lives as
// long as that session does.
type Advisory struct {
	conn     *sql.Conn
	lockName string
	dialect  dialect
	acquired bool
}

func (l *advisoryLocker) Acquire(ctx context.Context) (Lock, error) {
	c, err := l.db.Conn(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "lock connection")
	}
	a := &Advisory{conn: c, lockName: l.name, dialect: l.dialect}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(l.timeout)*time.Second+500*time.Millisecond)
		defer cancel()
	}

	var got bool
	switch l.dialect {
	case mysqlDialect:
		got, err = a.getLock(ctx, l.timeout)
	case postgresDialect:
		got, err = a.tryAdvisoryLock(ctx, l.timeout)
	}
	if err != nil {
		_ = c.Close()
		return nil, errors.Wrapf(err, "acquire advisory lock %q", l.name)
	}
	if !got {
		_ = c.Close()
		return nil, errors.Wrapf(ErrNotAcquired, "lock %q", l.name)
	}
	a.acquired = true
	return a, nil
}

func (a *Advisory) getLock(ctx context.Context, timeoutSeconds int) (bool, error) {
	var got sql.NullInt64
	if err := a.conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", a.lockName, timeoutSeconds).Scan(&got); err != nil {
		return false, err
	}
	return got.Valid && got.Int64 == 1, nil
}

// tryAdvisoryLock polls pg_try_advisory_lock until the timeout runs out;
// PostgreSQL has no blocking variant with a timeout.
func (a *Advisory) tryAdvisoryLock(ctx context.Context, timeoutSeconds int) (bool, error) {
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	for {
		var got bool
		if err := a.conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", a.lockName).Scan(&got); err != nil {
			return false, err
		}
		if got || !time.Now().Before(deadline) {
			return got, nil
		}
		select {
		case <-ctx.Done():
			return false, nil
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func (a *Advisory) Release() {
	if a == nil || a.conn == nil {
		return
	}
	if a.acquired {
		switch a.dialect {
		case mysqlDialect:
			_, _ = a.conn.ExecContext(context.Background(), "SELECT RELEASE_LOCK(?)", a.lockName)
		case postgresDialect:
			_, _ = a.conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock(hashtext($1))", a.lockName)
		}
	}
	_ = a.conn.Close()
}
