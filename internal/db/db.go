package db

import (
	"embed"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var migrations embed.FS

type DB struct {
	*sqlx.DB
}

// Open connects using driver ("mysql", "postgres" or "sqlite3") and retries
// the initial ping up to attempts times, one second apart.
func Open(driver, dsn string, attempts int, log *logrus.Logger) (*DB, error) {
	xdb, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}

	if driver == "sqlite3" {
		// One writer; also keeps ":memory:" databases on a single connection.
		xdb.SetMaxOpenConns(1)
	} else {
		xdb.SetConnMaxLifetime(2 * time.Hour)
		xdb.SetMaxIdleConns(10)
		xdb.SetMaxOpenConns(50)
	}

	if attempts <= 0 {
		attempts = 1
	}
	for i := 1; ; i++ {
		err = xdb.Ping()
		if err == nil {
			break
		}
		if i >= attempts {
			_ = xdb.Close()
			return nil, errors.Wrapf(err, "database not reachable after %d attempt(s)", attempts)
		}
		log.WithError(err).Warnf("database ping failed (%d/%d), retrying", i, attempts)
		time.Sleep(time.Second)
	}

	return &DB{DB: xdb}, nil
}

func (d *DB) Close() error { return d.DB.Close() }

// Migrate applies the embedded goose migrations for the connection's dialect.
func (d *DB) Migrate(log *logrus.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(log)
	if err := goose.SetDialect(d.DriverName()); err != nil {
		return errors.Wrap(err, "set migration dialect")
	}

	if err := goose.Up(d.DB.DB, "migrations/"+d.DriverName()); err != nil {
		return errors.Wrap(err, "migrate")
	}
	return nil
}

// IsPostgres reports whether placeholders must be $n style.
func (d *DB) IsPostgres() bool { return d.DriverName() == "postgres" }

// IsSQLite reports whether the connection targets SQLite.
func (d *DB) IsSQLite() bool { return d.DriverName() == "sqlite3" }
