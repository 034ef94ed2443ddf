package cmd

import (
	"github.com/pkg/errors"

	"github.com/Jeomhps/coffee-api/internal/coffees"
	"github.com/Jeomhps/coffee-api/internal/config"
	"github.com/Jeomhps/coffee-api/internal/db"
	"github.com/Jeomhps/coffee-api/internal/lock"
)

// backend is the storage selected by COFFEE_BACKEND plus the locker that
// guards maintenance runs against it.
type backend struct {
	repo   coffees.Repository
	locker lock.Locker
	close  func()
}

func openBackend() (*backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn("using in-memory storage; coffees are lost on exit")
		return &backend{repo: coffees.NewMemoryRepository(log), locker: lock.Noop(), close: func() {}}, nil

	case config.BackendBadger:
		repo, err := coffees.NewBadgerRepository(cfg.BadgerPath, log)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.BadgerPath).Info("opened badger store")
		return &backend{repo: repo, locker: lock.Noop(), close: func() {
			if err := repo.Close(); err != nil {
				log.WithError(err).Warn("close badger store")
			}
		}}, nil

	default:
		d, err := openDB()
		if err != nil {
			return nil, err
		}
		if err := d.Migrate(log); err != nil {
			_ = d.Close()
			return nil, err
		}
		return &backend{
			repo:   coffees.NewSQLRepository(d, log),
			locker: lock.ForDB(d, cfg.Purge.LockName, cfg.Purge.LockTimeout),
			close:  func() { _ = d.Close() },
		}, nil
	}
}

func openDB() (*db.DB, error) {
	if cfg.Backend != config.BackendSQL {
		return nil, errors.Errorf("backend %q has no SQL database", cfg.Backend)
	}
	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN(), cfg.Database.ConnectAttempts, log)
	if err != nil {
		return nil, err
	}
	log.WithField("driver", cfg.Database.Driver).Info("connected to database")
	return d, nil
}
