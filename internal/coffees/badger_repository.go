package coffees

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const coffeeKeyPrefix = "coffee:"

// BadgerRepository stores each coffee as a JSON document keyed by its
// zero-padded id, so key order is id order.
type BadgerRepository struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *logrus.Logger
}

func NewBadgerRepository(path string, logger *logrus.Logger) (*BadgerRepository, error) {
	if logger == nil {
		logger = logrus.New()
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = &badgerLogger{logger: logger}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open BadgerDB")
	}
	seq, err := bdb.GetSequence([]byte("seq:coffee"), 100)
	if err != nil {
		_ = bdb.Close()
		return nil, errors.Wrap(err, "failed to open id sequence")
	}

	return &BadgerRepository{db: bdb, seq: seq, logger: logger}, nil
}

// Close releases the id sequence and closes the database.
func (r *BadgerRepository) Close() error {
	if err := r.seq.Release(); err != nil {
		r.logger.WithError(err).Warn("failed to release id sequence")
	}
	return r.db.Close()
}

func coffeeKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", coffeeKeyPrefix, id))
}

func readCoffee(txn *badger.Txn, id int64) (*Coffee, error) {
	item, err := txn.Get(coffeeKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c := &Coffee{}
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, c) }); err != nil {
		return nil, err
	}
	return c, nil
}

func writeCoffee(txn *badger.Txn, c *Coffee) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal coffee")
	}
	return txn.Set(coffeeKey(c.ID), data)
}

func (r *BadgerRepository) List(_ context.Context, page Page) ([]Coffee, error) {
	out := []Coffee{}
	offset := page.Offset

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(coffeeKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c Coffee
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &c) }); err != nil {
				return err
			}
			if c.Deleted() {
				continue
			}
			if offset > 0 {
				offset--
				continue
			}
			out = append(out, c)
			if page.Limit > 0 && len(out) >= page.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list coffees")
	}
	return out, nil
}

func (r *BadgerRepository) Get(_ context.Context, id int64) (*Coffee, error) {
	var c *Coffee
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = readCoffee(txn, id)
		if err != nil {
			return err
		}
		if c.Deleted() {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "failed to get coffee %d", id)
	}
	return c, nil
}

func (r *BadgerRepository) Create(_ context.Context, f Fields) (*Coffee, error) {
	n, err := r.seq.Next()
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate id")
	}

	c := newCoffee(f, now())
	c.ID = int64(n) + 1

	if err := r.db.Update(func(txn *badger.Txn) error { return writeCoffee(txn, &c) }); err != nil {
		return nil, errors.Wrap(err, "failed to store coffee")
	}

	r.logger.WithFields(logrus.Fields{"coffee_id": c.ID, "name": c.Name}).Info("coffee created")
	return &c, nil
}

func (r *BadgerRepository) Update(_ context.Context, id int64, f Fields) (*Coffee, error) {
	var c *Coffee
	err := r.db.Update(func(txn *badger.Txn) error {
		var err error
		c, err = readCoffee(txn, id)
		if err != nil {
			return err
		}
		if c.Deleted() {
			return ErrNotFound
		}
		f.applyTo(c)
		c.UpdatedAt = now()
		return writeCoffee(txn, c)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "failed to update coffee %d", id)
	}

	r.logger.WithField("coffee_id", id).Info("coffee updated")
	return c, nil
}

func (r *BadgerRepository) Delete(_ context.Context, id int64) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		c, err := readCoffee(txn, id)
		if err != nil {
			return err
		}
		if c.Deleted() {
			return ErrNotFound
		}
		t := now()
		c.DeletedAt = &t
		c.UpdatedAt = t
		return writeCoffee(txn, c)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return errors.Wrapf(err, "failed to delete coffee %d", id)
	}

	r.logger.WithField("coffee_id", id).Info("coffee deleted")
	return nil
}

func (r *BadgerRepository) PurgeDeleted(_ context.Context, before time.Time) (int64, error) {
	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(coffeeKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c Coffee
			item := it.Item()
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &c) }); err != nil {
				return err
			}
			if c.Deleted() && c.DeletedAt.Before(before) {
				keys = append(keys, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to scan tombstones")
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := r.db.NewWriteBatch()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			wb.Cancel()
			return 0, errors.Wrap(err, "failed to queue tombstone delete")
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, errors.Wrap(err, "failed to purge tombstones")
	}
	return int64(len(keys)), nil
}

// badgerLogger adapts logrus to badger's logger interface.
type badgerLogger struct {
	logger *logrus.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
