package coffees

import (
	"context"
	"database/sql"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Jeomhps/coffee-api/internal/db"
)

var coffeeColumns = []string{
	"id", "name", "brand", "origin", "price", "flavours", "attributes",
	"created_at", "updated_at", "deleted_at",
}

// SQLRepository stores coffees in the coffees table of a MySQL, PostgreSQL
// or SQLite database.
type SQLRepository struct {
	db     *db.DB
	sb     sq.StatementBuilderType
	logger *logrus.Logger
}

func NewSQLRepository(d *db.DB, logger *logrus.Logger) *SQLRepository {
	if logger == nil {
		logger = logrus.New()
	}
	var ph sq.PlaceholderFormat = sq.Question
	if d.IsPostgres() {
		ph = sq.Dollar
	}
	return &SQLRepository{
		db:     d,
		sb:     sq.StatementBuilder.PlaceholderFormat(ph),
		logger: logger,
	}
}

func (r *SQLRepository) selectLive() sq.SelectBuilder {
	return r.sb.Select(coffeeColumns...).From("coffees").Where(sq.Eq{"deleted_at": nil})
}

func (r *SQLRepository) List(ctx context.Context, page Page) ([]Coffee, error) {
	q := r.selectLive().OrderBy("id ASC")
	switch {
	case page.Limit > 0:
		q = q.Limit(uint64(page.Limit))
	case page.Offset > 0:
		// MySQL and SQLite reject OFFSET without LIMIT.
		q = q.Limit(math.MaxInt64)
	}
	if page.Offset > 0 {
		q = q.Offset(uint64(page.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list query")
	}

	out := []Coffee{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, errors.Wrap(err, "list coffees")
	}
	return out, nil
}

func (r *SQLRepository) Get(ctx context.Context, id int64) (*Coffee, error) {
	query, args, err := r.selectLive().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build get query")
	}

	var c Coffee
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get coffee %d", id)
	}
	return &c, nil
}

func (r *SQLRepository) Create(ctx context.Context, f Fields) (*Coffee, error) {
	c := newCoffee(f, now())

	ins := r.sb.Insert("coffees").
		Columns("name", "brand", "origin", "price", "flavours", "attributes", "created_at", "updated_at").
		Values(c.Name, c.Brand, c.Origin, c.Price, c.Flavours, c.Attributes, c.CreatedAt, c.UpdatedAt)

	if r.db.IsPostgres() {
		query, args, err := ins.Suffix("RETURNING id").ToSql()
		if err != nil {
			return nil, errors.Wrap(err, "build insert")
		}
		if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&c.ID); err != nil {
			return nil, errors.Wrap(err, "insert coffee")
		}
	} else {
		query, args, err := ins.ToSql()
		if err != nil {
			return nil, errors.Wrap(err, "build insert")
		}
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, errors.Wrap(err, "insert coffee")
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return nil, errors.Wrap(err, "read inserted id")
		}
	}

	r.logger.WithFields(logrus.Fields{"coffee_id": c.ID, "name": c.Name}).Info("coffee created")
	return &c, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int64, f Fields) (*Coffee, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin update")
	}
	defer tx.Rollback()

	sel := r.selectLive().Where(sq.Eq{"id": id})
	if !r.db.IsSQLite() {
		sel = sel.Suffix("FOR UPDATE")
	}
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build select for update")
	}

	var c Coffee
	if err := tx.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "load coffee %d", id)
	}

	f.applyTo(&c)
	c.UpdatedAt = now()

	query, args, err = r.sb.Update("coffees").
		SetMap(map[string]any{
			"name":       c.Name,
			"brand":      c.Brand,
			"origin":     c.Origin,
			"price":      c.Price,
			"flavours":   c.Flavours,
			"attributes": c.Attributes,
			"updated_at": c.UpdatedAt,
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build update")
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, errors.Wrapf(err, "update coffee %d", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit update")
	}

	r.logger.WithField("coffee_id", id).Info("coffee updated")
	return &c, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	t := now()
	query, args, err := r.sb.Update("coffees").
		Set("deleted_at", t).
		Set("updated_at", t).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build delete")
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "delete coffee %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	r.logger.WithField("coffee_id", id).Info("coffee deleted")
	return nil
}

func (r *SQLRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	query, args, err := r.sb.Delete("coffees").
		Where(sq.And{sq.NotEq{"deleted_at": nil}, sq.Lt{"deleted_at": before.UTC()}}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "build purge")
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "purge coffees")
	}
	return res.RowsAffected()
}
