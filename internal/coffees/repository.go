package coffees

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound    = errors.New("coffee not found")
	ErrInvalidBody = errors.New("invalid body")
)

// Page selects a window of the id-ordered collection. A zero Limit means
// no upper bound.
type Page struct {
	Limit  int
	Offset int
}

// Repository persists coffees. Deleted coffees are tombstoned and are
// invisible to every read until purged.
type Repository interface {
	// List returns live coffees ordered by id.
	List(ctx context.Context, page Page) ([]Coffee, error)

	// Get returns the live coffee with exactly this id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Coffee, error)

	// Create assigns a fresh id and stores the coffee built from f.
	Create(ctx context.Context, f Fields) (*Coffee, error)

	// Update merges f into the live coffee with this id.
	Update(ctx context.Context, id int64, f Fields) (*Coffee, error)

	// Delete tombstones the live coffee with this id.
	Delete(ctx context.Context, id int64) error

	// PurgeDeleted removes tombstones older than before and returns how
	// many were removed.
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

func newCoffee(f Fields, now time.Time) Coffee {
	c := Coffee{CreatedAt: now, UpdatedAt: now}
	f.applyTo(&c)
	return c
}

// window applies page to a slice already ordered by id.
func window(items []Coffee, page Page) []Coffee {
	if page.Offset < 0 {
		page.Offset = 0
	}
	if page.Offset >= len(items) {
		return []Coffee{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
