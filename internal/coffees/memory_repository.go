package coffees

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MemoryRepository keeps coffees in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	items  map[int64]*Coffee
	nextID int64
	logger *logrus.Logger
}

func NewMemoryRepository(logger *logrus.Logger) *MemoryRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return &MemoryRepository{items: map[int64]*Coffee{}, logger: logger}
}

func (r *MemoryRepository) List(_ context.Context, page Page) ([]Coffee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Coffee, 0, len(r.items))
	for _, c := range r.items {
		if !c.Deleted() {
			out = append(out, c.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, page), nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (*Coffee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok || c.Deleted() {
		return nil, ErrNotFound
	}
	out := c.clone()
	return &out, nil
}

func (r *MemoryRepository) Create(_ context.Context, f Fields) (*Coffee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	c := newCoffee(f, now())
	c.ID = r.nextID
	r.items[c.ID] = &c

	r.logger.WithFields(logrus.Fields{"coffee_id": c.ID, "name": c.Name}).Info("coffee created")
	out := c.clone()
	return &out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id int64, f Fields) (*Coffee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok || c.Deleted() {
		return nil, ErrNotFound
	}
	f.applyTo(c)
	c.UpdatedAt = now()

	r.logger.WithField("coffee_id", id).Info("coffee updated")
	out := c.clone()
	return &out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok || c.Deleted() {
		return ErrNotFound
	}
	t := now()
	c.DeletedAt = &t
	c.UpdatedAt = t

	r.logger.WithField("coffee_id", id).Info("coffee deleted")
	return nil
}

func (r *MemoryRepository) PurgeDeleted(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, c := range r.items {
		if c.Deleted() && c.DeletedAt.Before(before) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}
