package coffees

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	store "github.com/Jeomhps/coffee-api/internal/coffees"
	"github.com/Jeomhps/coffee-api/internal/handlers/common"
)

// Package coffees provides the coffee resource HTTP handlers.
//
// This file defines the handler type, its constructor and response shaping.
// The HTTP methods live in dedicated files:
// - list.go:   Handler.List
// - get.go:    Handler.Get
// - create.go: Handler.Create
// - update.go: Handler.Update
// - delete.go: Handler.Delete

func init() {
	// Bodies keep numbers as json.Number so extra integer fields are not
	// rounded through float64.
	binding.EnableDecoderUseNumber = true
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Handler wires coffee endpoints to a repository.
type Handler struct {
	repo         store.Repository
	defaultLimit int
	maxLimit     int
	log          logrus.FieldLogger
}

type Option func(*Handler)

// WithPageSize sets the page size used when limit is absent or zero, and
// the ceiling larger limits are clamped to.
func WithPageSize(def, ceiling int) Option {
	return func(h *Handler) {
		if def > 0 {
			h.defaultLimit = def
		}
		if ceiling > 0 {
			h.maxLimit = ceiling
		}
		if h.defaultLimit > h.maxLimit {
			h.defaultLimit = h.maxLimit
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Handler) { h.log = log }
}

func New(repo store.Repository, opts ...Option) *Handler {
	h := &Handler{
		repo:         repo,
		defaultLimit: DefaultPageSize,
		maxLimit:     MaxPageSize,
		log:          logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// coffeeJSON flattens attributes into the top level so that a created body
// reads back the way it was sent. Known fields win over attributes.
func coffeeJSON(c *store.Coffee) gin.H {
	out := gin.H{}
	for k, v := range c.Attributes {
		out[k] = v
	}
	flavours := []string(c.Flavours)
	if flavours == nil {
		flavours = []string{}
	}
	out["id"] = c.ID
	out["name"] = c.Name
	out["brand"] = c.Brand
	out["origin"] = c.Origin
	out["price"] = c.Price
	out["flavours"] = flavours
	out["created_at"] = common.FormatTime(c.CreatedAt)
	out["updated_at"] = common.FormatTime(c.UpdatedAt)
	return out
}
