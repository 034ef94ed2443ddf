package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Jeomhps/coffee-api/internal/handlers/coffees"
	"github.com/Jeomhps/coffee-api/internal/middleware"
)

// Route binds one method and path to a handler.
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Routes is the coffee resource route table.
func Routes(h *coffees.Handler) []Route {
	return []Route{
		{http.MethodGet, "/coffees/flavours", h.List},
		{http.MethodGet, "/coffees", h.List},
		{http.MethodGet, "/coffees/:id", h.Get},
		{http.MethodPost, "/coffees", h.Create},
		{http.MethodPatch, "/coffees/:id", h.Update},
		{http.MethodDelete, "/coffees/:id", h.Delete},
	}
}

// New builds the gin engine with recovery, request ids, request logging,
// the health probe and every route in routes.
func New(log *logrus.Logger, routes []Route) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	for _, rt := range routes {
		r.Handle(rt.Method, rt.Path, rt.Handler)
	}
	return r
}
