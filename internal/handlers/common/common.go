package common

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Jeomhps/coffee-api/internal/coffees"
)

// Package common provides small helpers shared by the HTTP handlers:
// error-to-status mapping, id parsing and time formatting.

// RequestIDKey is the gin context key holding the current request id.
const RequestIDKey = "request_id"

// RespondError maps a repository error onto the JSON error contract.
// Unexpected errors are logged with the request id and hidden from clients.
func RespondError(c *gin.Context, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, coffees.ErrNotFound):
		NotFound(c)
	case errors.Is(err, coffees.ErrInvalidBody):
		var be *coffees.BodyError
		if errors.As(err, &be) {
			InvalidRequest(c, be.Msg)
			return
		}
		InvalidRequest(c, err.Error())
	default:
		log.WithError(err).
			WithField("request_id", c.GetString(RequestIDKey)).
			Errorf("%s %s failed", c.Request.Method, c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
}

func InvalidRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": msg})
}

// ParseID reads a positive id from the named path parameter. Only the
// canonical decimal form matches, so "01" and "+1" are not id 1.
func ParseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 || strconv.FormatInt(id, 10) != raw {
		return 0, false
	}
	return id, true
}

// FormatTime returns an RFC3339 UTC time string.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
