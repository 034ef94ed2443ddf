package coffees

import (
	"net/http"

	"github.com/gin-gonic/gin"

	store "github.com/Jeomhps/coffee-api/internal/coffees"
	"github.com/Jeomhps/coffee-api/internal/handlers/common"
)

type listQuery struct {
	Limit  *int `form:"limit" binding:"omitempty,min=0"`
	Offset *int `form:"offset" binding:"omitempty,min=0"`
}

// List returns a page of coffees ordered by id.
// - Query params:
//   - limit=<n>  -> page size; absent or 0 uses the default, larger than max is clamped
//   - offset=<n> -> number of coffees to skip
func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.InvalidRequest(c, "limit and offset must be non-negative integers")
		return
	}

	page := store.Page{Limit: h.defaultLimit}
	if q.Limit != nil && *q.Limit > 0 {
		page.Limit = min(*q.Limit, h.maxLimit)
	}
	if q.Offset != nil {
		page.Offset = *q.Offset
	}

	items, err := h.repo.List(c.Request.Context(), page)
	if err != nil {
		common.RespondError(c, h.log, err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, coffeeJSON(&items[i]))
	}
	c.JSON(http.StatusOK, out)
}
