package coffees

import (
	"net/http"

	"github.com/gin-gonic/gin"

	store "github.com/Jeomhps/coffee-api/internal/coffees"
	"github.com/Jeomhps/coffee-api/internal/handlers/common"
)

// Update merges the body into an existing coffee.
// Known fields replace stored values; other keys merge into the coffee's
// extra attributes, and an extra key sent as null removes it.
func (h *Handler) Update(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		common.NotFound(c)
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		common.InvalidRequest(c, "body must be a JSON object")
		return
	}

	f, err := store.DecodeFields(body)
	if err != nil {
		common.RespondError(c, h.log, err)
		return
	}
	if f.Empty() {
		common.InvalidRequest(c, "no fields")
		return
	}

	coffee, err := h.repo.Update(c.Request.Context(), id, f)
	if err != nil {
		common.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, coffeeJSON(coffee))
}
