package coffees

import (
	"net/http"

	"github.com/gin-gonic/gin"

	store "github.com/Jeomhps/coffee-api/internal/coffees"
	"github.com/Jeomhps/coffee-api/internal/handlers/common"
)

// Create stores a new coffee from a JSON object body.
// Keys other than the known columns are kept and echoed back.
func (h *Handler) Create(c *gin.Context) {
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

	coffee, err := h.repo.Create(c.Request.Context(), f)
	if err != nil {
		common.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, coffeeJSON(coffee))
}
