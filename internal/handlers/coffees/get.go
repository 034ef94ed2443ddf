package coffees

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jeomhps/coffee-api/internal/handlers/common"
)

// Get returns the coffee whose id matches the path exactly.
// Ids that are not positive integers cannot exist and yield not_found.
func (h *Handler) Get(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		common.NotFound(c)
		return
	}

	coffee, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, coffeeJSON(coffee))
}
