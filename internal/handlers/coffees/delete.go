package coffees

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jeomhps/coffee-api/internal/handlers/common"
)

// Delete removes a coffee. It stays invisible to every read from then on
// and is purged for good once the retention window has passed.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		common.NotFound(c)
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		common.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
