package transport

import (
	"net/http"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/gin-gonic/gin"
)

func (h *CatalogHandler) List(c *gin.Context) {
	memes, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	var resp entity.CatalogResponse
	resp.Success = true
	resp.Data.Memes = memes
	c.JSON(http.StatusOK, resp)
}
