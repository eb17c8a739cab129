package transport

import (
	"fmt"
	"net/http"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/gin-gonic/gin"
)

func (h *EditorHandler) CreateSession(c *gin.Context) {
	var req entity.CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	snap, err := h.service.CreateSession(req.Mode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *EditorHandler) GetSession(c *gin.Context) {
	snap, err := h.service.GetSession(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EditorHandler) DeleteSession(c *gin.Context) {
	if err := h.service.DeleteSession(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

func (h *EditorHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	snap, err := h.service.LoadUpload(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EditorHandler) RandomImage(c *gin.Context) {
	snap, err := h.service.LoadRandom(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EditorHandler) ImageFromURL(c *gin.Context) {
	var req entity.ImageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.service.LoadURL(c.Request.Context(), c.Param("id"), req.URL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EditorHandler) SetText(c *gin.Context) {
	var req entity.Texts
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.service.SetTexts(c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EditorHandler) SetStyle(c *gin.Context) {
	var req entity.TextStyle
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.service.SetStyle(c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EditorHandler) SetMode(c *gin.Context) {
	var req entity.ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.service.SetMode(c.Param("id"), req.Mode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EditorHandler) Pointer(c *gin.Context) {
	var req entity.PointerEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.service.Pointer(c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EditorHandler) Reset(c *gin.Context) {
	snap, err := h.service.Reset(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *EditorHandler) Canvas(c *gin.Context) {
	data, err := h.service.Canvas(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

func (h *EditorHandler) Export(c *gin.Context) {
	res, err := h.service.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Header("X-Export-ID", res.Export.ID)
	c.Data(http.StatusOK, "image/png", res.Data)
}
