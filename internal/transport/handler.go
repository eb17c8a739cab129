package transport

import (
	"errors"
	"net/http"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/service"
	"github.com/gin-gonic/gin"
)

type EditorHandler struct {
	service service.EditorService
}

func NewEditorHandler(service service.EditorService) *EditorHandler {
	return &EditorHandler{service: service}
}

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(service service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrSessionLimit):
		return http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, entity.ErrImageDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, entity.ErrPreconditionNotMet),
		errors.Is(err, entity.ErrNoChangeToExport),
		errors.Is(err, entity.ErrLoadSuperseded),
		errors.Is(err, entity.ErrWrongMode):
		return http.StatusConflict
	case errors.Is(err, entity.ErrInvalidStyle), errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": service.UserMessage(err)})
}
