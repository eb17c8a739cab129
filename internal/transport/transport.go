package transport

import (
	"time"

	"github.com/ds124wfegd/memeditor/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(editorHandler *EditorHandler, catalogHandler *CatalogHandler, requestTimeout time.Duration) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	sessions := router.Group("/sessions")
	{
		sessions.POST("", editorHandler.CreateSession)
		sessions.GET("/:id", editorHandler.GetSession)
		sessions.DELETE("/:id", editorHandler.DeleteSession)

		sessions.POST("/:id/image", editorHandler.UploadImage)
		sessions.POST("/:id/image/random", editorHandler.RandomImage)
		sessions.POST("/:id/image/url", editorHandler.ImageFromURL)

		sessions.PUT("/:id/text", editorHandler.SetText)
		sessions.PUT("/:id/style", editorHandler.SetStyle)
		sessions.PUT("/:id/mode", editorHandler.SetMode)
		sessions.POST("/:id/pointer", editorHandler.Pointer)
		sessions.POST("/:id/reset", editorHandler.Reset)

		sessions.GET("/:id/canvas", editorHandler.Canvas)
		sessions.POST("/:id/export", editorHandler.Export)
	}

	router.GET("/catalog", catalogHandler.List)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "meme-editor-service",
		})
	})
	return router
}
