package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with CORS and every API route.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.Health)

	scan := r.Group("/scan")
	{
		scan.POST("/upload-image", h.UploadImage)
		scan.POST("/process", h.ProcessScan)
	}

	r.GET("/ws", h.WebSocket)
	r.POST("/ws/upload-and-process", h.UploadAndProcess)
	r.GET("/websocket/connections", h.Connections)

	return r
}
