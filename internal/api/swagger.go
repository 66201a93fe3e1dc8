package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"vigilanteye-worker-go/docs"
)

func (s *Server) setupSwagger() {
	docs.SwaggerInfo.Host = fmt.Sprintf("%s:%d", s.config.SwaggerHost, s.config.SwaggerPort)
	docs.SwaggerInfo.Version = s.config.Version

	s.router.GET("/api/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"title":       "VigilantEye Alert Gateway API",
			"version":     s.config.Version,
			"description": "SMS alert dispatch gateway for weapon/violence detections",
			"swagger_ui":  "/docs/index.html",
			"endpoints": gin.H{
				"alert":      "POST /",
				"status":     "GET /",
				"test_alert": "POST /test-alert",
				"health":     "/health",
				"system":     "/system",
				"metrics":    "/metrics",
			},
			"worker_id": s.config.WorkerID,
			"port":      s.config.Port,
		})
	})

	s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
}
