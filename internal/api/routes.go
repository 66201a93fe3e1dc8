package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	// Alert dispatch entry point plus the static status payload the
	// dashboard polls.
	s.router.POST("/", s.alertHandler.DispatchAlert)
	s.router.GET("/", s.alertHandler.ServiceStatus)
	s.router.GET("/favicon.ico", s.alertHandler.Favicon)

	s.router.POST("/test-alert", s.alertHandler.TestAlert)

	s.router.GET("/health", s.healthHandler.HealthCheck)

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
}
