package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"vigilanteye-worker-go/internal/api/handlers"
	"vigilanteye-worker-go/internal/config"
	"vigilanteye-worker-go/internal/models"
)

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	alertHandler  *handlers.AlertHandler
	healthHandler *handlers.HealthHandler
	systemHandler *handlers.SystemHandler
}

func NewServer(cfg *config.Config, dispatcher models.AlertDispatcher, natsConnected func() bool) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.HandleMethodNotAllowed = true

	return &Server{
		config:        cfg,
		router:        router,
		alertHandler:  handlers.NewAlertHandler(cfg, dispatcher),
		healthHandler: handlers.NewHealthHandler(cfg.WorkerID, cfg.Version, natsConnected),
		systemHandler: handlers.NewSystemHandler(cfg.WorkerID),
	}
}

func (s *Server) Setup() error {
	s.setupMiddleware()

	s.setupRoutes()

	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}

	return nil
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting alert gateway API")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping alert gateway API")
	return s.server.Shutdown(ctx)
}

// Router exposes the configured engine, used by handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
