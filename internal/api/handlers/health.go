package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	WorkerID string
	Version  string

	// Reports whether the detection event channel is up; nil means the
	// gateway runs HTTP-only.
	natsConnected func() bool
}

func NewHealthHandler(workerID, version string, natsConnected func() bool) *HealthHandler {
	return &HealthHandler{
		WorkerID:      workerID,
		Version:       version,
		natsConnected: natsConnected,
	}
}

type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	WorkerID string `json:"worker_id" example:"alert-gateway-1"`
	Version  string `json:"version" example:"1.0.0"`
	Nats     string `json:"nats" example:"connected"`
}

// @Summary Health check
// @Description Check if the alert gateway is healthy and responsive
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	nats := "disabled"
	if h.natsConnected != nil {
		if h.natsConnected() {
			nats = "connected"
		} else {
			nats = "disconnected"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		WorkerID: h.WorkerID,
		Version:  h.Version,
		Nats:     nats,
	})
}
