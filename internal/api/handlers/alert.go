package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vigilanteye-worker-go/internal/config"
	"vigilanteye-worker-go/internal/models"
)

// AlertHandler exposes the alert gateway over HTTP.
type AlertHandler struct {
	cfg        *config.Config
	dispatcher models.AlertDispatcher
}

func NewAlertHandler(cfg *config.Config, dispatcher models.AlertDispatcher) *AlertHandler {
	return &AlertHandler{
		cfg:        cfg,
		dispatcher: dispatcher,
	}
}

type ServiceStatusResponse struct {
	Service   string            `json:"service" example:"Security Alert System"`
	Status    string            `json:"status" example:"Operational"`
	Endpoints map[string]string `json:"endpoints"`
}

// @Summary Dispatch a security alert
// @Description Validate a detection event and send exactly one SMS per cooldown window per recipient
// @Tags alerts
// @Accept json
// @Produce json
// @Param request body models.AlertRequest true "Alert request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router / [post]
func (h *AlertHandler) DispatchAlert(c *gin.Context) {
	var req models.AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Invalid JSON payload",
		})
		return
	}

	result := h.dispatcher.Dispatch(c.Request.Context(), req)
	writeResult(c, result)
}

// @Summary Service status
// @Description Static status payload for the dashboard
// @Tags alerts
// @Produce json
// @Success 200 {object} ServiceStatusResponse
// @Router / [get]
func (h *AlertHandler) ServiceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, ServiceStatusResponse{
		Service: "Security Alert System",
		Status:  "Operational",
		Endpoints: map[string]string{
			"alert": "POST /",
		},
	})
}

// Favicon answers browser favicon probes with no content.
func (h *AlertHandler) Favicon(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// @Summary Fire a test alert
// @Description Dispatch a canned alert to the default recipient
// @Tags alerts
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /test-alert [post]
func (h *AlertHandler) TestAlert(c *gin.Context) {
	req := models.AlertRequest{
		Message:       "Test alert triggered manually",
		DetectionType: models.DetectionTypeViolence,
		Timestamp:     time.Now().Format(time.RFC3339),
		Confidence:    0.95,
		Location:      "test",
	}

	result := h.dispatcher.Dispatch(c.Request.Context(), req)
	writeResult(c, result)
}

// writeResult maps an AlertResult onto the wire contract: 200 carries
// the sid, 429 carries only the cooldown message, everything else
// carries an error field.
func writeResult(c *gin.Context, result models.AlertResult) {
	switch {
	case result.Success:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"sid":     result.SID,
			"message": result.Message,
		})
	case result.StatusCode == http.StatusTooManyRequests:
		c.JSON(result.StatusCode, gin.H{
			"success": false,
			"message": result.Message,
		})
	default:
		c.JSON(result.StatusCode, gin.H{
			"success": false,
			"error":   result.Error,
		})
	}
}
