package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler exposes process-level stats for the gateway instance.
type SystemHandler struct {
	WorkerID  string
	startedAt time.Time
}

func NewSystemHandler(workerID string) *SystemHandler {
	return &SystemHandler{
		WorkerID:  workerID,
		startedAt: time.Now(),
	}
}

// @Summary Get system stats
// @Description Process stats for the running gateway instance
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"worker_id":      h.WorkerID,
			"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
			"memory_mb":      m.Alloc / 1024 / 1024,
			"gc_cycles":      m.NumGC,
			"cpu_cores":      runtime.NumCPU(),
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
		},
		"timestamp": time.Now().Unix(),
	})
}
