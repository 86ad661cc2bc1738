package health

import (
	"net/http"
	"runtime"
	"time"

	"crafting-planner/internal/core/aggregate"
	"crafting-planner/internal/core/session"
	"crafting-planner/internal/infrastructure/config"
	"crafting-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Sessions  *session.Stats         `json:"sessions,omitempty"`
	Queue     *aggregate.Status      `json:"queue,omitempty"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	// 獲取配置
	cfg, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return
	}
	config, ok := cfg.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid configuration type",
		})
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if v, ok := c.Get("session_manager"); ok {
		if sessions, ok := v.(*session.Manager); ok {
			stats := sessions.Stats()
			response.Sessions = &stats
		}
	}
	if v, ok := c.Get("aggregate_queue"); ok {
		if queue, ok := v.(*aggregate.Queue); ok {
			status := queue.Status()
			response.Queue = &status
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器
// 計算隊列已滿時回報未就緒
func ReadinessCheck(c *gin.Context) {
	if v, ok := c.Get("aggregate_queue"); ok {
		if queue, ok := v.(*aggregate.Queue); ok {
			status := queue.Status()
			if status.QueueLength >= status.MaxQueueSize {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "busy",
					"queue":  status,
				})
				return
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
