package http

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DataDir   string    `json:"data_dir,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	dataDir     string
}

func NewHealthHandler(serviceName, version, dataDir string) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		dataDir:     dataDir,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dataStatus := "up"
	if info, err := os.Stat(h.dataDir); err != nil || !info.IsDir() {
		dataStatus = "down"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DataDir:   dataStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
