package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/resqmed/patient-api/internal/gateway"
)

type Handler struct {
	gw *gateway.Gateway
}

func NewHandler(gw *gateway.Gateway) *Handler {
	return &Handler{gw: gw}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.Health)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"gateway_mode": h.gw.Mode(),
	})
}
