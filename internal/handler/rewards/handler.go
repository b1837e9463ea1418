package rewards

import (
	"github.com/gin-gonic/gin"

	"github.com/resqmed/patient-api/internal/middleware"
	"github.com/resqmed/patient-api/internal/service/rewards"
	"github.com/resqmed/patient-api/pkg/httputil"
)

type Handler struct {
	service *rewards.Service
}

func NewHandler(service *rewards.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/rewards")
	g.GET("/requests", h.ListRequests)
	g.POST("/requests/:id/accept", h.Accept)
	g.POST("/requests/:id/decline", h.Decline)
	g.GET("/stats", h.Stats)
}

func (h *Handler) ListRequests(c *gin.Context) {
	reqs, err := h.service.ListRequests(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, reqs)
}

func (h *Handler) Accept(c *gin.Context) {
	stats, err := h.service.Accept(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) Decline(c *gin.Context) {
	if err := h.service.Decline(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"declined": true})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}
