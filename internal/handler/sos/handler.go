package sos

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/resqmed/patient-api/internal/middleware"
	"github.com/resqmed/patient-api/internal/service/alert"
	"github.com/resqmed/patient-api/internal/sos"
	"github.com/resqmed/patient-api/pkg/errors"
	"github.com/resqmed/patient-api/pkg/httputil"
)

type Handler struct {
	manager *sos.Manager
	alerts  *alert.Service
}

func NewHandler(manager *sos.Manager, alerts *alert.Service) *Handler {
	return &Handler{manager: manager, alerts: alerts}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/sos")
	g.GET("", h.Status)
	g.POST("/trigger", h.Trigger)
	g.POST("/confirm", h.Confirm)
	g.POST("/cancel", h.Cancel)
	g.POST("/close", h.Close)
	g.POST("/police", h.PoliceAlert)
}

func (h *Handler) machine(c *gin.Context) *sos.Machine {
	return h.manager.Machine(c.GetString(middleware.ContextUserID))
}

func (h *Handler) Status(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.machine(c).Snapshot())
}

func (h *Handler) Trigger(c *gin.Context) {
	h.transition(c, h.machine(c).Trigger)
}

func (h *Handler) Confirm(c *gin.Context) {
	h.transition(c, h.machine(c).Confirm)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.machine(c).Cancel)
}

func (h *Handler) Close(c *gin.Context) {
	h.transition(c, h.machine(c).Close)
}

func (h *Handler) transition(c *gin.Context, fn func() error) {
	m := h.machine(c)
	if err := fn(); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}
	httputil.RespondWithSuccess(c, m.Snapshot())
}

// PoliceAlert publishes a police notification for the user's position.
// Simulated dispatch, same as the SOS acceptance.
func (h *Handler) PoliceAlert(c *gin.Context) {
	var req struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	h.alerts.Publish(context.WithoutCancel(c.Request.Context()), alert.Alert{
		UserID: c.GetString(middleware.ContextUserID),
		Kind:   "police_alert",
		Lat:    req.Lat,
		Lon:    req.Lon,
	})
	httputil.RespondWithSuccess(c, gin.H{"alerted": true})
}
