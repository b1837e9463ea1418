package appointment

import (
	"github.com/gin-gonic/gin"

	"github.com/resqmed/patient-api/internal/middleware"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/internal/service/appointment"
	"github.com/resqmed/patient-api/pkg/errors"
	"github.com/resqmed/patient-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/appointments")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	apt, err := h.service.Create(c.Request.Context(), c.GetString(middleware.ContextUserID), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) List(c *gin.Context) {
	apts, err := h.service.List(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apts)
}

func (h *Handler) Delete(c *gin.Context) {
	deleted := h.service.Delete(c.Request.Context(), c.Param("id"))
	httputil.RespondWithSuccess(c, gin.H{"deleted": deleted})
}
