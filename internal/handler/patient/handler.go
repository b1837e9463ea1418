package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/resqmed/patient-api/internal/middleware"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/internal/service/patient"
	"github.com/resqmed/patient-api/pkg/errors"
	"github.com/resqmed/patient-api/pkg/httputil"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/patient")
	g.GET("", h.Get)
	g.PUT("", h.Update)
}

func (h *Handler) Get(c *gin.Context) {
	profile, err := h.service.Get(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) Update(c *gin.Context) {
	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	profile, err := h.service.Update(c.Request.Context(), c.GetString(middleware.ContextUserID), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}
