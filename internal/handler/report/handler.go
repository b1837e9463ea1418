package report

import (
	"github.com/gin-gonic/gin"

	"github.com/resqmed/patient-api/internal/middleware"
	"github.com/resqmed/patient-api/internal/service/report"
	"github.com/resqmed/patient-api/pkg/errors"
	"github.com/resqmed/patient-api/pkg/httputil"
)

type Handler struct {
	service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/reports")
	g.POST("", h.Upload)
	g.GET("", h.List)
	g.GET("/:id/preview", h.Preview)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("missing report file", err))
		return
	}
	defer file.Close()

	rec, err := h.service.Upload(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, rec)
}

func (h *Handler) List(c *gin.Context) {
	reports, err := h.service.List(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, reports)
}

func (h *Handler) Preview(c *gin.Context) {
	httputil.RespondWithSuccess(c, gin.H{"url": h.service.PreviewURL(c.Param("id"))})
}

func (h *Handler) Delete(c *gin.Context) {
	deleted := h.service.Delete(c.Request.Context(), c.Param("id"))
	httputil.RespondWithSuccess(c, gin.H{"deleted": deleted})
}
