package locator

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/resqmed/patient-api/internal/geo"
	"github.com/resqmed/patient-api/pkg/errors"
	"github.com/resqmed/patient-api/pkg/httputil"
)

type Handler struct {
	locator *geo.Locator
}

func NewHandler(locator *geo.Locator) *Handler {
	return &Handler{locator: locator}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/locator")
	g.GET("/hospitals", h.Hospitals)
	g.GET("/police", h.PoliceStations)
}

func (h *Handler) Hospitals(c *gin.Context) {
	lat, lon, err := coords(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	pois, lerr := h.locator.NearbyHospitals(c.Request.Context(), lat, lon)
	if lerr != nil {
		httputil.RespondWithError(c, errors.Unavailable("failed to fetch hospitals", lerr))
		return
	}
	httputil.RespondWithSuccess(c, pois)
}

func (h *Handler) PoliceStations(c *gin.Context) {
	lat, lon, err := coords(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	pois, lerr := h.locator.NearbyPoliceStations(c.Request.Context(), lat, lon)
	if lerr != nil {
		httputil.RespondWithError(c, errors.Unavailable("failed to fetch police stations", lerr))
		return
	}
	httputil.RespondWithSuccess(c, pois)
}

// coords parses the device fix from the query string. The client owns
// geolocation; a missing or denied fix never reaches this API.
func coords(c *gin.Context) (float64, float64, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, errors.BadRequest("lat must be a valid latitude", err)
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, errors.BadRequest("lon must be a valid longitude", err)
	}
	return lat, lon, nil
}
