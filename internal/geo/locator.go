package geo

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"github.com/resqmed/patient-api/internal/config"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/pkg/logger"
	"github.com/resqmed/patient-api/pkg/metrics"
)

// Geocoder searches points of interest by free-text category around a
// coordinate.
type Geocoder interface {
	Search(ctx context.Context, query string, lat, lon float64, limit int) ([]Candidate, error)
}

// Locator ranks nearby facilities for a device coordinate. Results are
// ephemeral; only the geocoder responses are cached.
type Locator struct {
	geocoder Geocoder
	cache    *gocache.Cache
	cfg      config.LocatorConfig
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func NewLocator(geocoder Geocoder, cfg config.LocatorConfig, log *logger.Logger, m *metrics.Metrics) *Locator {
	return &Locator{
		geocoder: geocoder,
		cache:    gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		cfg:      cfg,
		log:      log,
		metrics:  m,
	}
}

// NearbyHospitals returns the ranked hospital list with the recommended
// facility injected first.
func (l *Locator) NearbyHospitals(ctx context.Context, lat, lon float64) ([]*model.POI, error) {
	ranked, err := l.nearby(ctx, "hospital", lat, lon, 30)
	if err != nil {
		return nil, err
	}
	return InjectRecommended(lat, lon, ranked, l.cfg.MaxResults), nil
}

// NearbyPoliceStations returns the ranked police-station list. No
// recommended slot here; only hospitals get one.
func (l *Locator) NearbyPoliceStations(ctx context.Context, lat, lon float64) ([]*model.POI, error) {
	ranked, err := l.nearby(ctx, "police station", lat, lon, 20)
	if err != nil {
		return nil, err
	}
	if len(ranked) > 4 {
		ranked = ranked[:4]
	}
	return ranked, nil
}

func (l *Locator) nearby(ctx context.Context, category string, lat, lon float64, limit int) ([]*model.POI, error) {
	if l.metrics != nil {
		l.metrics.LocatorQueries.WithLabelValues(category).Inc()
	}

	key := fmt.Sprintf("%s:%.4f:%.4f", category, lat, lon)
	if cached, ok := l.cache.Get(key); ok {
		if l.metrics != nil {
			l.metrics.LocatorCacheHits.Inc()
		}
		return RankByDistance(lat, lon, cached.([]Candidate), l.cfg.RadiusKm), nil
	}

	candidates, err := l.geocoder.Search(ctx, category, lat, lon, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", category, err)
	}
	l.cache.Set(key, candidates, gocache.DefaultExpiration)

	return RankByDistance(lat, lon, candidates, l.cfg.RadiusKm), nil
}
