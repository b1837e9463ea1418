package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqmed/patient-api/internal/config"
	"github.com/resqmed/patient-api/pkg/logger"
)

// Roughly 111 km per degree of latitude.
const kmPerDegreeLat = 111.19

func TestHaversineZeroDistance(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(28.6139, 77.2090, 28.6139, 77.2090))
}

func TestHaversineOneDegreeLatitude(t *testing.T) {
	d := Haversine(28.0, 77.0, 29.0, 77.0)
	assert.InDelta(t, kmPerDegreeLat, d, 0.5)
}

func TestHaversineSymmetry(t *testing.T) {
	a := Haversine(28.6139, 77.2090, 19.0760, 72.8777)
	b := Haversine(19.0760, 72.8777, 28.6139, 77.2090)
	assert.InDelta(t, a, b, 1e-9)
}

func TestRankByDistanceOrdersAscending(t *testing.T) {
	// Offsets chosen so far < mid < near is the reverse of input order.
	candidates := []Candidate{
		{Name: "far", Lat: 28.0 + 0.040, Lon: 77.0},
		{Name: "mid", Lat: 28.0 + 0.020, Lon: 77.0},
		{Name: "near", Lat: 28.0 + 0.005, Lon: 77.0},
	}

	ranked := RankByDistance(28.0, 77.0, candidates, 5.0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "near", ranked[0].Name)
	assert.Equal(t, "mid", ranked[1].Name)
	assert.Equal(t, "far", ranked[2].Name)
}

func TestRankByDistanceExcludesBeyondRadius(t *testing.T) {
	candidates := []Candidate{
		{Name: "inside", Lat: 28.0 + 0.030, Lon: 77.0},  // ~3.3 km
		{Name: "outside", Lat: 28.0 + 0.060, Lon: 77.0}, // ~6.7 km
	}

	ranked := RankByDistance(28.0, 77.0, candidates, 5.0)
	require.Len(t, ranked, 1)
	assert.Equal(t, "inside", ranked[0].Name)
}

func TestRankByDistanceDisplayFormat(t *testing.T) {
	ranked := RankByDistance(28.0, 77.0, []Candidate{{Name: "x", Lat: 28.0 + 0.010, Lon: 77.0}}, 5.0)
	require.Len(t, ranked, 1)
	assert.Regexp(t, `^\d+\.\d{2}$`, ranked[0].Distance)
}

func TestInjectRecommendedAlwaysFirst(t *testing.T) {
	ranked := RankByDistance(28.0, 77.0, []Candidate{{Name: "real", Lat: 28.0 + 0.010, Lon: 77.0}}, 5.0)

	out := InjectRecommended(28.0, 77.0, ranked, 6)
	require.Len(t, out, 2)
	assert.Equal(t, "ResQMed Hospital, Your Local Area", out[0].Name)
	assert.Equal(t, "2.00", out[0].Distance)
	assert.InDelta(t, 28.001, out[0].Lat, 1e-9)
	assert.Equal(t, "real", out[1].Name)
}

func TestInjectRecommendedOnEmptyResults(t *testing.T) {
	out := InjectRecommended(28.0, 77.0, nil, 6)
	require.Len(t, out, 1)
	assert.Equal(t, "ResQMed Hospital, Your Local Area", out[0].Name)
}

func TestInjectRecommendedCapsRealResults(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 10; i++ {
		candidates = append(candidates, Candidate{Name: "h", Lat: 28.0 + float64(i)*0.001, Lon: 77.0})
	}
	ranked := RankByDistance(28.0, 77.0, candidates, 5.0)

	out := InjectRecommended(28.0, 77.0, ranked, 6)
	assert.Len(t, out, 7)
}

type stubGeocoder struct {
	candidates []Candidate
	err        error
	calls      int
}

func (s *stubGeocoder) Search(ctx context.Context, query string, lat, lon float64, limit int) ([]Candidate, error) {
	s.calls++
	return s.candidates, s.err
}

func testLocatorConfig() config.LocatorConfig {
	return config.LocatorConfig{
		RadiusKm:   5.0,
		MaxResults: 6,
		CacheTTL:   time.Minute,
	}
}

func TestNearbyHospitalsInjectsRecommended(t *testing.T) {
	geocoder := &stubGeocoder{candidates: []Candidate{{Name: "City Hospital", Lat: 28.0 + 0.010, Lon: 77.0}}}
	l := NewLocator(geocoder, testLocatorConfig(), logger.Nop(), nil)

	pois, err := l.NearbyHospitals(context.Background(), 28.0, 77.0)
	require.NoError(t, err)
	require.Len(t, pois, 2)
	assert.Equal(t, "ResQMed Hospital, Your Local Area", pois[0].Name)
	assert.Equal(t, "City Hospital", pois[1].Name)
}

func TestNearbyPoliceStationsNoRecommendedAndCappedAtFour(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 8; i++ {
		candidates = append(candidates, Candidate{Name: "PS", Lat: 28.0 + float64(i)*0.001, Lon: 77.0})
	}
	geocoder := &stubGeocoder{candidates: candidates}
	l := NewLocator(geocoder, testLocatorConfig(), logger.Nop(), nil)

	pois, err := l.NearbyPoliceStations(context.Background(), 28.0, 77.0)
	require.NoError(t, err)
	assert.Len(t, pois, 4)
	for _, p := range pois {
		assert.NotEqual(t, "ResQMed Hospital, Your Local Area", p.Name)
	}
}

func TestNearbyCachesGeocoderResponses(t *testing.T) {
	geocoder := &stubGeocoder{candidates: []Candidate{{Name: "City Hospital", Lat: 28.0 + 0.010, Lon: 77.0}}}
	l := NewLocator(geocoder, testLocatorConfig(), logger.Nop(), nil)
	ctx := context.Background()

	_, err := l.NearbyHospitals(ctx, 28.0, 77.0)
	require.NoError(t, err)
	_, err = l.NearbyHospitals(ctx, 28.0, 77.0)
	require.NoError(t, err)
	assert.Equal(t, 1, geocoder.calls)
}

func TestNearbyGeocoderError(t *testing.T) {
	geocoder := &stubGeocoder{err: errors.New("upstream down")}
	l := NewLocator(geocoder, testLocatorConfig(), logger.Nop(), nil)

	_, err := l.NearbyHospitals(context.Background(), 28.0, 77.0)
	assert.Error(t, err)
}
