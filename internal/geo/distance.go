package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/resqmed/patient-api/internal/model"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Candidate is a raw geocoder result before ranking.
type Candidate struct {
	Name string
	Lat  float64
	Lon  float64
}

// RankByDistance computes each candidate's distance from the origin,
// drops anything beyond radiusKm and returns the rest sorted ascending
// by true distance. Display distances carry two decimals.
func RankByDistance(originLat, originLon float64, candidates []Candidate, radiusKm float64) []*model.POI {
	type scored struct {
		poi *model.POI
		km  float64
	}

	within := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		d := Haversine(originLat, originLon, c.Lat, c.Lon)
		if d > radiusKm {
			continue
		}
		within = append(within, scored{
			poi: &model.POI{
				Name:     c.Name,
				Lat:      c.Lat,
				Lon:      c.Lon,
				Distance: fmt.Sprintf("%.2f", d),
			},
			km: d,
		})
	}
	sort.SliceStable(within, func(i, j int) bool {
		return within[i].km < within[j].km
	})

	ranked := make([]*model.POI, len(within))
	for i, s := range within {
		ranked[i] = s.poi
	}
	return ranked
}

// InjectRecommended prepends the synthetic "home" facility and caps the
// real results. Kept out of the ranking comparator on purpose: the
// recommended slot is a product decision, not a distance result, and the
// true-distance ordering of the rest must stay testable on its own.
func InjectRecommended(originLat, originLon float64, ranked []*model.POI, maxResults int) []*model.POI {
	recommended := &model.POI{
		Name:     "ResQMed Hospital, Your Local Area",
		Lat:      originLat + 0.001,
		Lon:      originLon + 0.001,
		Distance: "2.00",
	}

	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	out := make([]*model.POI, 0, len(ranked)+1)
	out = append(out, recommended)
	return append(out, ranked...)
}
