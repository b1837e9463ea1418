package model

// POI is a nearby point of interest (hospital or police station) with
// its computed distance from the query origin. POIs are derived per
// query and never persisted.
type POI struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Distance string  `json:"distance"` // kilometers, two decimals
}
