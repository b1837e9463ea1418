package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// NominatimGeocoder queries an OpenStreetMap Nominatim search endpoint,
// bounding the query to a viewbox around the origin.
type NominatimGeocoder struct {
	http    *http.Client
	baseURL string
	viewbox float64
}

func NewNominatimGeocoder(baseURL string, viewboxDelta float64) *NominatimGeocoder {
	return &NominatimGeocoder{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		viewbox: viewboxDelta,
	}
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (g *NominatimGeocoder) Search(ctx context.Context, query string, lat, lon float64, limit int) ([]Candidate, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("bounded", "1")
	params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f",
		lon-g.viewbox, lat+g.viewbox, lon+g.viewbox, lat-g.viewbox))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoder request: %w", err)
	}
	req.Header.Set("User-Agent", "resqmed-patient-api")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		plat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		plon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{Name: r.DisplayName, Lat: plat, Lon: plon})
	}
	return candidates, nil
}
