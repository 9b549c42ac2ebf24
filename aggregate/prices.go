package aggregate

import (
	"sort"

	"streamlens/catalog"
)

// PricePoint is one observation on a price line.
type PricePoint struct {
	Year  int     `json:"year"`
	Price float64 `json:"price"`
}

// PriceLine is the price history of one platform.
type PriceLine struct {
	Platform string       `json:"platform"`
	Points   []PricePoint `json:"points"`
}

// PriceSeries groups observations by platform. Lines are sorted by platform
// and points by year.
func PriceSeries(prices []catalog.PriceObservation) []PriceLine {
	byPlatform := make(map[string][]PricePoint)
	for _, p := range prices {
		byPlatform[p.Platform] = append(byPlatform[p.Platform], PricePoint{Year: p.Year, Price: p.Price})
	}

	out := make([]PriceLine, 0, len(byPlatform))
	for platform, points := range byPlatform {
		sort.SliceStable(points, func(i, j int) bool { return points[i].Year < points[j].Year })
		out = append(out, PriceLine{Platform: platform, Points: points})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out
}
