package aggregate

import (
	"sort"

	"streamlens/catalog"
)

// BarMode tells the bar chart whether to draw one type or both.
type BarMode string

const (
	ModeSingle    BarMode = "single"
	ModeButterfly BarMode = "butterfly"
)

// PlatformTypeCount is one bar pair of the comparative bar chart.
type PlatformTypeCount struct {
	Platform   string `json:"platform"`
	ShowCount  int    `json:"show_count"`
	MovieCount int    `json:"movie_count"`
}

// Total is the number of typed titles of the platform.
func (c PlatformTypeCount) Total() int { return c.ShowCount + c.MovieCount }

// TypeCountView is the bar chart data with its drawing mode.
type TypeCountView struct {
	Mode   BarMode             `json:"mode"`
	Type   catalog.ContentType `json:"type,omitempty"`
	Counts []PlatformTypeCount `json:"counts"`
}

// TypeCounts tallies shows and movies per platform, largest platforms first.
// Platforms with equal totals keep discovery order. A platform with no
// typed title is left out.
func TypeCounts(records []catalog.Record) []PlatformTypeCount {
	out := []PlatformTypeCount{}
	index := make(map[string]int)
	for _, r := range records {
		if r.Platform == "" {
			continue
		}
		if r.Type != catalog.TypeShow && r.Type != catalog.TypeMovie {
			continue
		}
		i, ok := index[r.Platform]
		if !ok {
			i = len(out)
			index[r.Platform] = i
			out = append(out, PlatformTypeCount{Platform: r.Platform})
		}
		switch r.Type {
		case catalog.TypeShow:
			out[i].ShowCount++
		case catalog.TypeMovie:
			out[i].MovieCount++
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total() > out[j].Total()
	})
	return out
}

// TypeCountsView wraps TypeCounts with the mode implied by the type
// selection: one selected type draws a single series.
func TypeCountsView(records []catalog.Record, types []catalog.ContentType) TypeCountView {
	v := TypeCountView{Mode: ModeButterfly, Counts: TypeCounts(records)}
	if len(types) == 1 {
		v.Mode = ModeSingle
		v.Type = types[0]
	}
	return v
}
