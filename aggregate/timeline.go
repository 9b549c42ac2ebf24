package aggregate

import (
	"sort"

	"streamlens/catalog"
	"streamlens/filter"
)

// YearFloor is the sentinel below which release years are treated as noise
// by the timeline.
const YearFloor = 1900

// YearExtent returns the smallest and largest release year of the records
// that have one. With floor > 0 only years strictly above floor count. ok is
// false when no year qualifies.
func YearExtent(records []catalog.Record, floor int) (lo, hi int, ok bool) {
	for _, r := range records {
		if r.ReleaseYear == nil {
			continue
		}
		y := *r.ReleaseYear
		if floor > 0 && y <= floor {
			continue
		}
		if !ok {
			lo, hi, ok = y, y, true
			continue
		}
		lo = min(lo, y)
		hi = max(hi, y)
	}
	return lo, hi, ok
}

// YearBucket is one bar of the timeline histogram.
type YearBucket struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// TimelineView drives the year brush: the brush domain comes from the whole
// catalog, the selection from the filter state, the histogram from the
// filtered titles.
type TimelineView struct {
	HasDomain bool         `json:"has_domain"`
	DomainLo  int          `json:"domain_lo"`
	DomainHi  int          `json:"domain_hi"`
	RangeLo   int          `json:"range_lo"`
	RangeHi   int          `json:"range_hi"`
	Buckets   []YearBucket `json:"buckets"`
}

// Timeline builds the brush view. selected may be nil, in which case the
// range spans the domain.
func Timeline(all, filtered []catalog.Record, selected *filter.YearRange, floor int) TimelineView {
	v := TimelineView{Buckets: []YearBucket{}}
	v.DomainLo, v.DomainHi, v.HasDomain = YearExtent(all, floor)
	v.RangeLo, v.RangeHi = v.DomainLo, v.DomainHi
	if selected != nil {
		v.RangeLo, v.RangeHi = selected.Lo, selected.Hi
	}

	counts := make(map[int]int)
	for _, r := range filtered {
		if r.ReleaseYear == nil {
			continue
		}
		if floor > 0 && *r.ReleaseYear <= floor {
			continue
		}
		counts[*r.ReleaseYear]++
	}
	for year, n := range counts {
		v.Buckets = append(v.Buckets, YearBucket{Year: year, Count: n})
	}
	sort.Slice(v.Buckets, func(i, j int) bool { return v.Buckets[i].Year < v.Buckets[j].Year })
	return v
}
