package aggregate

import (
	"slices"
	"sort"

	"streamlens/catalog"
)

// LocationView is the level the location controls are showing.
type LocationView string

const (
	ViewContinents LocationView = "continents"
	ViewCountries  LocationView = "countries"
)

// Hierarchy titles.
const (
	TitleContinents        = "Continents"
	TitleAllCountries      = "All Countries"
	TitleSelectedCountries = "Selected Countries"
)

// Drill is the treemap navigation state. An empty Focus means all
// continents.
type Drill struct {
	View  LocationView `json:"view"`
	Focus string       `json:"focus,omitempty"`
}

// DefaultDrill shows all continents.
func DefaultDrill() Drill {
	return Drill{View: ViewContinents}
}

// Settle drops a focus the country selection no longer supports: the
// countries view never has one, and a continent focus survives only while
// the selection stays inside that continent. An empty selection stands for
// the whole universe.
func (d Drill) Settle(selected, universe []string) Drill {
	if d.View == ViewCountries {
		return Drill{View: ViewCountries}
	}
	if d.Focus == "" {
		return d
	}
	continents := make(map[string]bool)
	for _, c := range effectiveSelection(selected, universe) {
		if continent, ok := catalog.ContinentOf(c); ok {
			continents[continent] = true
		}
	}
	if len(continents) > 1 || !continents[d.Focus] {
		return Drill{View: d.View}
	}
	return d
}

// Cell is one treemap rectangle.
type Cell struct {
	Kind  NodeKind `json:"kind"`
	Name  string   `json:"name"`
	Value int      `json:"value"`
}

// HierarchyView is the treemap level currently shown.
type HierarchyView struct {
	Title string   `json:"title"`
	Level NodeKind `json:"level"`
	Focus string   `json:"focus,omitempty"`
	Cells []Cell   `json:"cells"`
	Total int      `json:"total"`
}

// CountryCounts counts, per country, the records listing it. Only countries
// of the selection are counted; an empty selection counts every country.
func CountryCounts(records []catalog.Record, selected []string) map[string]int {
	allowed := make(map[string]bool, len(selected))
	for _, c := range selected {
		allowed[c] = true
	}
	counts := make(map[string]int)
	for _, r := range records {
		for _, c := range r.Countries {
			if c == "" {
				continue
			}
			if len(allowed) > 0 && !allowed[c] {
				continue
			}
			counts[c]++
		}
	}
	return counts
}

// ContinentCounts sums country counts per continent. Countries without a
// continent are left out.
func ContinentCounts(countryCounts map[string]int) map[string]int {
	out := make(map[string]int)
	for country, n := range countryCounts {
		if continent, ok := catalog.ContinentOf(country); ok {
			out[continent] += n
		}
	}
	return out
}

// Hierarchy builds the treemap level selected by drill. The drill state is
// settled against the selection first; a focused continent with no titles
// falls back to the continent level.
func Hierarchy(records []catalog.Record, selected, universe []string, drill Drill) HierarchyView {
	drill = drill.Settle(selected, universe)
	countryCounts := CountryCounts(records, selected)

	if drill.View == ViewCountries {
		title := TitleSelectedCountries
		if len(selected) == 0 || (len(universe) > 0 && containsAll(selected, universe)) {
			title = TitleAllCountries
		}
		return newHierarchyView(title, KindCountry, "", countryCounts)
	}

	if drill.Focus != "" {
		inFocus := make(map[string]int)
		for country, n := range countryCounts {
			if continent, ok := catalog.ContinentOf(country); ok && continent == drill.Focus {
				inFocus[country] = n
			}
		}
		if len(inFocus) > 0 {
			return newHierarchyView(drill.Focus, KindCountry, drill.Focus, inFocus)
		}
	}

	return newHierarchyView(TitleContinents, KindContinent, "", ContinentCounts(countryCounts))
}

func newHierarchyView(title string, level NodeKind, focus string, counts map[string]int) HierarchyView {
	v := HierarchyView{Title: title, Level: level, Focus: focus, Cells: make([]Cell, 0, len(counts))}
	for name, n := range counts {
		v.Cells = append(v.Cells, Cell{Kind: level, Name: name, Value: n})
		v.Total += n
	}
	sort.Slice(v.Cells, func(i, j int) bool {
		if v.Cells[i].Value != v.Cells[j].Value {
			return v.Cells[i].Value > v.Cells[j].Value
		}
		return v.Cells[i].Name < v.Cells[j].Name
	})
	return v
}

func effectiveSelection(selected, universe []string) []string {
	if len(selected) == 0 {
		return universe
	}
	return selected
}

func containsAll(set, want []string) bool {
	for _, w := range want {
		if !slices.Contains(set, w) {
			return false
		}
	}
	return true
}
