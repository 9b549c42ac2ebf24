package aggregate

import (
	"slices"
	"testing"

	"streamlens/catalog"
	"streamlens/filter"
)

func scenarioRecords() []catalog.Record {
	return []catalog.Record{
		catalog.Normalize(0, catalog.RawRow{Platform: "Netflix", Type: "SHOW", Score: "8.0", Genres: "Drama,Crime", ReleaseYear: "2020", Audience: "adult", Countries: "United States"}),
		catalog.Normalize(1, catalog.RawRow{Platform: "Netflix", Type: "MOVIE", Score: "6.5", Genres: "Comedy", ReleaseYear: "2019", Audience: "teenager", Countries: "France"}),
		catalog.Normalize(2, catalog.RawRow{Platform: "Amazon", Type: "SHOW", Score: "8.0", Genres: "Drama", ReleaseYear: "2021", Audience: "adult", Countries: "United States"}),
	}
}

func netflixOnly(t *testing.T) []catalog.Record {
	t.Helper()
	s := filter.Default()
	s.SetPlatforms([]string{"Netflix"})
	return filter.Apply(scenarioRecords(), s)
}

func node(kind NodeKind, value string) NodeID { return NodeID{Kind: kind, Value: value} }

func TestFlowScenario(t *testing.T) {
	g := Flow(netflixOnly(t))

	want := []struct {
		from, to NodeID
		count    int
	}{
		{node(KindPlatform, "Netflix"), node(KindGenre, "Drama"), 1},
		{node(KindPlatform, "Netflix"), node(KindGenre, "Comedy"), 1},
		{node(KindGenre, "Drama"), node(KindAudience, "adult"), 1},
		{node(KindGenre, "Comedy"), node(KindAudience, "teenager"), 1},
	}
	if len(g.Edges) != len(want) {
		t.Fatalf("Expected %d edges, got %d: %+v", len(want), len(g.Edges), g.Edges)
	}
	for i, w := range want {
		e := g.Edges[i]
		if e.Source != w.from || e.Target != w.to || e.Count != w.count {
			t.Errorf("Edge %d: expected %v→%v:%d, got %+v", i, w.from, w.to, w.count, e)
		}
	}

	if g.Valid != 2 {
		t.Errorf("Expected 2 valid records, got %d", g.Valid)
	}
	if len(g.Nodes) != 5 {
		t.Errorf("Expected 5 nodes, got %d", len(g.Nodes))
	}
	if g.Nodes[0].NodeID != node(KindPlatform, "Netflix") || g.Nodes[0].Total != 2 {
		t.Errorf("Unexpected first node: %+v", g.Nodes[0])
	}
}

func TestFlowConservation(t *testing.T) {
	records := append(scenarioRecords(),
		catalog.Record{Platform: "Hulu", MainGenre: catalog.Unknown, Audience: "adult"},
		catalog.Record{Platform: "", MainGenre: "Drama", Audience: "adult"},
		catalog.Record{Platform: "Hulu", MainGenre: "Drama", Audience: ""},
		catalog.Record{Platform: "Hulu", MainGenre: "Drama", Audience: "child"},
	)

	valid := 0
	for _, r := range records {
		if ValidForFlow(r) {
			valid++
		}
	}

	g := Flow(records)
	pg, ga := g.LayerSums()
	if pg != valid || ga != valid || g.Valid != valid {
		t.Errorf("Expected layer sums %d, got %d / %d (valid %d)", valid, pg, ga, g.Valid)
	}
	if valid != 4 {
		t.Errorf("Expected 4 valid records, got %d", valid)
	}
}

func TestFlowTagsDistinguishKinds(t *testing.T) {
	// A genre and an audience sharing a name stay separate nodes.
	records := []catalog.Record{{Platform: "P", MainGenre: "Family", Audience: "Family"}}
	g := Flow(records)
	if len(g.Nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %+v", g.Nodes)
	}
	if g.EdgeCount(node(KindGenre, "Family"), node(KindAudience, "Family")) != 1 {
		t.Error("Expected genre→audience edge between same-named nodes")
	}
}

func TestFlowAudienceLabels(t *testing.T) {
	records := []catalog.Record{
		{Platform: "P", MainGenre: "G", Audience: "child"},
		{Platform: "P", MainGenre: "G", Audience: "toddlers"},
	}
	g := Flow(records)
	labels := map[string]string{}
	for _, n := range g.Nodes {
		if n.Kind == KindAudience {
			labels[n.Value] = n.Label
		}
	}
	if labels["child"] != "Children" || labels["toddlers"] != "Toddler" {
		t.Errorf("Unexpected labels: %v", labels)
	}
}

func TestFlowEmpty(t *testing.T) {
	g := Flow(nil)
	if g.Nodes == nil || g.Edges == nil || g.Valid != 0 {
		t.Errorf("Expected empty well-formed graph, got %+v", g)
	}
}

func TestTypeCountsScenario(t *testing.T) {
	counts := TypeCounts(netflixOnly(t))
	if len(counts) != 1 {
		t.Fatalf("Expected 1 platform, got %d", len(counts))
	}
	if counts[0] != (PlatformTypeCount{Platform: "Netflix", ShowCount: 1, MovieCount: 1}) {
		t.Errorf("Unexpected counts: %+v", counts[0])
	}
}

func TestTypeCountsConservationAndOrder(t *testing.T) {
	records := append(scenarioRecords(),
		catalog.Record{Platform: "Amazon", Type: catalog.TypeMovie},
		catalog.Record{Platform: "Amazon", Type: catalog.TypeMovie},
		catalog.Record{Platform: "Hulu", Type: catalog.TypeShow},
		catalog.Record{Platform: "Max", Type: catalog.TypeShow},
	)
	counts := TypeCounts(records)

	names := make([]string, len(counts))
	for i, c := range counts {
		names[i] = c.Platform
		n := 0
		for _, r := range records {
			if r.Platform == c.Platform {
				n++
			}
		}
		if c.Total() != n {
			t.Errorf("%s: expected %d titles, got %d", c.Platform, n, c.Total())
		}
	}
	// Hulu and Max tie and keep discovery order.
	if !slices.Equal(names, []string{"Amazon", "Netflix", "Hulu", "Max"}) {
		t.Errorf("Unexpected order: %v", names)
	}
}

func TestTypeCountsSkipsUntypedPlatforms(t *testing.T) {
	records := []catalog.Record{
		catalog.Normalize(0, catalog.RawRow{Platform: "Netflix", Type: "SHOW"}),
		catalog.Normalize(1, catalog.RawRow{Platform: "Hulu", Type: "TV"}),
		catalog.Normalize(2, catalog.RawRow{Platform: "Netflix", Type: ""}),
	}
	counts := TypeCounts(records)
	if len(counts) != 1 {
		t.Fatalf("Expected only Netflix, got %+v", counts)
	}
	if counts[0] != (PlatformTypeCount{Platform: "Netflix", ShowCount: 1}) {
		t.Errorf("Unexpected counts: %+v", counts[0])
	}
	for _, c := range counts {
		if c.Total() == 0 {
			t.Errorf("%s has no typed titles and should be omitted", c.Platform)
		}
	}
}

func TestTypeCountsViewMode(t *testing.T) {
	v := TypeCountsView(scenarioRecords(), []catalog.ContentType{catalog.TypeMovie})
	if v.Mode != ModeSingle || v.Type != catalog.TypeMovie {
		t.Errorf("Expected single MOVIE mode, got %+v", v)
	}
	v = TypeCountsView(scenarioRecords(), nil)
	if v.Mode != ModeButterfly {
		t.Errorf("Expected butterfly mode, got %s", v.Mode)
	}
	if v := TypeCountsView(nil, nil); v.Counts == nil {
		t.Error("Expected non-nil counts")
	}
}

func TestHierarchyScenario(t *testing.T) {
	s := filter.Default()
	s.SetCountries([]string{"United States"})
	filtered := filter.Apply(scenarioRecords(), s)

	v := Hierarchy(filtered, s.Countries, []string{"France", "United States"}, DefaultDrill())
	if v.Title != TitleContinents || v.Level != KindContinent {
		t.Errorf("Unexpected view: %s / %s", v.Title, v.Level)
	}
	if len(v.Cells) != 1 || v.Cells[0] != (Cell{Kind: KindContinent, Name: "North America", Value: 2}) {
		t.Errorf("Expected {North America: 2}, got %+v", v.Cells)
	}
}

func TestContinentSumConsistency(t *testing.T) {
	records := []catalog.Record{
		{Countries: []string{"France", "Germany"}},
		{Countries: []string{"France", "Japan"}},
		{Countries: []string{"Atlantis"}},
		{Countries: []string{"Germany"}},
	}
	selection := []string{"France", "Germany", "Japan", "Atlantis"}

	countries := CountryCounts(records, selection)
	continents := ContinentCounts(countries)
	for continent, total := range continents {
		sum := 0
		for country, n := range countries {
			if c, ok := catalog.ContinentOf(country); ok && c == continent {
				sum += n
			}
		}
		if sum != total {
			t.Errorf("%s: expected %d, got %d", continent, sum, total)
		}
	}
	if continents["Europe"] != 4 || continents["Asia"] != 1 {
		t.Errorf("Unexpected continent counts: %v", continents)
	}
	if countries["Atlantis"] != 1 {
		t.Errorf("Unmapped country should be counted at country level, got %v", countries)
	}

	restricted := CountryCounts(records, []string{"France"})
	if len(restricted) != 1 || restricted["France"] != 2 {
		t.Errorf("Selection should restrict counting, got %v", restricted)
	}
}

func TestHierarchyDrill(t *testing.T) {
	records := []catalog.Record{
		{Countries: []string{"France"}},
		{Countries: []string{"France", "Germany"}},
		{Countries: []string{"Japan"}},
	}
	universe := []string{"France", "Germany", "Japan"}
	europe := []string{"France", "Germany"}

	v := Hierarchy(records, europe, universe, Drill{View: ViewContinents, Focus: "Europe"})
	if v.Title != "Europe" || v.Level != KindCountry || v.Focus != "Europe" {
		t.Fatalf("Expected Europe drill-down, got %+v", v)
	}
	if len(v.Cells) != 2 || v.Cells[0].Name != "France" || v.Cells[0].Value != 2 {
		t.Errorf("Unexpected cells: %+v", v.Cells)
	}

	// A selection spanning two continents resets the focus.
	v = Hierarchy(records, universe, universe, Drill{View: ViewContinents, Focus: "Europe"})
	if v.Title != TitleContinents {
		t.Errorf("Expected focus reset, got %s", v.Title)
	}

	// A selection that leaves the focused continent resets the focus.
	v = Hierarchy(records, []string{"Japan"}, universe, Drill{View: ViewContinents, Focus: "Europe"})
	if v.Title != TitleContinents {
		t.Errorf("Expected focus reset, got %s", v.Title)
	}

	// Focus on a continent with no titles falls back to continents.
	v = Hierarchy(nil, europe, universe, Drill{View: ViewContinents, Focus: "Europe"})
	if v.Title != TitleContinents || len(v.Cells) != 0 {
		t.Errorf("Expected empty continent level, got %+v", v)
	}
}

func TestHierarchyCountriesTitle(t *testing.T) {
	records := []catalog.Record{{Countries: []string{"France"}}, {Countries: []string{"Japan"}}}
	universe := []string{"France", "Japan"}
	drill := Drill{View: ViewCountries}

	if v := Hierarchy(records, nil, universe, drill); v.Title != TitleAllCountries || len(v.Cells) != 2 {
		t.Errorf("Expected all countries, got %+v", v)
	}
	if v := Hierarchy(records, universe, universe, drill); v.Title != TitleAllCountries {
		t.Errorf("Expected all countries, got %s", v.Title)
	}
	if v := Hierarchy(records, []string{"Japan"}, universe, drill); v.Title != TitleSelectedCountries || v.Total != 1 {
		t.Errorf("Expected selected countries, got %+v", v)
	}
}

func TestHierarchyCellOrder(t *testing.T) {
	records := []catalog.Record{
		{Countries: []string{"Japan"}},
		{Countries: []string{"France"}},
		{Countries: []string{"Germany", "France"}},
	}
	v := Hierarchy(records, nil, nil, Drill{View: ViewCountries})
	names := []string{}
	for _, c := range v.Cells {
		names = append(names, c.Name)
	}
	if !slices.Equal(names, []string{"France", "Germany", "Japan"}) {
		t.Errorf("Unexpected order: %v", names)
	}
}

func TestDrillSettle(t *testing.T) {
	d := Drill{View: ViewCountries, Focus: "Europe"}.Settle(nil, nil)
	if d.Focus != "" {
		t.Errorf("Countries view should drop focus, got %+v", d)
	}
	d = Drill{View: ViewContinents, Focus: "Asia"}.Settle([]string{"Japan"}, nil)
	if d.Focus != "Asia" {
		t.Errorf("Focus should survive, got %+v", d)
	}
}

func TestYearExtent(t *testing.T) {
	lo, hi, ok := YearExtent(scenarioRecords(), 0)
	if !ok || lo != 2019 || hi != 2021 {
		t.Errorf("Expected 2019-2021, got %d-%d %v", lo, hi, ok)
	}

	if _, _, ok := YearExtent(nil, 0); ok {
		t.Error("Expected ok == false for empty input")
	}

	y := 1900
	records := append(scenarioRecords(), catalog.Record{ReleaseYear: &y})
	if lo, _, _ := YearExtent(records, 0); lo != 1900 {
		t.Errorf("Expected 1900 without floor, got %d", lo)
	}
	if lo, _, _ := YearExtent(records, YearFloor); lo != 2019 {
		t.Errorf("Expected floor to drop 1900, got %d", lo)
	}
}

func TestTimeline(t *testing.T) {
	all := scenarioRecords()
	v := Timeline(all, all[:2], nil, 0)
	if !v.HasDomain || v.DomainLo != 2019 || v.DomainHi != 2021 {
		t.Errorf("Unexpected domain: %+v", v)
	}
	if v.RangeLo != 2019 || v.RangeHi != 2021 {
		t.Errorf("Expected range to span domain, got %d-%d", v.RangeLo, v.RangeHi)
	}
	if len(v.Buckets) != 2 || v.Buckets[0] != (YearBucket{Year: 2019, Count: 1}) {
		t.Errorf("Unexpected buckets: %+v", v.Buckets)
	}

	v = Timeline(all, nil, &filter.YearRange{Lo: 2020, Hi: 2020}, 0)
	if v.RangeLo != 2020 || v.RangeHi != 2020 || len(v.Buckets) != 0 {
		t.Errorf("Unexpected view: %+v", v)
	}
}

func TestPriceSeries(t *testing.T) {
	lines := PriceSeries([]catalog.PriceObservation{
		{Platform: "Netflix", Year: 2021, Price: 15.49},
		{Platform: "Hulu", Year: 2020, Price: 5.99},
		{Platform: "Netflix", Year: 2019, Price: 12.99},
	})
	if len(lines) != 2 || lines[0].Platform != "Hulu" {
		t.Fatalf("Unexpected lines: %+v", lines)
	}
	if lines[1].Points[0].Year != 2019 || lines[1].Points[1].Year != 2021 {
		t.Errorf("Points not sorted by year: %+v", lines[1].Points)
	}
	if PriceSeries(nil) == nil {
		t.Error("Expected non-nil empty series")
	}
}
