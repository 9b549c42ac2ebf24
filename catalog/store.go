package catalog

import (
	"slices"
	"sort"
)

// Store is the immutable dataset a dashboard works on. It is built once per
// load; a reload builds a new Store rather than editing this one.
type Store struct {
	records   []Record
	prices    []PriceObservation
	platforms []string
	genres    []string
	audiences []string
	countries []string
}

// NewStore builds a Store and the value universes derived from it.
func NewStore(records []Record, prices []PriceObservation) *Store {
	s := &Store{
		records: slices.Clone(records),
		prices:  slices.Clone(prices),
	}

	platforms := make(map[string]bool)
	genres := make(map[string]bool)
	audiences := make(map[string]bool)
	countries := make(map[string]bool)
	for _, r := range s.records {
		if r.Platform != "" {
			platforms[r.Platform] = true
		}
		for _, g := range r.Genres {
			genres[g] = true
		}
		if r.Audience != "" {
			audiences[r.Audience] = true
		}
		for _, c := range r.Countries {
			countries[c] = true
		}
	}
	for _, p := range s.prices {
		if p.Platform != "" {
			platforms[p.Platform] = true
		}
	}

	s.platforms = sortedKeys(platforms)
	s.genres = sortedKeys(genres)
	s.audiences = sortedKeys(audiences)
	s.countries = sortedKeys(countries)
	return s
}

// Records returns the titles in load order. Callers must treat the records
// as read-only.
func (s *Store) Records() []Record { return slices.Clone(s.records) }

// Len returns the number of titles.
func (s *Store) Len() int { return len(s.records) }

// Prices returns the price observations in load order.
func (s *Store) Prices() []PriceObservation { return slices.Clone(s.prices) }

// Platforms returns every platform seen in titles or prices, sorted.
func (s *Store) Platforms() []string { return slices.Clone(s.platforms) }

// Genres returns every genre token (not only main genres), sorted.
func (s *Store) Genres() []string { return slices.Clone(s.genres) }

// Audiences returns every audience category, sorted.
func (s *Store) Audiences() []string { return slices.Clone(s.audiences) }

// Countries returns the production-country universe of this store, sorted.
func (s *Store) Countries() []string { return slices.Clone(s.countries) }

// CountriesIn returns the countries of this store that belong to continent.
func (s *Store) CountriesIn(continent string) []string {
	return CountriesOf(continent, s.countries)
}

// ContinentsPresent returns the continents that at least one country of the
// store maps to, sorted.
func (s *Store) ContinentsPresent() []string {
	seen := make(map[string]bool)
	for _, c := range s.countries {
		if continent, ok := ContinentOf(c); ok {
			seen[continent] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
