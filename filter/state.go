// Package filter holds the shared dashboard filter state and the pure engine
// that applies it to a record set.
package filter

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"streamlens/catalog"
)

var (
	// ErrInvalidRange is returned for ranges with lo > hi or non-finite bounds.
	ErrInvalidRange = errors.New("invalid range")
	// ErrInvalidType is returned for content types other than SHOW and MOVIE.
	ErrInvalidType = errors.New("invalid content type")
)

// Score bounds of the rating slider.
const (
	MinScore = 1.0
	MaxScore = 10.0
)

// ScoreRange is an inclusive score interval.
type ScoreRange struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Contains reports whether score lies within the range.
func (r ScoreRange) Contains(score float64) bool {
	return score >= r.Lo && score <= r.Hi
}

// YearRange is an inclusive release-year interval.
type YearRange struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// Contains reports whether year lies within the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Lo && year <= r.Hi
}

// GenreSelection is the genre predicate. All means no restriction; otherwise
// only records whose main genre is in Names pass, so an empty Names admits
// nothing.
type GenreSelection struct {
	All   bool     `json:"all"`
	Names []string `json:"names"`
}

// Includes reports whether genre is selected.
func (g GenreSelection) Includes(genre string) bool {
	return g.All || slices.Contains(g.Names, genre)
}

// State is the combined predicate set shared by every control of the
// dashboard. Empty sets mean "no restriction" except for Genres. NoCountries
// records that every country was unchecked, which admits nothing.
type State struct {
	Platforms []string              `json:"platforms"`
	Types     []catalog.ContentType `json:"types"`
	Score     ScoreRange            `json:"score_range"`
	Genres    GenreSelection        `json:"genres"`
	Years     *YearRange            `json:"year_range"`
	Audiences []string              `json:"audiences"`
	Countries []string              `json:"countries"`

	NoCountries bool `json:"no_countries,omitempty"`
}

// Default returns the state every dashboard starts from. It passes every
// record that has a score.
func Default() State {
	return State{
		Platforms: []string{},
		Types:     []catalog.ContentType{},
		Score:     ScoreRange{Lo: MinScore, Hi: MaxScore},
		Genres:    GenreSelection{All: true, Names: []string{}},
		Audiences: []string{},
		Countries: []string{},
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Platforms = slices.Clone(s.Platforms)
	out.Types = slices.Clone(s.Types)
	out.Genres.Names = slices.Clone(s.Genres.Names)
	out.Audiences = slices.Clone(s.Audiences)
	out.Countries = slices.Clone(s.Countries)
	if s.Years != nil {
		y := *s.Years
		out.Years = &y
	}
	return out
}

// Reset restores the defaults.
func (s *State) Reset() {
	*s = Default()
}

// Validate checks a state that did not come from the setters, such as one
// decoded from a saved preset.
func (s State) Validate() error {
	if err := validateScore(s.Score.Lo, s.Score.Hi); err != nil {
		return err
	}
	if s.Years != nil && s.Years.Lo > s.Years.Hi {
		return fmt.Errorf("%w: years %d > %d", ErrInvalidRange, s.Years.Lo, s.Years.Hi)
	}
	for _, t := range s.Types {
		if t != catalog.TypeShow && t != catalog.TypeMovie {
			return fmt.Errorf("%w: %q", ErrInvalidType, t)
		}
	}
	return nil
}

// SetPlatforms replaces the platform selection.
func (s *State) SetPlatforms(names []string) {
	s.Platforms = normalizeSet(names)
}

// TogglePlatform adds name to the platform selection, or removes it when
// already selected.
func (s *State) TogglePlatform(name string) {
	s.Platforms = toggle(s.Platforms, name)
}

// SetTypes replaces the content-type selection.
func (s *State) SetTypes(types []catalog.ContentType) error {
	seen := make(map[catalog.ContentType]bool)
	out := []catalog.ContentType{}
	for _, t := range types {
		if t != catalog.TypeShow && t != catalog.TypeMovie {
			return fmt.Errorf("%w: %q", ErrInvalidType, t)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	slices.Sort(out)
	s.Types = out
	return nil
}

// SetScoreRange replaces the score interval. Bounds are kept as given.
func (s *State) SetScoreRange(lo, hi float64) error {
	if err := validateScore(lo, hi); err != nil {
		return err
	}
	s.Score = ScoreRange{Lo: lo, Hi: hi}
	return nil
}

// SetGenres makes the genre selection explicit. An empty names list
// excludes every record.
func (s *State) SetGenres(names []string) {
	s.Genres = GenreSelection{Names: normalizeSet(names)}
}

// SelectAllGenres lifts the genre restriction.
func (s *State) SelectAllGenres() {
	s.Genres = GenreSelection{All: true, Names: []string{}}
}

// ToggleAllGenres clears the genre selection when every genre of universe is
// selected, and selects all genres otherwise.
func (s *State) ToggleAllGenres(universe []string) {
	if s.AllGenresSelected(universe) {
		s.SetGenres(nil)
		return
	}
	s.SelectAllGenres()
}

// AllGenresSelected reports whether every genre of universe is selected.
func (s State) AllGenresSelected(universe []string) bool {
	if s.Genres.All {
		return true
	}
	return containsAll(s.Genres.Names, universe)
}

// SetYearRange replaces the year interval; nil removes the restriction.
func (s *State) SetYearRange(r *YearRange) error {
	if r == nil {
		s.Years = nil
		return nil
	}
	if r.Lo > r.Hi {
		return fmt.Errorf("%w: years %d > %d", ErrInvalidRange, r.Lo, r.Hi)
	}
	y := *r
	s.Years = &y
	return nil
}

// SetAudiences replaces the audience selection.
func (s *State) SetAudiences(names []string) {
	s.Audiences = normalizeSet(names)
}

// ToggleAudience adds or removes one audience category.
func (s *State) ToggleAudience(name string) {
	s.Audiences = toggle(s.Audiences, name)
}

// SetCountries replaces the country selection. An empty list lifts the
// country restriction.
func (s *State) SetCountries(names []string) {
	s.Countries = normalizeSet(names)
	s.NoCountries = false
}

// CountrySelected reports whether name shows as checked. With no explicit
// selection every country is checked.
func (s State) CountrySelected(name string) bool {
	if s.NoCountries {
		return false
	}
	return len(s.Countries) == 0 || slices.Contains(s.Countries, name)
}

// ToggleCountry adds or removes one country. Unchecking a country while
// none is restricted keeps the rest of universe selected.
func (s *State) ToggleCountry(name string, universe []string) {
	s.setEffectiveCountries(toggle(s.effectiveCountries(universe), name), universe)
}

// ToggleContinent selects every country of members, or deselects them all
// when they are already all selected.
func (s *State) ToggleContinent(members, universe []string) {
	if len(members) == 0 {
		return
	}
	current := s.effectiveCountries(universe)
	if containsAll(current, members) {
		current = slices.DeleteFunc(current, func(c string) bool {
			return slices.Contains(members, c)
		})
	} else {
		current = append(current, members...)
	}
	s.setEffectiveCountries(current, universe)
}

// ToggleAllCountries deselects every country when all are selected, and
// lifts the country restriction otherwise.
func (s *State) ToggleAllCountries(universe []string) {
	if s.AllCountriesSelected(universe) {
		s.Countries = []string{}
		s.NoCountries = true
		return
	}
	s.Countries = []string{}
	s.NoCountries = false
}

// AllCountriesSelected reports whether every country of universe shows as
// checked. An unrestricted selection covers any universe; an explicit one
// covers only a non-empty universe it fully contains.
func (s State) AllCountriesSelected(universe []string) bool {
	if s.NoCountries {
		return false
	}
	if len(s.Countries) == 0 {
		return true
	}
	return len(universe) > 0 && containsAll(s.Countries, universe)
}

// effectiveCountries is the checked set spelled out against universe.
func (s State) effectiveCountries(universe []string) []string {
	switch {
	case s.NoCountries:
		return []string{}
	case len(s.Countries) == 0:
		return normalizeSet(universe)
	}
	return slices.Clone(s.Countries)
}

// setEffectiveCountries stores a checked set in canonical form: everything
// becomes unrestricted and nothing becomes NoCountries.
func (s *State) setEffectiveCountries(selected, universe []string) {
	selected = normalizeSet(selected)
	switch {
	case len(selected) == 0:
		s.Countries = []string{}
		s.NoCountries = true
	case len(universe) > 0 && containsAll(selected, universe):
		s.Countries = []string{}
		s.NoCountries = false
	default:
		s.Countries = selected
		s.NoCountries = false
	}
}

func validateScore(lo, hi float64) error {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return fmt.Errorf("%w: score bounds must be finite", ErrInvalidRange)
	}
	if lo > hi {
		return fmt.Errorf("%w: score %.1f > %.1f", ErrInvalidRange, lo, hi)
	}
	return nil
}

// normalizeSet returns a sorted, de-duplicated copy without empty names.
func normalizeSet(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}

func toggle(set []string, name string) []string {
	if slices.Contains(set, name) {
		return slices.DeleteFunc(slices.Clone(set), func(s string) bool { return s == name })
	}
	return normalizeSet(append(slices.Clone(set), name))
}

func containsAll(set, want []string) bool {
	for _, w := range want {
		if !slices.Contains(set, w) {
			return false
		}
	}
	return true
}
