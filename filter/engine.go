package filter

import (
	"fmt"

	"streamlens/catalog"
)

// GenreMode selects how an explicit genre selection is interpreted.
type GenreMode string

const (
	// GenreStrict admits only records whose main genre is selected, so an
	// empty selection admits nothing.
	GenreStrict GenreMode = "strict"
	// GenreLenient treats an empty selection as no restriction.
	GenreLenient GenreMode = "lenient"
)

// ParseGenreMode parses a configured genre mode; empty means strict.
func ParseGenreMode(s string) (GenreMode, error) {
	switch GenreMode(s) {
	case "", GenreStrict:
		return GenreStrict, nil
	case GenreLenient:
		return GenreLenient, nil
	default:
		return "", fmt.Errorf("unknown genre mode %q", s)
	}
}

// Engine applies a State to records. The zero value uses strict genre
// semantics.
type Engine struct {
	GenreMode GenreMode
}

// Apply filters records with the strict engine.
func Apply(records []catalog.Record, state State) []catalog.Record {
	return Engine{}.Apply(records, state)
}

// ApplyPrices filters price observations with the strict engine.
func ApplyPrices(prices []catalog.PriceObservation, state State) []catalog.PriceObservation {
	return Engine{}.ApplyPrices(prices, state)
}

// Apply returns the records that satisfy every predicate of state, in their
// original order. The input is never modified.
func (e Engine) Apply(records []catalog.Record, state State) []catalog.Record {
	p := e.compile(state)
	out := make([]catalog.Record, 0, len(records))
	for _, r := range records {
		if p.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ApplyPrices keeps observations matching the platform selection and year
// range. No other predicate applies to prices.
func (e Engine) ApplyPrices(prices []catalog.PriceObservation, state State) []catalog.PriceObservation {
	platforms := toSet(state.Platforms)
	out := make([]catalog.PriceObservation, 0, len(prices))
	for _, p := range prices {
		if len(platforms) > 0 && !platforms[p.Platform] {
			continue
		}
		if state.Years != nil && !state.Years.Contains(p.Year) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// predicate is a State compiled into lookup sets for one Apply call.
type predicate struct {
	platforms map[string]bool
	types     map[catalog.ContentType]bool
	score     ScoreRange
	allGenres bool
	genres    map[string]bool
	years     *YearRange
	audiences map[string]bool
	countries map[string]bool

	noCountries bool
}

func (e Engine) compile(state State) predicate {
	p := predicate{
		platforms: toSet(state.Platforms),
		types:     make(map[catalog.ContentType]bool, len(state.Types)),
		score:     state.Score,
		allGenres: state.Genres.All,
		genres:    toSet(state.Genres.Names),
		years:     state.Years,
		audiences: toSet(state.Audiences),
		countries: toSet(state.Countries),

		noCountries: state.NoCountries,
	}
	for _, t := range state.Types {
		p.types[t] = true
	}
	if e.GenreMode == GenreLenient && len(p.genres) == 0 {
		p.allGenres = true
	}
	return p
}

func (p predicate) match(r catalog.Record) bool {
	if len(p.platforms) > 0 && !p.platforms[r.Platform] {
		return false
	}
	if len(p.types) > 0 && !p.types[r.Type] {
		return false
	}
	if r.Score == nil || !p.score.Contains(*r.Score) {
		return false
	}
	if !p.allGenres && !p.genres[r.MainGenre] {
		return false
	}
	if p.years != nil && (r.ReleaseYear == nil || !p.years.Contains(*r.ReleaseYear)) {
		return false
	}
	if len(p.audiences) > 0 && !p.audiences[r.Audience] {
		return false
	}
	if p.noCountries {
		return false
	}
	if len(p.countries) > 0 {
		found := false
		for _, c := range r.Countries {
			if p.countries[c] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
