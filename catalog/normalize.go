package catalog

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// RawRow is a title row as it comes out of a tabular source, before any
// coercion.
type RawRow struct {
	Title       string
	Platform    string
	Type        string
	ReleaseYear string
	Score       string
	Genres      string
	Audience    string
	Countries   string
}

// countryDenylist holds placeholder and legacy tokens that are not countries.
// The qualifiers appear when names such as "Iran, Islamic Republic of" are
// split on commas.
var countryDenylist = map[string]bool{
	"XC":                     true,
	"XK":                     true,
	"YU":                     true,
	"SU":                     true,
	"Republic of":            true,
	"Islamic Republic of":    true,
	"Bolivarian Republic of": true,
	"Federated States of":    true,
	"Plurinational State of": true,
}

var countryRenames = map[string]string{
	"Viet Nam": "Vietnam",
}

// Normalize converts a raw row into a Record. It never fails: fields that
// cannot be parsed degrade to absent values or Unknown.
func Normalize(id int, raw RawRow) Record {
	genres := SplitGenres(raw.Genres)
	mainGenre := Unknown
	if len(genres) > 0 {
		mainGenre = genres[0]
	}

	audience := strings.TrimSpace(raw.Audience)
	if audience == "" {
		audience = Unknown
	}

	return Record{
		ID:          id,
		Title:       strings.TrimSpace(raw.Title),
		Platform:    strings.TrimSpace(raw.Platform),
		Type:        ContentType(strings.ToUpper(strings.TrimSpace(raw.Type))),
		ReleaseYear: parseYear(raw.ReleaseYear),
		Score:       parseScore(raw.Score),
		Genres:      genres,
		MainGenre:   mainGenre,
		Audience:    audience,
		Countries:   SplitCountries(raw.Countries),
	}
}

// SplitGenres splits a comma-delimited genre field, trimming each token and
// dropping empty ones. Order is preserved.
func SplitGenres(field string) []string {
	genres := []string{}
	for _, g := range strings.Split(field, ",") {
		g = strings.TrimSpace(g)
		if g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// SplitCountries splits a production-country field on commas or semicolons,
// expands ISO alpha-2 codes to country names and drops denylisted tokens
// and duplicates.
func SplitCountries(field string) []string {
	countries := []string{}
	seen := make(map[string]bool)
	for _, c := range strings.FieldsFunc(field, func(r rune) bool { return r == ',' || r == ';' }) {
		c = strings.TrimSpace(c)
		if c == "" || countryDenylist[c] {
			continue
		}
		c = expandCountry(c)
		if seen[c] {
			continue
		}
		seen[c] = true
		countries = append(countries, c)
	}
	return countries
}

func expandCountry(token string) string {
	if isAlpha2(token) {
		if name, ok := countryCodes[token]; ok {
			return name
		}
		return token
	}
	if renamed, ok := countryRenames[token]; ok {
		return renamed
	}
	return token
}

func isAlpha2(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func parseYear(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if y, err := strconv.Atoi(s); err == nil {
		return &y
	}
	// Some exports write years as floats ("2019.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	y := int(f)
	return &y
}

func parseScore(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
