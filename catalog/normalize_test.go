package catalog

import (
	"slices"
	"testing"
)

func TestSplitGenres(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "Drama", []string{"Drama"}},
		{"trimmed", " Drama , Comedy ", []string{"Drama", "Comedy"}},
		{"empty tokens dropped", "Drama,, ,Comedy,", []string{"Drama", "Comedy"}},
		{"empty field", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitGenres(tt.input)
			if got == nil {
				t.Fatal("Expected non-nil slice")
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSplitCountries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"names", "France, Germany", []string{"France", "Germany"}},
		{"semicolons", "France;Germany", []string{"France", "Germany"}},
		{"denylist", "XC, France, Republic of, YU, SU, XK", []string{"France"}},
		{"alpha-2 expansion", "US, GB", []string{"United States", "United Kingdom"}},
		{"rename", "Viet Nam", []string{"Vietnam"}},
		{"duplicates collapse", "US, United States", []string{"United States"}},
		{"unknown code kept", "ZZ", []string{"ZZ"}},
		{"empty", " , ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitCountries(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	r := Normalize(7, RawRow{
		Title:       "Example",
		Platform:    "Netflix",
		Type:        "show",
		ReleaseYear: "2019",
		Score:       "7.5",
		Genres:      "Drama, Crime",
		Audience:    " adult ",
		Countries:   "US",
	})

	if r.ID != 7 {
		t.Errorf("Expected ID 7, got %d", r.ID)
	}
	if r.Type != TypeShow {
		t.Errorf("Expected type SHOW, got %s", r.Type)
	}
	if r.ReleaseYear == nil || *r.ReleaseYear != 2019 {
		t.Errorf("Expected release year 2019, got %v", r.ReleaseYear)
	}
	if r.Score == nil || *r.Score != 7.5 {
		t.Errorf("Expected score 7.5, got %v", r.Score)
	}
	if r.MainGenre != "Drama" {
		t.Errorf("Expected main genre Drama, got %s", r.MainGenre)
	}
	if r.Audience != "adult" {
		t.Errorf("Expected audience adult, got %q", r.Audience)
	}
	if !r.HasCountry("United States") {
		t.Errorf("Expected United States in %v", r.Countries)
	}
}

func TestNormalizeDegradesBadFields(t *testing.T) {
	r := Normalize(0, RawRow{
		Platform:    "Hulu",
		Type:        "MOVIE",
		ReleaseYear: "unknown",
		Score:       "",
		Genres:      "",
		Audience:    "",
	})

	if r.ReleaseYear != nil {
		t.Errorf("Expected absent year, got %d", *r.ReleaseYear)
	}
	if r.Score != nil {
		t.Errorf("Expected absent score, got %f", *r.Score)
	}
	if r.MainGenre != Unknown {
		t.Errorf("Expected main genre %s, got %s", Unknown, r.MainGenre)
	}
	if r.Audience != Unknown {
		t.Errorf("Expected audience %s, got %s", Unknown, r.Audience)
	}
	if len(r.Countries) != 0 {
		t.Errorf("Expected no countries, got %v", r.Countries)
	}
}

func TestParseYearAcceptsWholeFloats(t *testing.T) {
	if y := parseYear("2001.0"); y == nil || *y != 2001 {
		t.Errorf("Expected 2001, got %v", y)
	}
	if y := parseYear("2001.5"); y != nil {
		t.Errorf("Expected absent year, got %d", *y)
	}
}

func TestParseScoreRejectsNaN(t *testing.T) {
	if s := parseScore("NaN"); s != nil {
		t.Errorf("Expected absent score, got %f", *s)
	}
}

func TestContinentLookup(t *testing.T) {
	if c, ok := ContinentOf("France"); !ok || c != "Europe" {
		t.Errorf("Expected France in Europe, got %q %v", c, ok)
	}
	if _, ok := ContinentOf("Atlantis"); ok {
		t.Error("Atlantis should not map to a continent")
	}

	got := CountriesOf("Europe", []string{"France", "Japan", "Germany", "France"})
	if !slices.Equal(got, []string{"France", "Germany"}) {
		t.Errorf("Expected [France Germany], got %v", got)
	}

	continents := Continents()
	if !slices.IsSorted(continents) {
		t.Errorf("Continents should be sorted: %v", continents)
	}
}

func TestCountryCodesMapToContinents(t *testing.T) {
	for code, name := range countryCodes {
		if _, ok := ContinentOf(name); !ok {
			t.Errorf("Code %s maps to %q which has no continent", code, name)
		}
	}
}
