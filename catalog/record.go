// Package catalog holds the normalized streaming-title dataset that every
// dashboard view is computed from.
package catalog

import "slices"

// ContentType is the kind of title a record describes.
type ContentType string

const (
	TypeShow  ContentType = "SHOW"
	TypeMovie ContentType = "MOVIE"
)

// Unknown is the placeholder used for a missing main genre or audience.
const Unknown = "Unknown"

// Record is one normalized title.
type Record struct {
	ID          int         `json:"id"`
	Title       string      `json:"title,omitempty"`
	Platform    string      `json:"platform"`
	Type        ContentType `json:"type"`
	ReleaseYear *int        `json:"release_year,omitempty"`
	Score       *float64    `json:"score,omitempty"`
	Genres      []string    `json:"genres"`
	MainGenre   string      `json:"main_genre"`
	Audience    string      `json:"audience"`
	Countries   []string    `json:"countries"`
}

// HasCountry reports whether the title was produced in country.
func (r Record) HasCountry(country string) bool {
	return slices.Contains(r.Countries, country)
}

// PriceObservation is one subscription price sample of a platform.
type PriceObservation struct {
	Platform string  `json:"platform"`
	Year     int     `json:"year"`
	Price    float64 `json:"price"`
}
