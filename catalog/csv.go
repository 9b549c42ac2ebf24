package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a dataset lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Header aliases seen across dataset exports. The first entry is the
// canonical field name.
var titleColumns = map[string][]string{
	"title":        {"title", "name"},
	"platform":     {"platform", "streaming_platform"},
	"type":         {"type"},
	"release_year": {"release_year", "year"},
	"score":        {"score", "imdb_score"},
	"genres":       {"genres", "genre"},
	"audience":     {"audience", "age_category"},
	"countries":    {"countries", "country_full_name", "production_countries"},
}

var priceColumns = map[string][]string{
	"platform": {"platform", "streaming_platform"},
	"year":     {"year"},
	"price":    {"price"},
}

// ReadTitles parses a titles CSV into normalized records. Rows the CSV
// reader rejects and rows without a platform are skipped; rows with
// unparsable fields are kept with those fields degraded.
func ReadTitles(r io.Reader) ([]Record, error) {
	reader := newReader(r)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read titles header: %w", err)
	}

	cols := resolveColumns(headers, titleColumns)
	for _, required := range []string{"platform", "type"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("titles: %w %q", ErrMissingColumn, required)
		}
	}

	var records []Record
	skipped, noPlatform := 0, 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		raw := RawRow{
			Title:       field(row, cols, "title"),
			Platform:    field(row, cols, "platform"),
			Type:        field(row, cols, "type"),
			ReleaseYear: field(row, cols, "release_year"),
			Score:       field(row, cols, "score"),
			Genres:      field(row, cols, "genres"),
			Audience:    field(row, cols, "audience"),
			Countries:   field(row, cols, "countries"),
		}
		if raw.Platform == "" {
			noPlatform++
			continue
		}
		records = append(records, Normalize(len(records), raw))
	}

	if skipped > 0 {
		slog.Warn("skipped malformed title rows", "count", skipped)
	}
	if noPlatform > 0 {
		slog.Warn("skipped title rows without a platform", "count", noPlatform)
	}
	return records, nil
}

// ReadPrices parses a prices CSV. Rows without a platform or a numeric year
// and price are dropped because they cannot be placed on the price chart.
func ReadPrices(r io.Reader) ([]PriceObservation, error) {
	reader := newReader(r)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read prices header: %w", err)
	}

	cols := resolveColumns(headers, priceColumns)
	for _, required := range []string{"platform", "year", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("prices: %w %q", ErrMissingColumn, required)
		}
	}

	var prices []PriceObservation
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		year := parseYear(field(row, cols, "year"))
		price, perr := strconv.ParseFloat(field(row, cols, "price"), 64)
		platform := field(row, cols, "platform")
		if platform == "" || year == nil || perr != nil {
			continue
		}
		prices = append(prices, PriceObservation{
			Platform: platform,
			Year:     *year,
			Price:    price,
		})
	}
	return prices, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader
}

// resolveColumns maps canonical field names to column indexes. Earlier
// aliases win over later ones.
func resolveColumns(headers []string, aliases map[string][]string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	cols := make(map[string]int)
	for canonical, names := range aliases {
		for _, name := range names {
			if i, ok := index[name]; ok {
				cols[canonical] = i
				break
			}
		}
	}
	return cols
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
