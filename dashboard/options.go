package dashboard

import (
	"fmt"
	"strings"

	"streamlens/catalog"
	"streamlens/filter"
)

// OptionList names a checkbox list of the filter panel.
type OptionList string

const (
	ListGenres     OptionList = "genres"
	ListCountries  OptionList = "countries"
	ListContinents OptionList = "continents"
)

// OptionItem is one checkbox of a filter list.
type OptionItem struct {
	Value         string `json:"value"`
	Checked       bool   `json:"checked"`
	Indeterminate bool   `json:"indeterminate,omitempty"`
}

// Options builds a checkbox list from the current store and filter state.
// query narrows the list by case-insensitive substring.
func (d *Dashboard) Options(list OptionList, query string) ([]OptionItem, error) {
	d.mu.Lock()
	store, state := d.store, d.state.Clone()
	d.mu.Unlock()

	var items []OptionItem
	switch list {
	case ListGenres:
		for _, g := range store.Genres() {
			items = append(items, OptionItem{Value: g, Checked: state.Genres.Includes(g)})
		}
	case ListCountries:
		for _, c := range store.Countries() {
			items = append(items, OptionItem{Value: c, Checked: state.CountrySelected(c)})
		}
	case ListContinents:
		for _, continent := range store.ContinentsPresent() {
			items = append(items, continentItem(store, continent, state))
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownList, list)
	}

	return search(items, query), nil
}

func continentItem(store *catalog.Store, continent string, state filter.State) OptionItem {
	members := store.CountriesIn(continent)
	n := 0
	for _, c := range members {
		if state.CountrySelected(c) {
			n++
		}
	}
	return OptionItem{
		Value:         continent,
		Checked:       len(members) > 0 && n == len(members),
		Indeterminate: n > 0 && n < len(members),
	}
}

func search(items []OptionItem, query string) []OptionItem {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]OptionItem, 0, len(items))
	for _, item := range items {
		if query == "" || strings.Contains(strings.ToLower(item.Value), query) {
			out = append(out, item)
		}
	}
	return out
}
