package dashboard

import (
	"encoding/json"
	"fmt"
	"slices"

	"streamlens/aggregate"
	"streamlens/catalog"
	"streamlens/filter"
)

// Action is one discrete control event. Each action changes the filter
// state (and, for treemap navigation, the drill state) and nothing else.
type Action interface {
	Type() string
	apply(tx *actionContext) error
}

// actionContext is the working copy an action edits. It is committed only
// when apply succeeds.
type actionContext struct {
	state filter.State
	drill aggregate.Drill
	store *catalog.Store
	view  *View
}

type TogglePlatform struct {
	Name string `json:"name"`
}

func (TogglePlatform) Type() string { return "togglePlatform" }
func (a TogglePlatform) apply(tx *actionContext) error {
	tx.state.TogglePlatform(a.Name)
	return nil
}

type SetPlatforms struct {
	Names []string `json:"names"`
}

func (SetPlatforms) Type() string { return "setPlatforms" }
func (a SetPlatforms) apply(tx *actionContext) error {
	tx.state.SetPlatforms(a.Names)
	return nil
}

type SetTypes struct {
	Types []catalog.ContentType `json:"types"`
}

func (SetTypes) Type() string { return "setTypes" }
func (a SetTypes) apply(tx *actionContext) error {
	return tx.state.SetTypes(a.Types)
}

type SetScoreRange struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

func (SetScoreRange) Type() string { return "setScoreRange" }
func (a SetScoreRange) apply(tx *actionContext) error {
	return tx.state.SetScoreRange(a.Lo, a.Hi)
}

type SetGenres struct {
	Names []string `json:"names"`
}

func (SetGenres) Type() string { return "setGenres" }
func (a SetGenres) apply(tx *actionContext) error {
	tx.state.SetGenres(a.Names)
	return nil
}

type SelectAllGenres struct{}

func (SelectAllGenres) Type() string { return "selectAllGenres" }
func (SelectAllGenres) apply(tx *actionContext) error {
	tx.state.SelectAllGenres()
	return nil
}

type ToggleAllGenres struct{}

func (ToggleAllGenres) Type() string { return "toggleAllGenres" }
func (ToggleAllGenres) apply(tx *actionContext) error {
	tx.state.ToggleAllGenres(tx.store.Genres())
	return nil
}

// SetYearRange sets the brushed year interval. A nil Range, or one covering
// the whole catalog, removes the year restriction.
type SetYearRange struct {
	Range *filter.YearRange `json:"range"`
}

func (SetYearRange) Type() string { return "setYearRange" }
func (a SetYearRange) apply(tx *actionContext) error {
	if a.Range != nil {
		if lo, hi, ok := aggregate.YearExtent(tx.store.Records(), 0); ok && a.Range.Lo <= lo && a.Range.Hi >= hi {
			return tx.state.SetYearRange(nil)
		}
	}
	return tx.state.SetYearRange(a.Range)
}

type SetAudiences struct {
	Names []string `json:"names"`
}

func (SetAudiences) Type() string { return "setAudiences" }
func (a SetAudiences) apply(tx *actionContext) error {
	tx.state.SetAudiences(a.Names)
	return nil
}

type ToggleAudience struct {
	Name string `json:"name"`
}

func (ToggleAudience) Type() string { return "toggleAudience" }
func (a ToggleAudience) apply(tx *actionContext) error {
	tx.state.ToggleAudience(a.Name)
	return nil
}

type SetCountries struct {
	Names []string `json:"names"`
}

func (SetCountries) Type() string { return "setCountries" }
func (a SetCountries) apply(tx *actionContext) error {
	tx.state.SetCountries(a.Names)
	return nil
}

type ToggleCountry struct {
	Name string `json:"name"`
}

func (ToggleCountry) Type() string { return "toggleCountry" }
func (a ToggleCountry) apply(tx *actionContext) error {
	tx.state.ToggleCountry(a.Name, tx.store.Countries())
	return nil
}

type ToggleContinent struct {
	Name string `json:"name"`
}

func (ToggleContinent) Type() string { return "toggleContinent" }
func (a ToggleContinent) apply(tx *actionContext) error {
	members := tx.store.CountriesIn(a.Name)
	if len(members) == 0 {
		return fmt.Errorf("%w: continent %q", ErrUnknownLocation, a.Name)
	}
	tx.state.ToggleContinent(members, tx.store.Countries())
	return nil
}

type ToggleAllCountries struct{}

func (ToggleAllCountries) Type() string { return "toggleAllCountries" }
func (ToggleAllCountries) apply(tx *actionContext) error {
	tx.state.ToggleAllCountries(tx.store.Countries())
	return nil
}

type SetLocationView struct {
	View aggregate.LocationView `json:"view"`
}

func (SetLocationView) Type() string { return "setLocationView" }
func (a SetLocationView) apply(tx *actionContext) error {
	switch a.View {
	case aggregate.ViewContinents, aggregate.ViewCountries:
		tx.drill = aggregate.Drill{View: a.View}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownView, a.View)
	}
}

// ClickBar narrows to one bar of the type-count chart.
type ClickBar struct {
	Platform    string              `json:"platform"`
	ContentType catalog.ContentType `json:"content_type"`
}

func (ClickBar) Type() string { return "clickBar" }
func (a ClickBar) apply(tx *actionContext) error {
	if err := tx.state.SetTypes([]catalog.ContentType{a.ContentType}); err != nil {
		return err
	}
	tx.state.SetPlatforms([]string{a.Platform})
	return nil
}

// ClickFlowNode narrows the filter field the node's kind belongs to.
type ClickFlowNode struct {
	Kind  aggregate.NodeKind `json:"kind"`
	Value string             `json:"value"`
}

func (ClickFlowNode) Type() string { return "clickFlowNode" }
func (a ClickFlowNode) apply(tx *actionContext) error {
	switch a.Kind {
	case aggregate.KindPlatform:
		tx.state.SetPlatforms([]string{a.Value})
	case aggregate.KindGenre:
		tx.state.SetGenres([]string{a.Value})
	case aggregate.KindAudience:
		tx.state.SetAudiences([]string{a.Value})
	case aggregate.KindCountry:
		return selectCountry(tx, a.Value)
	case aggregate.KindContinent:
		return drillInto(tx, a.Value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNodeKind, a.Kind)
	}
	return nil
}

// ClickHierarchyCell handles a treemap click. Kind defaults to the level
// currently shown.
type ClickHierarchyCell struct {
	Name string             `json:"name"`
	Kind aggregate.NodeKind `json:"kind,omitempty"`
}

func (ClickHierarchyCell) Type() string { return "clickHierarchyCell" }
func (a ClickHierarchyCell) apply(tx *actionContext) error {
	kind := a.Kind
	if kind == "" && tx.view != nil {
		kind = tx.view.Hierarchy.Level
	}
	switch kind {
	case aggregate.KindContinent:
		return drillInto(tx, a.Name)
	case aggregate.KindCountry:
		return selectCountry(tx, a.Name)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNodeKind, kind)
	}
}

// drillInto focuses the treemap on a continent and selects its countries.
func drillInto(tx *actionContext, continent string) error {
	members := tx.store.CountriesIn(continent)
	if len(members) == 0 {
		return fmt.Errorf("%w: continent %q", ErrUnknownLocation, continent)
	}
	tx.state.SetCountries(members)
	tx.drill = aggregate.Drill{View: aggregate.ViewContinents, Focus: continent}
	return nil
}

// selectCountry narrows to one country and shows the country level.
func selectCountry(tx *actionContext, country string) error {
	if country == "" {
		return fmt.Errorf("%w: empty country", ErrUnknownLocation)
	}
	tx.state.SetCountries([]string{country})
	tx.drill = aggregate.Drill{View: aggregate.ViewCountries}
	return nil
}

// ResetChart clears only the filters a chart's own interactions set.
type ResetChart struct {
	Chart Chart `json:"chart"`
}

func (ResetChart) Type() string { return "resetChart" }
func (a ResetChart) apply(tx *actionContext) error {
	switch a.Chart {
	case ChartHierarchy:
		tx.state.SetCountries(nil)
		tx.drill = aggregate.DefaultDrill()
	case ChartTypes:
		tx.state.SetPlatforms(nil)
		_ = tx.state.SetTypes(nil)
	case ChartFlow:
		tx.state.SetPlatforms(nil)
		tx.state.SetAudiences(nil)
		tx.state.SelectAllGenres()
	case ChartTimeline:
		_ = tx.state.SetYearRange(nil)
	case ChartPrices:
		tx.state.SetPlatforms(nil)
		_ = tx.state.SetYearRange(nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, a.Chart)
	}
	return nil
}

type ResetAll struct{}

func (ResetAll) Type() string { return "resetAll" }
func (ResetAll) apply(tx *actionContext) error {
	tx.state.Reset()
	tx.drill = aggregate.DefaultDrill()
	return nil
}

var actionTypes = map[string]func() Action{
	"togglePlatform":     func() Action { return &TogglePlatform{} },
	"setPlatforms":       func() Action { return &SetPlatforms{} },
	"setTypes":           func() Action { return &SetTypes{} },
	"setScoreRange":      func() Action { return &SetScoreRange{} },
	"setGenres":          func() Action { return &SetGenres{} },
	"selectAllGenres":    func() Action { return &SelectAllGenres{} },
	"toggleAllGenres":    func() Action { return &ToggleAllGenres{} },
	"setYearRange":       func() Action { return &SetYearRange{} },
	"setAudiences":       func() Action { return &SetAudiences{} },
	"toggleAudience":     func() Action { return &ToggleAudience{} },
	"setCountries":       func() Action { return &SetCountries{} },
	"toggleCountry":      func() Action { return &ToggleCountry{} },
	"toggleContinent":    func() Action { return &ToggleContinent{} },
	"toggleAllCountries": func() Action { return &ToggleAllCountries{} },
	"setLocationView":    func() Action { return &SetLocationView{} },
	"clickBar":           func() Action { return &ClickBar{} },
	"clickFlowNode":      func() Action { return &ClickFlowNode{} },
	"clickHierarchyCell": func() Action { return &ClickHierarchyCell{} },
	"resetChart":         func() Action { return &ResetChart{} },
	"resetAll":           func() Action { return &ResetAll{} },
}

// ActionTypes returns the names DecodeAction accepts.
func ActionTypes() []string {
	names := make([]string, 0, len(actionTypes))
	for name := range actionTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DecodeAction parses a JSON action of the form {"type": "...", ...}.
func DecodeAction(data []byte) (Action, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}
	newAction, ok := actionTypes[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, envelope.Type)
	}
	action := newAction()
	if err := json.Unmarshal(data, action); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", envelope.Type, err)
	}
	return action, nil
}
