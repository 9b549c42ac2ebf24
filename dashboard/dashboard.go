// Package dashboard owns the shared filter state of one dashboard session
// and keeps every linked chart in sync with it.
//
// Controls never touch the state directly. They send actions to Dispatch,
// which applies the one field change, re-runs the filter engine and the
// aggregators, and hands the resulting View to the renderer before the next
// action is accepted.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"streamlens/aggregate"
	"streamlens/catalog"
	"streamlens/filter"
)

var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrUnknownChart    = errors.New("unknown chart")
	ErrUnknownNodeKind = errors.New("unknown node kind")
	ErrUnknownView     = errors.New("unknown location view")
	ErrUnknownLocation = errors.New("unknown location")
	ErrUnknownList     = errors.New("unknown option list")
)

// Chart names a linked visualization.
type Chart string

const (
	ChartFlow      Chart = "flow"
	ChartHierarchy Chart = "hierarchy"
	ChartTypes     Chart = "types"
	ChartTimeline  Chart = "timeline"
	ChartPrices    Chart = "prices"
)

// Charts lists every chart in display order.
func Charts() []Chart {
	return []Chart{ChartFlow, ChartHierarchy, ChartTypes, ChartTimeline, ChartPrices}
}

// ParseChart validates a chart name.
func ParseChart(name string) (Chart, error) {
	for _, c := range Charts() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChart, name)
}

// Renderer draws a completed view. It is called once per completed action.
type Renderer interface {
	Render(ctx context.Context, view *View) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, view *View) error

func (f RendererFunc) Render(ctx context.Context, view *View) error { return f(ctx, view) }

// View is everything the charts draw after one action.
type View struct {
	Seq       uint64                  `json:"seq"`
	State     filter.State            `json:"state"`
	Drill     aggregate.Drill         `json:"drill"`
	Total     int                     `json:"total"`
	Matched   int                     `json:"matched"`
	Flow      aggregate.FlowGraph     `json:"flow"`
	Hierarchy aggregate.HierarchyView `json:"hierarchy"`
	Types     aggregate.TypeCountView `json:"types"`
	Timeline  aggregate.TimelineView  `json:"timeline"`
	Prices    []aggregate.PriceLine   `json:"prices"`
}

// Empty reports whether the current selection matched no title.
func (v *View) Empty() bool { return v.Matched == 0 }

// Chart returns the part of the view drawn by chart.
func (v *View) Chart(chart Chart) (any, error) {
	switch chart {
	case ChartFlow:
		return v.Flow, nil
	case ChartHierarchy:
		return v.Hierarchy, nil
	case ChartTypes:
		return v.Types, nil
	case ChartTimeline:
		return v.Timeline, nil
	case ChartPrices:
		return v.Prices, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, chart)
	}
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithRenderer sets the collaborator that draws each view.
func WithRenderer(r Renderer) Option {
	return func(d *Dashboard) { d.renderer = r }
}

// WithEngine replaces the strict filter engine.
func WithEngine(e filter.Engine) Option {
	return func(d *Dashboard) { d.engine = e }
}

// WithYearFloor ignores release years at or below floor on the timeline.
func WithYearFloor(floor int) Option {
	return func(d *Dashboard) { d.yearFloor = floor }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dashboard) { d.logger = l }
}

// Dashboard is the single owner of the record store, the filter state and
// the treemap drill state. All methods are safe for concurrent use; actions
// run one at a time.
type Dashboard struct {
	mu        sync.Mutex
	store     *catalog.Store
	state     filter.State
	drill     aggregate.Drill
	engine    filter.Engine
	renderer  Renderer
	yearFloor int
	logger    *slog.Logger
	seq       uint64
	view      *View
}

// New creates a dashboard over store with the default filter state.
func New(store *catalog.Store, opts ...Option) *Dashboard {
	if store == nil {
		store = catalog.NewStore(nil, nil)
	}
	d := &Dashboard{
		store: store,
		state: filter.Default(),
		drill: aggregate.DefaultDrill(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.view = d.compute()
	return d
}

// Dispatch applies one action. On error the state is left unchanged and no
// render happens.
func (d *Dashboard) Dispatch(ctx context.Context, action Action) (*View, error) {
	if action == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnknownAction)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tx := &actionContext{
		state: d.state.Clone(),
		drill: d.drill,
		store: d.store,
		view:  d.view,
	}
	if err := action.apply(tx); err != nil {
		d.logger.Debug("action rejected", "action", action.Type(), "error", err)
		return nil, fmt.Errorf("%s: %w", action.Type(), err)
	}

	d.state = tx.state
	d.drill = tx.drill
	d.view = d.compute()
	d.logger.Debug("action applied", "action", action.Type(), "matched", d.view.Matched)
	d.render(ctx)
	return d.view, nil
}

// View returns the view of the current state.
func (d *Dashboard) View() *View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

// State returns a copy of the filter state and the drill state.
func (d *Dashboard) State() (filter.State, aggregate.Drill) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Clone(), d.drill
}

// Store returns the current record store.
func (d *Dashboard) Store() *catalog.Store {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store
}

// LoadState replaces the whole filter state, as when a saved preset is
// restored. The drill state returns to the continent level.
func (d *Dashboard) LoadState(ctx context.Context, state filter.State) (*View, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.state = state.Clone()
	d.drill = aggregate.DefaultDrill()
	d.view = d.compute()
	d.render(ctx)
	return d.view, nil
}

// ReplaceStore swaps in a freshly loaded store. The filter state is kept;
// selections of values that vanished simply match nothing.
func (d *Dashboard) ReplaceStore(ctx context.Context, store *catalog.Store) *View {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.store = store
	d.view = d.compute()
	d.logger.Info("catalog replaced", "records", store.Len(), "matched", d.view.Matched)
	d.render(ctx)
	return d.view
}

// Refresh re-renders the current view without changing any state.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.renderer == nil {
		return nil
	}
	return d.renderer.Render(ctx, d.view)
}

// compute runs the filter engine and every aggregator. Callers hold mu.
func (d *Dashboard) compute() *View {
	records := d.store.Records()
	filtered := d.engine.Apply(records, d.state)
	universe := d.store.Countries()
	d.drill = d.drill.Settle(d.state.Countries, universe)
	d.seq++

	return &View{
		Seq:       d.seq,
		State:     d.state.Clone(),
		Drill:     d.drill,
		Total:     len(records),
		Matched:   len(filtered),
		Flow:      aggregate.Flow(filtered),
		Hierarchy: aggregate.Hierarchy(filtered, d.state.Countries, universe, d.drill),
		Types:     aggregate.TypeCountsView(filtered, d.state.Types),
		Timeline:  aggregate.Timeline(records, filtered, d.state.Years, d.yearFloor),
		Prices:    aggregate.PriceSeries(d.engine.ApplyPrices(d.store.Prices(), d.state)),
	}
}

// render hands the view to the renderer. A failed render is logged; the
// action that produced the view has already been applied.
func (d *Dashboard) render(ctx context.Context) {
	if d.renderer == nil {
		return
	}
	if err := d.renderer.Render(ctx, d.view); err != nil {
		d.logger.Error("render failed", "seq", d.view.Seq, "error", err)
	}
}
