package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"streamlens/catalog"
	"streamlens/dashboard"
	"streamlens/render"
	"streamlens/storage"
)

func testStore() *catalog.Store {
	rows := []catalog.RawRow{
		{Platform: "Netflix", Type: "SHOW", Score: "8.0", Genres: "Drama", ReleaseYear: "2020", Audience: "adult", Countries: "United States"},
		{Platform: "Netflix", Type: "MOVIE", Score: "6.5", Genres: "Comedy", ReleaseYear: "2019", Audience: "teenager", Countries: "France"},
		{Platform: "Hulu", Type: "MOVIE", Score: "7.2", Genres: "Action", ReleaseYear: "2018", Audience: "child", Countries: "Japan"},
	}
	records := make([]catalog.Record, len(rows))
	for i, row := range rows {
		records[i] = catalog.Normalize(i, row)
	}
	return catalog.NewStore(records, []catalog.PriceObservation{{Platform: "Netflix", Year: 2019, Price: 12.99}})
}

type testEnv struct {
	dash    *dashboard.Dashboard
	storage *storage.SQLiteStorage
	files   *render.FileRenderer
	server  *Server
	http    *httptest.Server
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store := storage.NewSQLiteStorage(dir)
	if err := store.Initialize(); err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	files, err := render.NewFileRenderer(dir+"/charts", render.Size{Width: 320, Height: 200})
	if err != nil {
		t.Fatalf("Failed to create file renderer: %v", err)
	}

	dash := dashboard.New(testStore(), dashboard.WithRenderer(files))
	opts = append([]Option{WithFileRenderer(files), WithResizeDelay(10 * time.Millisecond)}, opts...)
	srv := New(dash, store, opts...)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	return &testEnv{dash: dash, storage: store, files: files, server: srv, http: ts}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.http.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("Expected status %d, got %d", want, resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/healthz", "")
	expectStatus(t, resp, http.StatusOK)
}

func TestDispatchAction(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/actions", `{"type":"clickBar","platform":"Netflix","content_type":"MOVIE"}`)
	expectStatus(t, resp, http.StatusOK)
	var view dashboard.View
	decode(t, resp, &view)
	if view.Matched != 1 {
		t.Errorf("Expected 1 match, got %d", view.Matched)
	}

	resp = env.do(t, http.MethodGet, "/api/state", "")
	expectStatus(t, resp, http.StatusOK)
	var state stateResponse
	decode(t, resp, &state)
	if len(state.State.Platforms) != 1 || state.State.Platforms[0] != "Netflix" {
		t.Errorf("Unexpected state: %+v", state.State)
	}

	// Every dispatched action rewrites the chart files
	if _, err := os.Stat(env.files.Path(dashboard.ChartFlow)); err != nil {
		t.Errorf("Chart file missing: %v", err)
	}
}

func TestDispatchInvalidAction(t *testing.T) {
	env := newTestEnv(t)
	before := env.dash.View().Seq

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"type":`},
		{name: "unknown type", body: `{"type":"explode"}`},
		{name: "bad score range", body: `{"type":"setScoreRange","lo":9,"hi":2}`},
		{name: "bad content type", body: `{"type":"setTypes","types":["PODCAST"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/actions", tt.body)
			expectStatus(t, resp, http.StatusBadRequest)
			var body map[string]string
			decode(t, resp, &body)
			if body["error"] == "" {
				t.Error("Expected error message")
			}
		})
	}

	if env.dash.View().Seq != before {
		t.Error("Rejected actions must not change the view")
	}
}

func TestActionTypes(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/actions", "")
	expectStatus(t, resp, http.StatusOK)
	var names []string
	decode(t, resp, &names)
	if len(names) != len(dashboard.ActionTypes()) {
		t.Errorf("Expected %d action types, got %d", len(dashboard.ActionTypes()), len(names))
	}
}

func TestViews(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/views", "")
	expectStatus(t, resp, http.StatusOK)
	var view dashboard.View
	decode(t, resp, &view)
	if view.Total != 3 {
		t.Errorf("Expected 3 records, got %d", view.Total)
	}

	resp = env.do(t, http.MethodGet, "/api/views/types", "")
	expectStatus(t, resp, http.StatusOK)
	var types struct {
		Counts []struct {
			Platform string `json:"platform"`
		} `json:"counts"`
	}
	decode(t, resp, &types)
	if len(types.Counts) != 2 {
		t.Errorf("Expected 2 platforms, got %+v", types.Counts)
	}

	resp = env.do(t, http.MethodGet, "/api/views/pie", "")
	expectStatus(t, resp, http.StatusNotFound)
}

func TestChartPNG(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/charts/flow.png?w=400&h=240", "")
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Failed to decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 240 {
		t.Errorf("Expected 400x240, got %dx%d", b.Dx(), b.Dy())
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/charts/pie.png", ""), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodGet, "/api/charts/flow.png?w=0", ""), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodGet, "/api/charts/flow.png?h=tall", ""), http.StatusBadRequest)
}

func TestOptions(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/options/genres?q=dra", "")
	expectStatus(t, resp, http.StatusOK)
	var items []dashboard.OptionItem
	decode(t, resp, &items)
	if len(items) != 1 || items[0].Value != "Drama" || !items[0].Checked {
		t.Errorf("Unexpected items: %+v", items)
	}

	resp = env.do(t, http.MethodGet, "/api/options/countries?q=zzz", "")
	expectStatus(t, resp, http.StatusOK)
	var raw []json.RawMessage
	decode(t, resp, &raw)
	if raw == nil || len(raw) != 0 {
		t.Errorf("Expected empty JSON array, got %v", raw)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/options/moods", ""), http.StatusNotFound)
}

func TestViewport(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(t, http.MethodPost, "/api/viewport", `{"width":0,"height":100}`), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPost, "/api/viewport", `not json`), http.StatusBadRequest)

	// A burst of resizes settles on the last size
	for _, width := range []int{500, 600, 700} {
		body := fmt.Sprintf(`{"width":%d,"height":300}`, width)
		expectStatus(t, env.do(t, http.MethodPost, "/api/viewport", body), http.StatusAccepted)
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.files.Size().Width != 700 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := env.files.Size(); got.Width != 700 || got.Height != 300 {
		t.Fatalf("Expected 700x300, got %+v", got)
	}

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f, err := os.Open(env.files.Path(dashboard.ChartTypes)); err == nil {
			cfg, err := png.DecodeConfig(f)
			f.Close()
			if err == nil && cfg.Width == 700 {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	f, err := os.Open(env.files.Path(dashboard.ChartTypes))
	if err != nil {
		t.Fatalf("Chart file missing after resize: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil || cfg.Width != 700 {
		t.Errorf("Expected redrawn 700px chart, got %d (%v)", cfg.Width, err)
	}

	resp := env.do(t, http.MethodGet, "/api/viewport", "")
	var vp viewportRequest
	decode(t, resp, &vp)
	if vp.Width != 700 {
		t.Errorf("Expected viewport width 700, got %d", vp.Width)
	}
}

func TestPresets(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(t, http.MethodPost, "/api/actions", `{"type":"setPlatforms","names":["Hulu"]}`), http.StatusOK)
	resp := env.do(t, http.MethodPut, "/api/presets/hulu", "")
	expectStatus(t, resp, http.StatusOK)

	expectStatus(t, env.do(t, http.MethodPost, "/api/actions", `{"type":"resetAll"}`), http.StatusOK)
	if env.dash.View().Matched != 3 {
		t.Fatalf("Expected reset to match everything")
	}

	resp = env.do(t, http.MethodPost, "/api/presets/hulu/load", "")
	expectStatus(t, resp, http.StatusOK)
	var view dashboard.View
	decode(t, resp, &view)
	if view.Matched != 1 {
		t.Errorf("Expected preset to restore 1 match, got %d", view.Matched)
	}

	resp = env.do(t, http.MethodGet, "/api/presets", "")
	expectStatus(t, resp, http.StatusOK)
	var presets []storage.Preset
	decode(t, resp, &presets)
	if len(presets) != 1 || presets[0].Name != "hulu" {
		t.Errorf("Unexpected presets: %+v", presets)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/presets/hulu", ""), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/presets/hulu", ""), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/presets/hulu", ""), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodPost, "/api/presets/hulu/load", ""), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodGet, "/api/presets/missing", ""), http.StatusNotFound)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	if err := env.storage.ReplaceCatalog(context.Background(), testStore()); err != nil {
		t.Fatalf("Failed to store catalog: %v", err)
	}

	resp := env.do(t, http.MethodGet, "/api/stats", "")
	expectStatus(t, resp, http.StatusOK)
	var stats storage.Stats
	decode(t, resp, &stats)
	if stats.Total != 3 || stats.Movies != 2 || stats.Platforms["Netflix"] != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.SchemaVersion != 2 || stats.PendingMigrations != 0 {
		t.Errorf("Expected schema version 2, got %d (%d pending)", stats.SchemaVersion, stats.PendingMigrations)
	}
}

func TestReload(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, http.MethodPost, "/api/reload", ""), http.StatusNotImplemented)

	var calls atomic.Int32
	ok := newTestEnv(t, WithReload(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}))
	expectStatus(t, ok.do(t, http.MethodPost, "/api/reload", ""), http.StatusOK)
	if calls.Load() != 1 {
		t.Errorf("Expected 1 reload, got %d", calls.Load())
	}

	failing := newTestEnv(t, WithReload(func(ctx context.Context) error {
		return errors.New("source unreachable")
	}))
	resp := failing.do(t, http.MethodPost, "/api/reload", "")
	expectStatus(t, resp, http.StatusBadGateway)
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	if !strings.Contains(body.String(), "source unreachable") {
		t.Errorf("Expected error message, got %s", body.String())
	}
}
