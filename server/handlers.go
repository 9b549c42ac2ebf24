package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"streamlens/aggregate"
	"streamlens/dashboard"
	"streamlens/filter"
	"streamlens/render"
	"streamlens/storage"
)

// maxChartSide bounds requested chart dimensions.
const maxChartSide = 4096

var (
	errNoStorage = errors.New("storage not configured")
	errNoReload  = errors.New("reload not configured")
)

type stateResponse struct {
	State filter.State    `json:"state"`
	Drill aggregate.Drill `json:"drill"`
}

type viewportRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	state, drill := s.dash.State()
	writeJSON(w, http.StatusOK, stateResponse{State: state, Drill: drill})
}

func (s *Server) handleActionTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.ActionTypes())
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	action, err := dashboard.DecodeAction(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := s.dash.Dispatch(r.Context(), action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleViews(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.View())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	chart, err := dashboard.ParseChart(chi.URLParam(r, "chart"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	part, err := s.dash.View().Chart(chart)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, part)
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	chart, err := dashboard.ParseChart(chi.URLParam(r, "chart"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	size := s.currentViewport()
	if size.Width, err = queryDimension(r, "w", size.Width); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if size.Height, err = queryDimension(r, "h", size.Height); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data, err := render.PNG(s.dash.View(), chart, size)
	if err != nil {
		s.logger.Error("chart render failed", "chart", chart, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	list := dashboard.OptionList(chi.URLParam(r, "list"))
	items, err := s.dash.Options(list, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if items == nil {
		items = []dashboard.OptionItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetViewport(w http.ResponseWriter, _ *http.Request) {
	size := s.currentViewport()
	writeJSON(w, http.StatusOK, viewportRequest{Width: size.Width, Height: size.Height})
}

// handleViewport records the new size; chart files are redrawn once the
// resize events stop.
func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := checkDimension("width", req.Width); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := checkDimension("height", req.Height); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	s.viewport = render.Size{Width: req.Width, Height: req.Height}
	s.mu.Unlock()
	s.resize.Trigger()

	writeJSON(w, http.StatusAccepted, req)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		writeError(w, http.StatusNotImplemented, errNoStorage)
		return
	}
	stats, err := s.storage.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		writeError(w, http.StatusNotImplemented, errNoReload)
		return
	}
	if err := s.reload(r.Context()); err != nil {
		s.logger.Error("reload failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, s.dash.View())
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		writeError(w, http.StatusNotImplemented, errNoStorage)
		return
	}
	presets, err := s.storage.ListPresets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if presets == nil {
		presets = []storage.Preset{}
	}
	writeJSON(w, http.StatusOK, presets)
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		writeError(w, http.StatusNotImplemented, errNoStorage)
		return
	}
	preset, err := s.storage.GetPreset(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writePresetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

// handleSavePreset stores the current filter state under the name.
func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		writeError(w, http.StatusNotImplemented, errNoStorage)
		return
	}
	state, _ := s.dash.State()
	preset, err := s.storage.SavePreset(r.Context(), chi.URLParam(r, "name"), state)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		writeError(w, http.StatusNotImplemented, errNoStorage)
		return
	}
	preset, err := s.storage.GetPreset(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writePresetError(w, err)
		return
	}
	view, err := s.dash.LoadState(r.Context(), preset.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		writeError(w, http.StatusNotImplemented, errNoStorage)
		return
	}
	if err := s.storage.DeletePreset(r.Context(), chi.URLParam(r, "name")); err != nil {
		writePresetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writePresetError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrPresetNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func queryDimension(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, checkDimension(key, v)
}

func checkDimension(name string, v int) error {
	if v <= 0 || v > maxChartSide {
		return fmt.Errorf("%s must be between 1 and %d, got %d", name, maxChartSide, v)
	}
	return nil
}
