// Package uiapi serves the JSON API consumed by the web UI: the primary
// recommendation, the diagnostic slot rankings, cache inspection and
// settings management.
package uiapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/F1nal04/wattlyzer/internal/engine"
	"github.com/F1nal04/wattlyzer/internal/sched"
	"github.com/F1nal04/wattlyzer/internal/store"
	"github.com/F1nal04/wattlyzer/internal/sun"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Position is the location the solar forecast is requested for
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Server struct {
	scheduler *sched.Scheduler
	store     *store.Store
	position  *Position // nil means scheduling cannot proceed
	log       zerolog.Logger
}

// NewServer creates the API server. A nil position disables scheduling
// endpoints until configured.
func NewServer(scheduler *sched.Scheduler, st *store.Store, position *Position, log zerolog.Logger) *Server {
	return &Server{
		scheduler: scheduler,
		store:     st,
		position:  position,
		log:       log,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/schedule", s.handleSchedule)
		r.Get("/slots", s.handleSlots)
		r.Get("/cache", s.handleCacheInfo)
		r.Delete("/cache", s.handleCacheClear)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"hasPosition": s.position != nil,
	})
}

// schedulingParams resolves duration and window from query parameters and
// persisted settings. Window accepts a fixed hour count, "eod" or "sunset".
func (s *Server) schedulingParams(r *http.Request, pos Position) (engine.Preferences, engine.PanelConfig, error) {
	settings := s.store.LoadSettings()

	duration := 3
	if d := r.URL.Query().Get("duration"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed < 1 {
			return engine.Preferences{}, engine.PanelConfig{}, errInvalidParam("duration", d)
		}
		duration = parsed
	}

	windowSpec := r.URL.Query().Get("window")
	if windowSpec == "" {
		windowSpec = "24"
	}
	window, err := sun.ResolveWindow(windowSpec, time.Now(), pos.Latitude, pos.Longitude)
	if err != nil {
		return engine.Preferences{}, engine.PanelConfig{}, err
	}

	prefs := engine.Preferences{
		LoadDurationHours: duration,
		SearchWindowHours: window,
		MinQualifyingWh:   settings.MinQualifyingWh,
		MorningShading:    settings.MorningShading,
		ShadingEndHour:    settings.ShadingEndHour,
	}
	panel := engine.PanelConfig{
		AzimuthDeg: settings.AzimuthDeg,
		TiltDeg:    settings.TiltDeg,
		CapacityKw: settings.CapacityKw,
	}
	return prefs, panel, nil
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	pos, ok := s.requirePosition(w)
	if !ok {
		return
	}

	prefs, panel, err := s.schedulingParams(r, pos)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A window shorter than the duration degrades to an empty evaluation;
	// callers wanting a distinct warning detect it here.
	if prefs.SearchWindowHours < prefs.LoadDurationHours {
		respondJSON(w, http.StatusOK, map[string]any{
			"hasResult": false,
			"warning":   "search window is shorter than the load duration",
		})
		return
	}

	rec, err := s.scheduler.Recommend(r.Context(), time.Now(), pos.Latitude, pos.Longitude, panel, prefs)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	if !rec.HasResult {
		respondJSON(w, http.StatusOK, map[string]any{"hasResult": false})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"hasResult": true,
		"result":    rec.Result,
	})
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	pos, ok := s.requirePosition(w)
	if !ok {
		return
	}

	prefs, panel, err := s.schedulingParams(r, pos)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.scheduler.Recommend(r.Context(), time.Now(), pos.Latitude, pos.Longitude, panel, prefs)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, rec.Top)
}

func (s *Server) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	pos, ok := s.requirePosition(w)
	if !ok {
		return
	}

	settings := s.store.LoadSettings()
	panel := engine.PanelConfig{
		AzimuthDeg: settings.AzimuthDeg,
		TiltDeg:    settings.TiltDeg,
		CapacityKw: settings.CapacityKw,
	}

	respondJSON(w, http.StatusOK, s.scheduler.CacheInfo(pos.Latitude, pos.Longitude, panel))
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.scheduler.ClearCache()
	respondJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.LoadSettings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	settings := s.store.LoadSettings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}

	if err := s.store.SaveSettings(settings); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// requirePosition answers 409 when no location is configured; scheduling
// cannot proceed without one
func (s *Server) requirePosition(w http.ResponseWriter) (Position, bool) {
	if s.position == nil {
		respondError(w, http.StatusConflict, "no position configured")
		return Position{}, false
	}
	return *s.position, true
}

type paramError struct {
	name  string
	value string
}

func errInvalidParam(name, value string) error {
	return &paramError{name: name, value: value}
}

func (e *paramError) Error() string {
	return "invalid " + e.name + ": " + e.value
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
