// Package handler exposes the thin administrative surface: cache inspection
// and control, and read/maintenance access to persisted matches. Everything
// here is a pass-through to the engine, the cache, or the repository.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"foodmatch/internal/match"
	"foodmatch/pkg/platform/httputil"
)

// Engine is the matching surface the handlers need.
type Engine interface {
	Find(ctx context.Context, point match.Coordinate) match.MatchResult
	Warm(ctx context.Context, points []match.Coordinate) int
}

// Repository is the matched-donation persistence surface.
type Repository interface {
	Save(ctx context.Context, m match.MatchedDonation) error
	FindAll(ctx context.Context) ([]match.MatchedDonation, error)
	FindByDonorID(ctx context.Context, donorID string) ([]match.MatchedDonation, error)
	FindByID(ctx context.Context, donationID string) (*match.MatchedDonation, error)
	DeleteByID(ctx context.Context, donationID string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// warmLocations are the grid cells pre-populated by POST /cache/warm.
var warmLocations = []match.Coordinate{
	{Lat: 12.9716, Lon: 77.5946},
	{Lat: 12.920, Lon: 77.600},
	{Lat: 13.000, Lon: 77.700},
	{Lat: 12.933, Lon: 77.610},
}

// Handler wires the admin endpoints to their collaborators.
type Handler struct {
	engine     Engine
	cache      match.Cache
	matches    Repository
	recipients int
	logger     *slog.Logger
}

// New constructs the handler. recipients is the directory size reported by
// the stats endpoint.
func New(engine Engine, cache match.Cache, matches Repository, recipients int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:     engine,
		cache:      cache,
		matches:    matches,
		recipients: recipients,
		logger:     logger,
	}
}

// Register mounts all endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/cache", func(r chi.Router) {
		r.Get("/status", h.handleCacheStatus)
		r.Get("/stats", h.handleCacheStats)
		r.Delete("/clear", h.handleCacheClear)
		r.Delete("/clear/location", h.handleCacheClearLocation)
		r.Post("/warm", h.handleCacheWarm)
	})
	r.Route("/matches", func(r chi.Router) {
		r.Get("/", h.handleListMatches)
		r.Get("/health", h.handleHealth)
		r.Delete("/clear", h.handleClearMatches)
		r.Get("/{donorId}", h.handleMatchesByDonor)
		r.Put("/{donationId}", h.handleUpdateMatch)
		r.Delete("/{donationId}", h.handleDeleteMatch)
	})
}

func (h *Handler) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	size, err := h.cache.Size(ctx)
	if err != nil {
		// Size is best effort; report zero rather than failing the probe.
		h.logger.Warn("cache size probe failed", "error", err)
		size = 0
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"cacheEnabled": h.cache.Healthy(ctx),
		"cacheSize":    size,
		"timestamp":    time.Now().UnixMilli(),
	})
}

func (h *Handler) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	size, err := h.cache.Size(ctx)
	if err != nil {
		h.logger.Warn("cache size probe failed", "error", err)
		size = 0
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"cacheEnabled":    h.cache.Healthy(ctx),
		"cacheSize":       size,
		"totalRecipients": h.recipients,
	})
}

func (h *Handler) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		h.logger.Error("cache clear failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":   "cache cleared",
		"timestamp": time.Now().UnixMilli(),
	})
}

func (h *Handler) handleCacheClearLocation(w http.ResponseWriter, r *http.Request) {
	point, ok := coordinateFromQuery(w, r)
	if !ok {
		return
	}
	key := match.CellKey(point)
	if err := h.cache.Invalidate(r.Context(), key); err != nil {
		h.logger.Error("cache invalidate failed", "key", key, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "location cache cleared",
		"location": key,
	})
}

func (h *Handler) handleCacheWarm(w http.ResponseWriter, r *http.Request) {
	matched := h.engine.Warm(r.Context(), warmLocations)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":         "cache warmed",
		"locationsWarmed": len(warmLocations),
		"locationsCached": matched,
	})
}

func (h *Handler) handleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matches.FindAll(r.Context())
	if err != nil {
		h.logger.Error("list matches failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if matches == nil {
		matches = []match.MatchedDonation{}
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (h *Handler) handleMatchesByDonor(w http.ResponseWriter, r *http.Request) {
	donorID := chi.URLParam(r, "donorId")
	matches, err := h.matches.FindByDonorID(r.Context(), donorID)
	if err != nil {
		h.logger.Error("list donor matches failed", "donor_id", donorID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if matches == nil {
		matches = []match.MatchedDonation{}
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

// updateMatchRequest limits updates to the two mutable fields.
type updateMatchRequest struct {
	Quantity int    `json:"quantity"`
	NgoName  string `json:"ngoName"`
}

func (h *Handler) handleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	donationID := chi.URLParam(r, "donationId")

	var req updateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	existing, err := h.matches.FindByID(ctx, donationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	existing.Quantity = req.Quantity
	existing.NgoName = req.NgoName
	if err := h.matches.Save(ctx, *existing); err != nil {
		h.logger.Error("update match failed", "donation_id", donationID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, existing)
}

func (h *Handler) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	donationID := chi.URLParam(r, "donationId")
	if err := h.matches.DeleteByID(r.Context(), donationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "match deleted"})
}

func (h *Handler) handleClearMatches(w http.ResponseWriter, r *http.Request) {
	if err := h.matches.DeleteAll(r.Context()); err != nil {
		h.logger.Error("clear matches failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "all matches cleared"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.matches.Count(r.Context())
	if err != nil {
		h.logger.Error("match count failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"totalMatches": count,
	})
}

// coordinateFromQuery parses and validates lat/lon query parameters.
func coordinateFromQuery(w http.ResponseWriter, r *http.Request) (match.Coordinate, bool) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		httputil.WriteBadRequest(w, "lat must be a number")
		return match.Coordinate{}, false
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		httputil.WriteBadRequest(w, "lon must be a number")
		return match.Coordinate{}, false
	}
	point := match.Coordinate{Lat: lat, Lon: lon}
	if err := point.Validate(); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return match.Coordinate{}, false
	}
	return point, true
}
