// Package handler provides HTTP handlers for all API endpoints. Reads go to
// the store and are cached per group; writes go through the match service or
// the regeneration driver.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/albapepper/matchplay/internal/api/respond"
	"github.com/albapepper/matchplay/internal/cache"
	"github.com/albapepper/matchplay/internal/match"
	"github.com/albapepper/matchplay/internal/rating"
	"github.com/albapepper/matchplay/internal/regen"
	"github.com/albapepper/matchplay/internal/store"
)

// Ratings is the write side used by the handlers; *match.Service implements
// it.
type Ratings interface {
	Record(ctx context.Context, in match.RecordInput) (*rating.Match, error)
	Edit(ctx context.Context, matchID string, in match.EditInput) (*rating.Match, error)
	Delete(ctx context.Context, matchID string) error
	Recalculate(ctx context.Context, scope rating.Scope) (*match.RecalcResult, error)
}

// Regenerator is implemented by *regen.Driver.
type Regenerator interface {
	Run(ctx context.Context, opts regen.Options) (*regen.Result, error)
}

// HealthChecker is implemented by *db.Pool.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store   store.Store
	ratings Ratings
	regen   Regenerator
	db      HealthChecker
	cache   *cache.Cache
	logger  zerolog.Logger
}

// New creates a Handler with shared dependencies.
func New(st store.Store, ratings Ratings, rg Regenerator, db HealthChecker, c *cache.Cache, logger zerolog.Logger) *Handler {
	return &Handler{
		store:   st,
		ratings: ratings,
		regen:   rg,
		db:      db,
		cache:   c,
		logger:  logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"name":    "Matchplay Ratings API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("database health check failed")
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
