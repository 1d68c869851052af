package handler

import (
	"errors"
	"net/http"

	"github.com/albapepper/matchplay/internal/api/respond"
	"github.com/albapepper/matchplay/internal/lock"
	"github.com/albapepper/matchplay/internal/rating"
	"github.com/albapepper/matchplay/internal/store"
)

// writeServiceError maps the error taxonomy of the rating services onto HTTP
// statuses. Not-found is checked before persistence because a write to a
// missing row carries both.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, rating.ErrValidation):
		respond.WriteErrorDetail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", err.Error())
	case errors.Is(err, store.ErrNotFound):
		respond.WriteErrorDetail(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", err.Error())
	case errors.Is(err, rating.ErrOrderingConflict):
		respond.WriteErrorDetail(w, http.StatusConflict, "ORDERING_CONFLICT",
			"Match history has an ambiguous order and needs repair", err.Error())
	case errors.Is(err, lock.ErrTimeout):
		w.Header().Set("Retry-After", "5")
		respond.WriteError(w, http.StatusServiceUnavailable, "LOCK_TIMEOUT", "Group is busy, try again")
	case errors.Is(err, store.ErrPersistence):
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("persistence failure")
		respond.WriteError(w, http.StatusBadGateway, "PERSISTENCE_ERROR", "Storage is unavailable")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}
