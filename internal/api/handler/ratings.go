package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/matchplay/internal/api/respond"
	"github.com/albapepper/matchplay/internal/cache"
	"github.com/albapepper/matchplay/internal/match"
	"github.com/albapepper/matchplay/internal/rating"
	"github.com/albapepper/matchplay/internal/regen"
	"github.com/albapepper/matchplay/internal/store"
)

// LeaderboardEntry is one row of GET /groups/{groupID}/players.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	rating.State
}

// Leaderboard is the response of GET /groups/{groupID}/players.
type Leaderboard struct {
	GroupID  string             `json:"group_id"`
	SeasonID string             `json:"season_id,omitempty"`
	Players  []LeaderboardEntry `json:"players"`
}

// MatchHistory is the response of GET /groups/{groupID}/matches, newest first.
type MatchHistory struct {
	GroupID  string         `json:"group_id"`
	SeasonID string         `json:"season_id,omitempty"`
	Matches  []rating.Match `json:"matches"`
}

func scopeFromRequest(r *http.Request) rating.Scope {
	return rating.SeasonScope(chi.URLParam(r, "groupID"), r.URL.Query().Get("season_id"))
}

// GetPlayers serves the leaderboard of a group or season.
// @Summary Group leaderboard
// @Description Players ordered by rating. With season_id, season aggregates are returned.
// @Tags ratings
// @Produce json
// @Param groupID path string true "Group ID"
// @Param season_id query string false "Season ID"
// @Success 200 {object} Leaderboard
// @Success 304 "Not modified"
// @Failure 404 {object} respond.ErrorResponse
// @Router /groups/{groupID}/players [get]
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	h.serveCached(w, r, cache.Key(scope.GroupID, "players", scope.SeasonID), func() (any, error) {
		data, err := store.LoadScope(r.Context(), h.store, scope)
		if err != nil {
			return nil, err
		}
		states := make(map[string]rating.State, len(data.Players))
		for _, p := range data.Players {
			states[p.ID] = data.Stored(p.ID)
		}
		names := data.Names()

		board := Leaderboard{GroupID: scope.GroupID, SeasonID: scope.SeasonID, Players: []LeaderboardEntry{}}
		for i, s := range rating.Standings(states) {
			board.Players = append(board.Players, LeaderboardEntry{
				Rank: i + 1, PlayerID: s.PlayerID, Name: names[s.PlayerID], State: s.State,
			})
		}
		return board, nil
	})
}

// GetMatches serves the match history of a group or season.
// @Summary Match history
// @Description Matches newest first, with their stored rating snapshots.
// @Tags ratings
// @Produce json
// @Param groupID path string true "Group ID"
// @Param season_id query string false "Season ID"
// @Success 200 {object} MatchHistory
// @Success 304 "Not modified"
// @Failure 404 {object} respond.ErrorResponse
// @Router /groups/{groupID}/matches [get]
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	h.serveCached(w, r, cache.Key(scope.GroupID, "matches", scope.SeasonID), func() (any, error) {
		data, err := store.LoadScope(r.Context(), h.store, scope)
		if err != nil {
			return nil, err
		}
		matches := slices.Clone(data.Matches)
		slices.SortStableFunc(matches, func(a, b rating.Match) int { return rating.Compare(b, a) })
		if matches == nil {
			matches = []rating.Match{}
		}
		return MatchHistory{GroupID: scope.GroupID, SeasonID: scope.SeasonID, Matches: matches}, nil
	})
}

// RecordMatch records a new match.
// @Summary Record a match
// @Tags matches
// @Accept json
// @Produce json
// @Param groupID path string true "Group ID"
// @Param match body match.RecordInput true "Match"
// @Success 201 {object} rating.Match
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /groups/{groupID}/matches [post]
func (h *Handler) RecordMatch(w http.ResponseWriter, r *http.Request) {
	var in match.RecordInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.GroupID = chi.URLParam(r, "groupID")

	m, err := h.ratings.Record(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.cache.InvalidateGroup(m.GroupID)
	respond.WriteJSONObject(w, http.StatusCreated, m)
}

// EditMatch rewrites a match and recalculates its group.
// @Summary Edit a match
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param match body match.EditInput true "Match"
// @Success 200 {object} rating.Match
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /matches/{matchID} [put]
func (h *Handler) EditMatch(w http.ResponseWriter, r *http.Request) {
	var in match.EditInput
	if !decodeBody(w, r, &in) {
		return
	}

	m, err := h.ratings.Edit(r.Context(), chi.URLParam(r, "matchID"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.cache.InvalidateGroup(m.GroupID)
	respond.WriteJSONObject(w, http.StatusOK, m)
}

// DeleteMatch removes a match and recalculates its group.
// @Summary Delete a match
// @Tags matches
// @Param matchID path string true "Match ID"
// @Success 204 "Deleted"
// @Failure 404 {object} respond.ErrorResponse
// @Router /matches/{matchID} [delete]
func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	m, err := h.store.GetMatch(r.Context(), matchID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.ratings.Delete(r.Context(), matchID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.cache.InvalidateGroup(m.GroupID)
	w.WriteHeader(http.StatusNoContent)
}

// Recalculate replays a scope and rewrites its stored ratings.
// @Summary Recalculate a group or season
// @Tags maintenance
// @Produce json
// @Param groupID path string true "Group ID"
// @Param season_id query string false "Season ID"
// @Success 200 {object} match.RecalcResult
// @Failure 502 {object} respond.ErrorResponse
// @Router /groups/{groupID}/recalculate [post]
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	res, err := h.ratings.Recalculate(r.Context(), scope)
	h.cache.InvalidateGroup(scope.GroupID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, res)
}

// Regenerate runs the bulk regeneration driver for a scope.
// @Summary Regenerate a group or season
// @Description With dry_run=true nothing is written and the would-change counts are reported.
// @Tags maintenance
// @Produce json
// @Param groupID path string true "Group ID"
// @Param season_id query string false "Season ID"
// @Param dry_run query bool false "Report without writing"
// @Success 200 {object} regen.Result
// @Failure 400 {object} respond.ErrorResponse
// @Router /groups/{groupID}/regenerate [post]
func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", "dry_run must be a boolean")
			return
		}
		dryRun = b
	}

	res, err := h.regen.Run(r.Context(), regen.Options{GroupID: scope.GroupID, SeasonID: scope.SeasonID, DryRun: dryRun})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !dryRun {
		h.cache.InvalidateGroup(scope.GroupID)
	}
	respond.WriteJSONObject(w, http.StatusOK, res)
}

// serveCached answers from the cache or builds, caches and serves the value.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, build func() (any, error)) {
	ifNoneMatch := r.Header.Get("If-None-Match")
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(ifNoneMatch, etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLReadModel, true)
		return
	}

	v, err := build()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	etag := h.cache.Set(key, data, cache.TTLReadModel)
	if cache.CheckETagMatch(ifNoneMatch, etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, cache.TTLReadModel, false)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON", err.Error())
		return false
	}
	return true
}
