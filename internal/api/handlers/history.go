package handlers

import (
	"net/http"
	"strconv"
	"time"
	"trip-route-service/internal/api/dto"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/services"
)

const defaultHistoryLimit = 50

type HistoryHandler struct {
	History  *services.RouteHistory
	Sessions *SessionHandler
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.History.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, "list history", err)
		return
	}

	res := dto.ListHistoryResponse{Entries: make([]dto.HistoryEntryResponse, 0, len(entries))}
	for _, e := range entries {
		res.Entries = append(res.Entries, dto.FromHistoryEntry(e))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.History.Get(r.Context(), r.PathValue("entry"))
	if err != nil {
		writeServiceError(w, r, "get history", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromHistoryEntry(e))
}

// Replay loads the stops of a completed route into a session.
func (h *HistoryHandler) Replay(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.Sessions.session(w, r)
	if !ok {
		return
	}

	if err := h.History.Replay(r.Context(), r.PathValue("entry"), sess.State); err != nil {
		writeServiceError(w, r, "replay history", err)
		return
	}
	writeJSON(w, r, http.StatusOK, routeResponse(sess.ID, sess.State.View()))
}

func (h *HistoryHandler) Today(w http.ResponseWriter, r *http.Request) {
	st, err := h.History.Today(r.Context())
	if err != nil {
		writeServiceError(w, r, "today stats", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromStats(st))
}

func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := time.Parse(domain.StatsDateLayout, date); err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	st, err := h.History.Stats(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, "get stats", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromStats(st))
}

func (h *HistoryHandler) AllStats(w http.ResponseWriter, r *http.Request) {
	days, err := h.History.AllStats(r.Context())
	if err != nil {
		writeServiceError(w, r, "list stats", err)
		return
	}

	res := dto.ListStatsResponse{Days: make([]dto.StatsResponse, 0, len(days))}
	for _, d := range days {
		res.Days = append(res.Days, dto.FromStats(d))
	}
	writeJSON(w, r, http.StatusOK, res)
}
