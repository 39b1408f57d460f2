package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"trip-route-service/internal/api/dto"
	"trip-route-service/internal/domain"
)

func (h *SessionHandler) AddStop(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.AddStopRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	coords := domain.Coordinates{Lat: req.Lat, Lng: req.Lng}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if !coords.Valid() {
		writeError(w, r, http.StatusBadRequest, "lat must be within [-90, 90] and lng within [-180, 180]")
		return
	}

	stop := domain.NewStop(req.Name, req.Direction, coords)
	sess.State.AddStop(stop)
	writeJSON(w, r, http.StatusCreated, dto.FromStop(stop))
}

// RemoveStop accepts either a pending-list index or a stop id.
func (h *SessionHandler) RemoveStop(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}

	ref := r.PathValue("stop")
	var removed domain.Stop
	var err error
	if index, convErr := strconv.Atoi(ref); convErr == nil {
		removed, err = sess.State.RemoveStop(index)
	} else {
		removed, err = sess.State.RemoveStopByID(ref)
	}
	if err != nil {
		writeServiceError(w, r, "remove stop", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromStop(removed))
}

func (h *SessionHandler) FindStops(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, r, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	matches := sess.State.FindStops(q)
	res := dto.FindStopsResponse{Matches: make([]dto.StopMatchResponse, 0, len(matches))}
	for _, m := range matches {
		res.Matches = append(res.Matches, dto.StopMatchResponse{Index: m.Index, Stop: dto.FromStop(m.Stop)})
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *SessionHandler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.PreferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.OptimizeFor != nil {
		m, err := domain.ParseOptimizationMode(*req.OptimizeFor)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "optimize_for must be 'time' or 'distance'")
			return
		}
		if err := sess.State.SetOptimizationMode(m); err != nil {
			writeServiceError(w, r, "set optimization mode", err)
			return
		}
	}

	if req.Transport != nil {
		m, err := domain.ParseTransportMode(*req.Transport)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "transport must be one of driving, walking, bicycling, transit, shuffle")
			return
		}
		if err := sess.State.SetTransportPreference(m); err != nil {
			writeServiceError(w, r, "set transport preference", err)
			return
		}
	}

	writeJSON(w, r, http.StatusOK, routeResponse(sess.ID, sess.State.View()))
}

// Optimize runs the planner synchronously. Plans that could not be applied
// are still returned so the client can show which stops were unreachable.
func (h *SessionHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}

	plan, err := sess.State.Optimize(r.Context())
	switch {
	case err != nil && plan != nil:
		res := dto.FromPlan(plan)
		res.Error = err.Error()
		writeJSON(w, r, statusFor(err), res)
	case err != nil:
		writeServiceError(w, r, "optimize route", err)
	case plan == nil:
		writeJSON(w, r, http.StatusOK, dto.PlanResponse{Legs: []dto.LegResponse{}})
	default:
		res := dto.FromPlan(plan)
		res.Applied = true
		writeJSON(w, r, http.StatusOK, res)
	}
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.State.Start(); err != nil {
		writeServiceError(w, r, "start route", err)
		return
	}
	writeJSON(w, r, http.StatusOK, routeResponse(sess.ID, sess.State.View()))
}

func (h *SessionHandler) Position(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.PositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pos := domain.Coordinates{Lat: req.Lat, Lng: req.Lng}
	if !pos.Valid() {
		writeError(w, r, http.StatusBadRequest, "lat must be within [-90, 90] and lng within [-180, 180]")
		return
	}

	update, err := sess.Tracker.OnPositionUpdate(r.Context(), pos)
	if err != nil {
		writeServiceError(w, r, "position update", err)
		return
	}
	writeJSON(w, r, http.StatusOK, positionResponse(update))
}

func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}

	sess.State.Clear()
	writeJSON(w, r, http.StatusOK, routeResponse(sess.ID, sess.State.View()))
}

func (h *SessionHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, sess.State.Snapshot())
}

func (h *SessionHandler) PutSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}

	var snap domain.RouteSnapshot
	if !decodeJSON(w, r, &snap) {
		return
	}
	if err := sess.State.Restore(snap); err != nil {
		writeServiceError(w, r, "restore snapshot", err)
		return
	}
	writeJSON(w, r, http.StatusOK, routeResponse(sess.ID, sess.State.View()))
}
