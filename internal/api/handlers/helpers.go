package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"trip-route-service/internal/api/dto"
	"trip-route-service/internal/ports"
	"trip-route-service/internal/services"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object with no unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// statusFor maps service and repository errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrStopNotFound),
		errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrStopIndexOutOfRange),
		errors.Is(err, services.ErrInvalidSnapshot),
		errors.Is(err, services.ErrInvalidTransport),
		errors.Is(err, services.ErrInvalidBookmark):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrBookmarkExists),
		errors.Is(err, services.ErrOptimizationInProgress),
		errors.Is(err, services.ErrOptimizationDiscarded),
		errors.Is(err, services.ErrNoOptimizedRoute),
		errors.Is(err, services.ErrRouteNotActive):
		return http.StatusConflict
	case errors.Is(err, services.ErrDegenerateTour),
		errors.Is(err, services.ErrRouteUnavailable),
		errors.Is(err, services.ErrCostUnavailable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeServiceError hides internal failures and reports the rest as-is.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s failed: method=%s path=%s err=%v", op, r.Method, r.URL.Path, err)
		writeError(w, r, status, "internal server error")
		return
	}
	writeError(w, r, status, err.Error())
}

func routeResponse(id string, v services.RouteView) dto.RouteResponse {
	return dto.RouteResponse{
		SessionID:            id,
		PendingStops:         dto.FromStops(v.PendingStops),
		Legs:                 dto.FromLegs(v.Snapshot.OptimizedOrder, v.Snapshot.LegTransportModes),
		TotalDistanceMeters:  v.Snapshot.TotalDistanceMeters,
		TotalDurationSeconds: v.Snapshot.TotalDurationSeconds,
		OptimizeFor:          v.Snapshot.OptimizationMode,
		Transport:            v.Snapshot.TransportPreference,
		CurrentIndex:         v.CurrentIndex,
		Active:               v.Active,
		Optimizing:           v.Optimizing,
	}
}

func positionResponse(u services.PositionUpdate) dto.PositionResponse {
	return dto.PositionResponse{
		Skipped:        u.Skipped,
		TargetIndex:    u.TargetIndex,
		DistanceMeters: u.DistanceMeters,
		Advanced:       u.Advanced,
		Completed:      u.Completed,
	}
}
