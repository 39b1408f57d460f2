package handlers

import (
	"net/http"
	"trip-route-service/internal/api/dto"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/services"
)

// SessionHandler manages trip sessions and the route each one holds.
type SessionHandler struct {
	Sessions *services.Sessions
}

// session resolves the {id} path value and tags the request context with it.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*services.Session, *http.Request, bool) {
	sess, err := h.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "get session", err)
		return nil, r, false
	}
	return sess, r.WithContext(obs.WithSessionID(r.Context(), sess.ID)), true
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Create()
	writeJSON(w, r, http.StatusCreated, dto.CreateSessionResponse{SessionID: sess.ID, CreatedAt: sess.CreatedAt})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, routeResponse(sess.ID, sess.State.View()))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Delete(r.PathValue("id")); err != nil {
		writeServiceError(w, r, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
