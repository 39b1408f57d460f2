package handlers

import (
	"net/http"
	"trip-route-service/internal/api/dto"
	"trip-route-service/internal/services"
)

type BookmarkHandler struct {
	Bookmarks *services.Bookmarks
	Sessions  *SessionHandler
}

func (h *BookmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Bookmarks.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list bookmarks", err)
		return
	}

	res := dto.ListBookmarksResponse{Bookmarks: make([]dto.BookmarkResponse, 0, len(list))}
	for _, b := range list {
		res.Bookmarks = append(res.Bookmarks, dto.FromBookmark(b))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Save stores the pending stops of a session under a name.
func (h *BookmarkHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveBookmarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.Sessions.Sessions.Get(req.SessionID)
	if err != nil {
		writeServiceError(w, r, "save bookmark", err)
		return
	}

	b, err := h.Bookmarks.Save(r.Context(), req.Name, sess.State.View().PendingStops)
	if err != nil {
		writeServiceError(w, r, "save bookmark", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.FromBookmark(b))
}

func (h *BookmarkHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bookmarks.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, r, "get bookmark", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromBookmark(b))
}

func (h *BookmarkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Bookmarks.Delete(r.Context(), r.PathValue("name")); err != nil {
		writeServiceError(w, r, "delete bookmark", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Use loads a bookmark into a session as its pending stops.
func (h *BookmarkHandler) Use(w http.ResponseWriter, r *http.Request) {
	sess, r, ok := h.Sessions.session(w, r)
	if !ok {
		return
	}

	if _, err := h.Bookmarks.Use(r.Context(), r.PathValue("name"), sess.State); err != nil {
		writeServiceError(w, r, "use bookmark", err)
		return
	}
	writeJSON(w, r, http.StatusOK, routeResponse(sess.ID, sess.State.View()))
}
