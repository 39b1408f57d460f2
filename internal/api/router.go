package api

import (
	"net/http"
	"strings"
	"trip-route-service/internal/api/handlers"
	"trip-route-service/internal/services"
)

type Deps struct {
	Sessions    *services.Sessions
	Bookmarks   *services.Bookmarks
	History     *services.RouteHistory
	CORSOrigins []string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	sessionHandler := &handlers.SessionHandler{Sessions: d.Sessions}
	healthHandler := &handlers.HealthHandler{Sessions: d.Sessions}
	bookmarkHandler := &handlers.BookmarkHandler{Bookmarks: d.Bookmarks, Sessions: sessionHandler}
	historyHandler := &handlers.HistoryHandler{History: d.History, Sessions: sessionHandler}
	eventsHandler := &handlers.EventsHandler{Sessions: sessionHandler, OriginPatterns: originPatterns(d.CORSOrigins)}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.HandleFunc("POST /sessions", sessionHandler.Create)
	mux.HandleFunc("GET /sessions/{id}", sessionHandler.Get)
	mux.HandleFunc("DELETE /sessions/{id}", sessionHandler.Delete)
	mux.HandleFunc("POST /sessions/{id}/stops", sessionHandler.AddStop)
	mux.HandleFunc("GET /sessions/{id}/stops", sessionHandler.FindStops)
	mux.HandleFunc("DELETE /sessions/{id}/stops/{stop}", sessionHandler.RemoveStop)
	mux.HandleFunc("PUT /sessions/{id}/preferences", sessionHandler.SetPreferences)
	mux.HandleFunc("POST /sessions/{id}/optimize", sessionHandler.Optimize)
	mux.HandleFunc("POST /sessions/{id}/start", sessionHandler.Start)
	mux.HandleFunc("POST /sessions/{id}/position", sessionHandler.Position)
	mux.HandleFunc("POST /sessions/{id}/clear", sessionHandler.Clear)
	mux.HandleFunc("GET /sessions/{id}/snapshot", sessionHandler.GetSnapshot)
	mux.HandleFunc("PUT /sessions/{id}/snapshot", sessionHandler.PutSnapshot)
	mux.HandleFunc("POST /sessions/{id}/bookmarks/{name}", bookmarkHandler.Use)
	mux.HandleFunc("POST /sessions/{id}/history/{entry}", historyHandler.Replay)

	mux.HandleFunc("GET /bookmarks", bookmarkHandler.List)
	mux.HandleFunc("POST /bookmarks", bookmarkHandler.Save)
	mux.HandleFunc("GET /bookmarks/{name}", bookmarkHandler.Get)
	mux.HandleFunc("DELETE /bookmarks/{name}", bookmarkHandler.Delete)

	mux.HandleFunc("GET /history", historyHandler.List)
	mux.HandleFunc("GET /history/{entry}", historyHandler.Get)
	mux.HandleFunc("GET /stats", historyHandler.AllStats)
	mux.HandleFunc("GET /stats/today", historyHandler.Today)
	mux.HandleFunc("GET /stats/{date}", historyHandler.Stats)

	// The websocket stays outside the gzip wrapper, which cannot hijack.
	root := http.NewServeMux()
	root.HandleFunc("GET /sessions/{id}/events", eventsHandler.ServeWS)
	root.Handle("/", gzipMiddleware(mux))

	return requestIDMiddleware(loggingMiddleware(corsMiddleware(d.CORSOrigins)(root)))
}

// originPatterns turns CORS origins into the host patterns the websocket
// handshake matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		out = append(out, strings.TrimSuffix(o, "/"))
	}
	return out
}
