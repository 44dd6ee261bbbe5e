package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the HTTP routes. Middleware wraps the router itself so
// that preflight requests and unmatched routes pass through it too.
func NewRouter(h *HTTPHandler, corsOrigin string, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/api-docs", h.APIDocs).Methods(http.MethodGet)

	r.HandleFunc("/api/items", h.ListItems).Methods(http.MethodGet)
	r.HandleFunc("/api/items", h.CreateItem).Methods(http.MethodPost)
	r.HandleFunc("/api/items/stats", h.Stats).Methods(http.MethodGet)
	r.HandleFunc("/api/items/categories", h.Categories).Methods(http.MethodGet)
	r.HandleFunc("/api/items/{id}", h.GetItem).Methods(http.MethodGet)
	r.HandleFunc("/api/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	r.HandleFunc("/api/items/{id}", h.DeleteItem).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.MethodNotAllowed)

	return chain(r,
		withRequestID,
		withAccessLog(logger),
		withRecover(logger),
		withSecurityHeaders,
		withCORS(corsOrigin),
	)
}

// chain applies middleware so that the first one listed runs first.
func chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
