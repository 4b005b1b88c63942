package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the routes and the middleware chain.
func NewRouter(h *Handler, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.HandleFunc("/cancel", h.Cancel).Methods(http.MethodGet)
	r.HandleFunc("/generate-document", h.GenerateDocument).Methods(http.MethodPost)
	r.HandleFunc("/create-checkout-session", h.CreateCheckoutSession).Methods(http.MethodPost)
	r.HandleFunc("/download/{filename}", h.Download).Methods(http.MethodGet, http.MethodHead)

	r.Use(RequestID, RequestLogger(log), Recovery(log))

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader, "Content-Disposition"}),
	)
	return cors(r)
}
