package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/estatedocs/internal/artifact"
	"github.com/punchamoorthee/estatedocs/internal/catalog"
	"github.com/punchamoorthee/estatedocs/internal/domain"
	"github.com/punchamoorthee/estatedocs/internal/logger"
	"github.com/punchamoorthee/estatedocs/internal/request"
)

// Metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estatedocs_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "estatedocs_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.05, 0.25, 1, 5, 15, 30, 60, 120},
	}, []string{"method", "endpoint"})
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Documents generates and serves artifacts.
type Documents interface {
	Generate(ctx context.Context, req domain.DocumentRequest) (domain.GenerationResult, error)
	Open(ctx context.Context, name string) (*artifact.Object, error)
}

// Checkout opens payment sessions for final artifacts.
type Checkout interface {
	CreateSession(ctx context.Context, filename string) (domain.CheckoutSession, error)
}

type Handler struct {
	docs           Documents
	checkout       Checkout
	catalog        *catalog.Catalog
	publishableKey string
	log            *slog.Logger
}

// Options holds the handler's presentation settings.
type Options struct {
	Catalog              *catalog.Catalog
	StripePublishableKey string
	Logger               *slog.Logger
}

func NewHandler(docs Documents, checkout Checkout, opts Options) *Handler {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		docs:           docs,
		checkout:       checkout,
		catalog:        opts.Catalog,
		publishableKey: opts.StripePublishableKey,
		log:            opts.Logger,
	}
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "index.html", "/", map[string]any{
		"DocumentTypes": h.catalog.Types(),
		"StripeKey":     h.publishableKey,
	})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "cancel.html", "/cancel", nil)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, r.Method, "/health")
}

func (h *Handler) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/generate-document"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(r.Method, endpoint))
	defer timer.ObserveDuration()

	src, err := request.FromHTTP(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), r.Method, endpoint)
		return
	}
	req := request.Normalize(src)

	res, err := h.docs.Generate(r.Context(), req)
	if err != nil {
		logger.FromContext(r.Context(), h.log).Error("document generation failed",
			"document_type", req.DocumentType, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to generate document: "+err.Error(), r.Method, endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, res, r.Method, endpoint)
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/create-checkout-session"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(r.Method, endpoint))
	defer timer.ObserveDuration()

	src, err := request.FromHTTP(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), r.Method, endpoint)
		return
	}
	filename := request.Text(src, "final_filename", "")

	sess, err := h.checkout.CreateSession(r.Context(), filename)
	switch {
	case err == nil:
		h.respondJSON(w, http.StatusOK, sess, r.Method, endpoint)
	case errors.Is(err, domain.ErrMissingArtifactReference):
		h.respondError(w, http.StatusBadRequest, "Missing document filename", r.Method, endpoint)
	default:
		logger.FromContext(r.Context(), h.log).Error("checkout session failed", "filename", filename, "error", err)
		h.respondError(w, http.StatusInternalServerError, err.Error(), r.Method, endpoint)
	}
}

// Download streams an artifact as an attachment. Payment is not verified.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/download/{filename}"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(r.Method, endpoint))
	defer timer.ObserveDuration()

	name := mux.Vars(r)["filename"]
	obj, err := h.docs.Open(r.Context(), name)
	if err != nil {
		code := http.StatusNotFound
		if !errors.Is(err, domain.ErrArtifactNotFound) && !errors.Is(err, domain.ErrInvalidArtifactName) {
			code = http.StatusInternalServerError
			logger.FromContext(r.Context(), h.log).Error("artifact open failed", "name", name, "error", err)
		}
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(code)).Inc()
		http.Error(w, http.StatusText(code), code)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", contentDisposition(name))
	httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(http.StatusOK)).Inc()
	http.ServeContent(w, r, name, obj.Info.ModTime, obj)
}

func contentDisposition(name string) string {
	return `attachment; filename="` + name + `"; filename*=UTF-8''` + url.PathEscape(name)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, page, endpoint string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, page, data); err != nil {
		h.log.Error("render page", "page", page, "error", err)
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, "500").Inc()
		return
	}
	httpRequestsTotal.WithLabelValues(r.Method, endpoint, "200").Inc()
}

// Helpers
func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Warn("encode response", "endpoint", endpoint, "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}
