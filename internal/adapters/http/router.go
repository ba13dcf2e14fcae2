package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/paperbox/internal/config"
	"github.com/kirillkom/paperbox/internal/core/domain"
	"github.com/kirillkom/paperbox/internal/core/ports"
	"github.com/kirillkom/paperbox/internal/observability/metrics"
)

const ownerIDHeader = "X-Owner-Id"

// Dependencies are the inbound ports the router serves. FeedEvents, Exporter
// and Metrics are optional; their routes answer 503 or are skipped without them.
type Dependencies struct {
	Sessions   ports.SessionStarter
	Ingestor   ports.DocumentIngestor
	Documents  ports.DocumentCatalog
	Deriver    ports.NotificationDeriver
	Feed       ports.NotificationFeed
	FeedEvents ports.FeedSubscriber
	Exporter   ports.FeedExporter
	Metrics    *metrics.HTTPServerMetrics
}

type Router struct {
	deps Dependencies

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
	queueWait      time.Duration
	maxBodyBytes   int64
	keepAlive      time.Duration

	now func() time.Time
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	maxBody := cfg.APIMaxBodyBytes
	if maxBody <= 0 {
		maxBody = 8 << 20
	}
	return &Router{
		deps:           deps,
		rateLimitRPS:   cfg.APIRateLimitRPS,
		rateLimitBurst: cfg.APIRateLimitBurst,
		maxInFlight:    cfg.APIMaxInFlight,
		queueWait:      cfg.APIBackpressureWait,
		maxBodyBytes:   maxBody,
		keepAlive:      15 * time.Second,
		now:            time.Now,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}

	mux.HandleFunc("POST /v1/sessions", rt.startSession)

	mux.HandleFunc("POST /v1/documents", rt.ingestDocument)
	mux.HandleFunc("GET /v1/documents", rt.listDocuments)
	mux.HandleFunc("GET /v1/documents/upcoming", rt.upcomingDates)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocument)
	mux.HandleFunc("DELETE /v1/documents/{id}", rt.deleteDocument)

	mux.HandleFunc("POST /v1/notifications/derive", rt.deriveNotifications)
	mux.HandleFunc("GET /v1/notifications", rt.listNotifications)
	mux.HandleFunc("POST /v1/notifications/read-all", rt.markAllRead)
	mux.HandleFunc("POST /v1/notifications/{id}/read", rt.markRead)
	mux.HandleFunc("DELETE /v1/notifications/{id}", rt.deleteNotification)
	mux.HandleFunc("GET /v1/notifications/stream", rt.streamFeed)
	mux.HandleFunc("GET /v1/notifications/export.xlsx", rt.exportFeed)

	var handler http.Handler = mux
	handler = rt.withBackpressure(handler)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst, rt.onRateLimited)
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

// withBackpressure gates everything except long-lived streams, which would
// otherwise hold slots for their whole lifetime.
func (rt *Router) withBackpressure(next http.Handler) http.Handler {
	gated := backpressureMiddleware(next, rt.maxInFlight, rt.queueWait)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/notifications/stream" {
			next.ServeHTTP(w, r)
			return
		}
		gated.ServeHTTP(w, r)
	})
}

func (rt *Router) onRateLimited(r *http.Request) {
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordRateLimited("api", r.URL.Path)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ownerID reads the caller identity set by the upstream auth layer.
func ownerID(r *http.Request) (string, error) {
	owner := strings.TrimSpace(r.Header.Get(ownerIDHeader))
	if owner == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, "identify caller", errors.New(ownerIDHeader+" header is required"))
	}
	return owner, nil
}

func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, rt.maxBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	requestID := requestIDFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_failed", "request_id", requestID, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     publicErrorMessage(status, err),
		RequestID: requestID,
	})
}
