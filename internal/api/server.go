package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"

	"github.com/mtlprog/plotina/internal/dashboard"
	"github.com/mtlprog/plotina/internal/events"
)

// Options configures the HTTP surface.
type Options struct {
	AdminAPIKey string
	CORSOrigins []string
	Demo        bool
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, dash *dashboard.Service, bus *events.Bus, opts Options) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(dash, bus, opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter builds the route table wrapped in CORS handling for the browser renderer.
func NewRouter(dash *dashboard.Service, bus *events.Bus, opts Options) http.Handler {
	h := NewHandler(dash, bus, opts.Demo)
	ind := NewIndicatorHandler(dash)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /api/v1/meta", h.GetMeta)

	mux.HandleFunc("GET /api/v1/indicators", ind.ListIndicators)
	mux.HandleFunc("GET /api/v1/indicators/core", ind.ListCore)
	mux.HandleFunc("GET /api/v1/indicators/specific", ind.ListSpecific)
	mux.HandleFunc("GET /api/v1/indicators/{code}", ind.GetIndicator)
	mux.HandleFunc("PUT /api/v1/indicators/{code}/weight", ind.SetWeight)
	mux.HandleFunc("PUT /api/v1/indicators/{code}/threshold", ind.SetThreshold)
	mux.HandleFunc("PUT /api/v1/weights", ind.SetWeights)

	mux.HandleFunc("GET /api/v1/composite", h.GetComposite)
	mux.HandleFunc("GET /api/v1/impacts", h.GetImpacts)
	mux.HandleFunc("GET /api/v1/state", h.GetState)
	mux.HandleFunc("POST /api/v1/recalculate", h.Recalculate)
	mux.HandleFunc("PUT /api/v1/selection", h.SetSelection)
	mux.HandleFunc("GET /api/v1/settings", h.DownloadSettings)
	mux.HandleFunc("GET /api/v1/events", h.Events)

	mux.Handle("POST /api/v1/reload", guard(opts.AdminAPIKey, http.HandlerFunc(h.Reload)))
	mux.Handle("GET /api/v1/export.xlsx", guard(opts.AdminAPIKey, http.HandlerFunc(h.ExportXLSX)))

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	})(mux)
}

// guard applies requireAuth when an admin key is configured.
func guard(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	return requireAuth(apiKey, next)
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
