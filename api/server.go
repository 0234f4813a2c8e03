// Package api provides the HTTP REST API server for finny.
//
// It exposes SEC filing lists, filing documents, filing summaries and
// Yahoo Finance market data as JSON.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/finny/internal/config"
	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/pkg/models"
)

// Version is reported by /health. It is overridden at build time.
var Version = "dev"

// Backend is the set of operations the server exposes.
// *service.Service implements it.
type Backend interface {
	GetFilings(ctx context.Context, ticker string) (models.FilingList, error)
	GetFilingDocument(ctx context.Context, url string) (string, error)
	GetFilingText(ctx context.Context, url string) (string, error)
	GetMarketData(ctx context.Context, ticker string) (*models.MarketData, error)
	GetFilingSummary(ctx context.Context, ticker string) (models.FilingSummary, error)
	Providers() []provider.ProviderInfo
	Health(ctx context.Context) []provider.Health
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	backend Backend
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, backend Backend) *Server {
	srv := &Server{
		cfg:     cfg,
		backend: backend,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-done:
	}
	log.Println("api: shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.cfg.Logging.Verbose() {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Filings
		r.Get("/filings/{ticker}", s.handleFilings)
		r.Get("/filings/{ticker}/summary", s.handleFilingSummary)
		r.Post("/filings/document", s.handleFilingDocument)

		// Market data
		r.Get("/market/{ticker}", s.handleMarketData)

		r.Get("/providers", s.handleProviders)
		r.Get("/config/status", s.handleConfigStatus)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

// DocumentRequest is the body for POST /api/v1/filings/document.
type DocumentRequest struct {
	URL    string `json:"url"`
	Format string `json:"format,omitempty"` // "raw" (default) or "text"
}

// DocumentResponse carries one filing document.
type DocumentResponse struct {
	URL     string `json:"url"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

// FilingsResponse is the data of GET /api/v1/filings/{ticker}.
type FilingsResponse struct {
	Ticker  string            `json:"ticker"`
	Count   int               `json:"count"`
	Filings models.FilingList `json:"filings"`
}

// SummaryResponse is the data of GET /api/v1/filings/{ticker}/summary.
type SummaryResponse struct {
	Ticker  string               `json:"ticker"`
	Summary models.FilingSummary `json:"summary"`
	Text    string               `json:"text"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := s.backend.Health(ctx)
	status := "ok"
	for _, c := range checks {
		if !c.OK {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    status,
			"version":   Version,
			"providers": checks,
			"time":      time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleFilings(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	filings, err := s.backend.GetFilings(r.Context(), ticker)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: FilingsResponse{
			Ticker:  strings.ToUpper(ticker),
			Count:   len(filings),
			Filings: filings,
		},
	})
}

func (s *Server) handleFilingSummary(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	sum, err := s.backend.GetFilingSummary(r.Context(), ticker)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: SummaryResponse{
			Ticker:  strings.ToUpper(ticker),
			Summary: sum,
			Text:    sum.String(),
		},
	})
}

func (s *Server) handleFilingDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	var (
		content string
		err     error
	)
	switch strings.ToLower(req.Format) {
	case "", "raw":
		req.Format = "raw"
		content, err = s.backend.GetFilingDocument(r.Context(), req.URL)
	case "text":
		req.Format = "text"
		content, err = s.backend.GetFilingText(r.Context(), req.URL)
	default:
		writeError(w, http.StatusBadRequest, "format must be raw or text")
		return
	}
	if err != nil {
		writeProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: DocumentResponse{
			URL:     req.URL,
			Format:  req.Format,
			Content: content,
		},
	})
}

func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	md, err := s.backend.GetMarketData(r.Context(), ticker)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    md,
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.backend.Providers(),
	})
}

// ============================================================
// Helpers
// ============================================================

// StatusFor maps an error to the HTTP status of its class.
func StatusFor(err error) int {
	switch provider.KindOf(err).Class() {
	case provider.ClassNotFound:
		return http.StatusNotFound
	case provider.ClassBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

// writeProviderError writes the user-facing message of err's kind. The
// underlying cause stays in the server log.
func writeProviderError(w http.ResponseWriter, err error) {
	kind := provider.KindOf(err)
	status := StatusFor(err)
	if status == http.StatusServiceUnavailable {
		log.Printf("api: %v", err)
	}
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   kind.Message(),
		Kind:    string(kind),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
