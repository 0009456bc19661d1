package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/dshills/cadetprep/internal/assistant"
	"github.com/dshills/cadetprep/internal/cache"
	"github.com/dshills/cadetprep/internal/config"
	"github.com/dshills/cadetprep/internal/metrics"
	"github.com/dshills/cadetprep/internal/providers"
	"github.com/dshills/cadetprep/internal/refdata"
	"github.com/dshills/cadetprep/internal/topics"
)

const defaultShutdownTimeout = 10 * time.Second

// Page describes one dashboard page.
type Page struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Dataset   string `json:"dataset,omitempty"`
	Topic     string `json:"topic,omitempty"`
	AIEnabled bool   `json:"ai_enabled"`
}

var pages = []Page{
	{Name: "home", Title: "THY Cadet Pilot Prep"},
	{Name: "fleet", Title: "THY Fleet", Dataset: "fleet", Topic: topics.Fleet},
	{Name: "destinations", Title: "Destinations", Dataset: "destinations", Topic: topics.Destinations},
	{Name: "c172", Title: "Cessna 172", Dataset: "aircraft", Topic: topics.TrainingAircraft},
	{Name: "da40", Title: "Diamond DA40", Dataset: "aircraft", Topic: topics.TrainingAircraft},
	{Name: "da42", Title: "Diamond DA42", Dataset: "aircraft", Topic: topics.TrainingAircraft},
	{Name: "news", Title: "Aviation News", Dataset: "news", Topic: topics.News},
	{Name: "history", Title: "Aviation History", Dataset: "history", Topic: topics.History},
	{Name: "future", Title: "Future of Aviation", Dataset: "future", Topic: topics.Future},
	{Name: "dictionary", Title: "Aviation Dictionary", Dataset: "dictionary", Topic: topics.Dictionary},
}

// Server serves the reference data and AI content over HTTP.
type Server struct {
	assistant *assistant.Assistant
	metrics   *metrics.Metrics
	log       zerolog.Logger
	router    *mux.Router

	shutdownTimeout time.Duration
}

// New builds the router. m may be nil, in which case /metrics is not served.
func New(a *assistant.Assistant, m *metrics.Metrics, log zerolog.Logger) *Server {
	s := &Server{
		assistant:       a,
		metrics:         m,
		log:             log,
		router:          mux.NewRouter(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware, s.accessLogMiddleware, s.recoveryMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pages", s.handlePages).Methods(http.MethodGet)
	api.HandleFunc("/reference/{dataset}", s.handleReference).Methods(http.MethodGet)
	api.HandleFunc("/aircraft/{id}", s.handleAircraft).Methods(http.MethodGet)
	api.HandleFunc("/ai/{topic}", s.handleGenerate).Methods(http.MethodPost)
	api.HandleFunc("/ai/{topic}/history", s.handleHistory).Methods(http.MethodGet)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("server is ready and accepting connections")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info().Msg("server shutdown complete")
	return nil
}

// WatchConfig reloads the configuration at path on change and swaps the
// assistant's settings and generator. It blocks until ctx is done.
func (s *Server) WatchConfig(ctx context.Context, path string, overrides map[string]string) error {
	return config.Watch(ctx, path, overrides, func(cfg config.Config, err error) {
		if err != nil {
			s.log.Warn().Err(err).Msg("config reload failed, keeping current config")
			return
		}
		s.assistant.Reconfigure(cfg, NewGenerator(cfg, s.log))
		s.log.Info().Str("provider", cfg.Provider).Str("model", cfg.Model()).Msg("config reloaded")
	})
}

// NewGenerator builds the configured provider, or returns nil when AI is
// switched off or the provider cannot be built.
func NewGenerator(cfg config.Config, log zerolog.Logger) providers.Generator {
	if !cfg.GeminiEnabled() {
		return nil
	}
	gen, err := providers.New(cfg)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.Provider).Msg("AI generator unavailable")
		return nil
	}
	return gen
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pagesResponse struct {
	AIAvailable bool                 `json:"ai_available"`
	Provider    string               `json:"provider"`
	Model       string               `json:"model"`
	Display     config.DisplayConfig `json:"display"`
	Pages       []Page               `json:"pages"`
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	cfg := s.assistant.Config()
	out := make([]Page, len(pages))
	for i, p := range pages {
		if p.Topic != "" {
			p.AIEnabled = cfg.AIEnabledFor(p.Topic)
		}
		out[i] = p
	}
	writeJSON(w, http.StatusOK, pagesResponse{
		AIAvailable: cfg.GeminiEnabled(),
		Provider:    cfg.Provider,
		Model:       cfg.Model(),
		Display:     cfg.AIDisplay,
		Pages:       out,
	})
}

func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	data, err := refdata.Dataset(mux.Vars(r)["dataset"])
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleAircraft(w http.ResponseWriter, r *http.Request) {
	a, err := refdata.Aircraft(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fresh := false
	if v := q.Get("fresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid fresh value %q", v))
			return
		}
		fresh = b
	}

	res, err := s.assistant.Generate(r.Context(), assistant.Request{
		Topic:    mux.Vars(r)["topic"],
		Aircraft: q.Get("aircraft"),
		Fresh:    fresh,
	})
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type historyResponse struct {
	Topic   string                   `json:"topic"`
	Entries []assistant.HistoryEntry `json:"entries"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	entries, err := s.assistant.History(topic)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Topic: topic, Entries: entries})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, topics.ErrUnknownTopic), errors.Is(err, cache.ErrInvalidTopic):
		return http.StatusNotFound
	case errors.Is(err, refdata.ErrUnknownAircraft):
		return http.StatusBadRequest
	case errors.Is(err, assistant.ErrDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
