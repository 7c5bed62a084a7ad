package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/hamed0406/livestatus/internal/config"
	"github.com/hamed0406/livestatus/internal/content"
	"github.com/hamed0406/livestatus/internal/health"
	apimw "github.com/hamed0406/livestatus/internal/httpapi/middleware"
	"github.com/hamed0406/livestatus/internal/livesystem"
	"github.com/hamed0406/livestatus/internal/metrics"
	"github.com/hamed0406/livestatus/internal/transport"
)

type Server struct {
	Logger  *zap.Logger
	Config  config.Config
	API     *transport.Client
	Root    *transport.Client
	Content *content.Service
	Metrics *metrics.Recorder
	// Redis, when set, backs the rate limiter so all instances share one budget.
	Redis *redis.Client
}

func NewServer(l *zap.Logger, cfg config.Config, api, root *transport.Client, rec *metrics.Recorder) *Server {
	return &Server{
		Logger:  l,
		Config:  cfg,
		API:     api,
		Root:    root,
		Content: content.New(api),
		Metrics: rec,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.corsHandler())
	r.Use(s.rateLimit())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/system", s.handleSystemPage)
	r.Get("/api/system", s.handleSystemJSON)

	r.Get("/api/projects", s.handleProjects)
	r.Get("/api/experience", s.handleExperience)
	r.Get("/api/version", s.handleVersion)

	r.With(apimw.RequireKey(s.Config.MetricsAPIKeys)).Handle("/metrics", s.Metrics.Handler())

	return r
}

func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.Redis != nil {
		return apimw.NewSharedLimiter(s.Redis, s.Config.PublicRPM, s.Logger).Middleware()
	}
	return apimw.RateLimit(s.Config.PublicRPM, s.Config.PublicBurst)
}

func (s *Server) corsHandler() func(http.Handler) http.Handler {
	if len(s.Config.AllowedOrigins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: s.Config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "X-API-Key"},
		MaxAge:         300,
	})
}

// mountPanel is one mount of the live-system view: both probes start, the request
// waits up to RenderWait, then the panel is torn down and whatever settled is shown.
func (s *Server) mountPanel(r *http.Request) livesystem.Cards {
	panel := livesystem.NewPanel(s.API, s.Root, s.Logger, s.Metrics)
	// the probes outlive a cancelled request; only their results are dropped
	panel.Mount(context.WithoutCancel(r.Context()))

	ctx, cancel := context.WithTimeout(r.Context(), s.Config.RenderWait)
	defer cancel()
	if err := panel.Wait(ctx); err != nil {
		s.Logger.Warn("panel_render_partial", zap.Error(err))
	}
	cards := panel.Cards()
	panel.Unmount()
	return cards
}

func (s *Server) handleSystemPage(w http.ResponseWriter, r *http.Request) {
	cards := s.mountPanel(r)

	var buf bytes.Buffer
	if err := livesystem.Render(&buf, cards); err != nil {
		s.Logger.Error("render_system_page", zap.Error(err))
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleSystemJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, s.mountPanel(r))
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := s.Content.Projects(r.Context())
	if err != nil {
		s.upstreamError(w, "projects", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) handleExperience(w http.ResponseWriter, r *http.Request) {
	xs, err := s.Content.Experience(r.Context())
	if err != nil {
		s.upstreamError(w, "experience", err)
		return
	}
	writeJSON(w, http.StatusOK, xs)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.Content.Version(r.Context())
	if err != nil {
		s.upstreamError(w, "version", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) upstreamError(w http.ResponseWriter, what string, err error) {
	url := ""
	var he *transport.HTTPError
	if errors.As(err, &he) {
		url = he.URL
	}
	s.Logger.Warn("content_fetch_failed",
		zap.String("content", what),
		zap.String("url", url),
		zap.Error(err),
	)
	writeJSON(w, http.StatusBadGateway, map[string]string{
		"error": health.FormatError(err),
		"url":   url,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
