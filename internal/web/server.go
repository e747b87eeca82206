package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/buriosa/buriosa/internal/config"
	"github.com/buriosa/buriosa/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Store   *store.Store
	Config  *config.Config
	Logger  *slog.Logger
	Version string
}

// NewHandlers builds the handlers and renderer from deps.
func NewHandlers(deps Deps) (*Handlers, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	renderer, err := NewRenderer(templateSub, deps.Version)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := deps.Config.Location()
	if err != nil {
		return nil, err
	}

	return &Handlers{
		store:    deps.Store,
		cfg:      deps.Config,
		logger:   logger,
		renderer: renderer,
		now:      func() time.Time { return time.Now().In(loc) },
	}, nil
}

// NewRouter wires every route onto a chi router.
func NewRouter(h *Handlers) http.Handler {
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.HandleState)

		r.Route("/repos", func(r chi.Router) {
			r.Get("/", h.HandleListRepos)
			r.Post("/", h.HandleAddRepo)
			r.Patch("/{id}", h.HandleUpdateRepo)
			r.Delete("/{id}", h.HandleDeleteRepo)
		})

		r.Route("/commits", func(r chi.Router) {
			r.Get("/", h.HandleFeed)
			r.Post("/", h.HandleAddCommit)
			r.Patch("/{id}", h.HandleUpdateCommit)
			r.Delete("/{id}", h.HandleDeleteCommit)
			r.Post("/{id}/highlight", h.HandleToggleHighlight)
		})

		r.Route("/releases", func(r chi.Router) {
			r.Get("/", h.HandleListReleases)
			r.Post("/", h.HandleAddRelease)
			r.Get("/{id}", h.HandleGetRelease)
			r.Patch("/{id}", h.HandleUpdateRelease)
			r.Delete("/{id}", h.HandleDeleteRelease)
			r.Post("/{id}/publish", h.HandlePublishRelease)
			r.Post("/{id}/unpublish", h.HandleUnpublishRelease)
		})

		r.Get("/heatmap", h.HandleHeatmap)
		r.Get("/period", h.HandlePeriod)

		r.Route("/ui", func(r chi.Router) {
			r.Put("/active-repo", h.HandleSetActiveRepo)
			r.Put("/heatmap-mode", h.HandleSetHeatmapMode)
			r.Post("/onboarding", h.HandleCompleteOnboarding)
		})

		r.Post("/demo", h.HandleLoadDemo)

		r.Get("/registry", h.HandleRegistrySearch)
		r.Get("/registry/{name}", h.HandleRegistryEntry)
	})

	r.Get("/r/{slug}", h.HandleSharePage)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.renderError(w, r, errNotFoundRoute(r))
	})

	return r
}

// NewServer creates the HTTP server for the Buriosa API and share pages.
func NewServer(deps Deps) (*http.Server, error) {
	h, err := NewHandlers(deps)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              deps.Config.HTTPAddr,
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https: data:; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("buriosa server listening", "addr", "http://"+srv.Addr)
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, ":") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
