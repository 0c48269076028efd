// Package server exposes the resolver over HTTP.
//
// Routes:
//
//	POST /resolve                      resolve {"dependencies": ["g:a:v", ...]}
//	GET  /search?q=...&limit=N         search the repository index
//	GET  /versions/{group}/{artifact}  published versions, newest first
//	GET  /version                      build information
//	GET  /metrics                      Prometheus metrics
//	GET  /healthz                      liveness
//
// Every response carries an X-Request-ID header.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polytunnel/polytunnel/pkg/cache"
	"github.com/polytunnel/polytunnel/pkg/maven"
	"github.com/polytunnel/polytunnel/pkg/resolver"
)

const (
	// DefaultResultTTL is how long a rendered resolution stays cached.
	DefaultResultTTL = 10 * time.Minute

	maxRequestBody  = 1 << 20
	maxRoots        = 500
	shutdownTimeout = 10 * time.Second
)

// Resolver resolves root coordinates. *resolver.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, roots []maven.Coordinate) (*resolver.ResolvedTree, error)
}

// Index answers search queries. *maven.Client implements it.
type Index interface {
	Search(ctx context.Context, query string, limit int) (*maven.SearchResult, error)
	ListVersions(ctx context.Context, groupID, artifactID string) ([]string, error)
}

// Options configures a Server.
type Options struct {
	Resolver Resolver
	Index    Index

	// Cache holds rendered resolutions keyed by Keyer.ResolveKey. Nil disables it.
	Cache     cache.Cache
	Keyer     cache.Keyer
	ResultTTL time.Duration
	// KeyOpts identifies the resolver configuration in cache keys.
	KeyOpts cache.ResolveKeyOpts

	// Gatherer backs /metrics. Nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
}

// Server is the HTTP API.
type Server struct {
	opts   Options
	router chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = DefaultResultTTL
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	s := &Server{opts: opts}
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	r.Post("/resolve", s.handleResolve)
	r.Get("/search", s.handleSearch)
	r.Get("/versions/{group}/{artifact}", s.handleVersions)

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.opts.Logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}
