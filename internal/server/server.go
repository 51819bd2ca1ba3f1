// Package server is the browser surface for jsonflow. It serves a single
// page that draws frames pushed over a websocket, plus a small JSON API for
// reading and replacing the stored document.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/jsonflow/pkg/controller"
	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/pipeline"
	"github.com/matzehuels/jsonflow/pkg/store"
)

//go:embed static
var staticFS embed.FS

// DefaultMaxBody limits PUT /api/document bodies.
const DefaultMaxBody = 4 << 20

const shutdownTimeout = 10 * time.Second

// Config wires a Server to its collaborators. Controller, Hub and Store are
// required; Runner is only needed for GET /api/svg.
type Config struct {
	Addr       string
	Key        string // store key of the followed document
	Controller *controller.Controller
	Hub        *Hub
	Store      store.Store
	Runner     *pipeline.Runner
	Options    pipeline.Options // used for /api/svg
	Metrics    http.Handler     // mounted at /metrics when set
	Logger     *log.Logger
	MaxBody    int64
}

// Server serves the browser surface.
type Server struct {
	cfg      Config
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// New validates cfg and returns a server.
func New(cfg Config) (*Server, error) {
	if cfg.Controller == nil || cfg.Hub == nil || cfg.Store == nil {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "server needs a controller, hub and store")
	}
	if cfg.Key == "" {
		cfg.Key = store.DefaultKey
	}
	if err := errs.ValidateStorageKey(cfg.Key); err != nil {
		return nil, err
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOrigin,
		},
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	static, _ := fs.Sub(staticFS, "static")
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "index.html")
	})
	r.Get("/ws", s.serveWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/frame", s.getFrame)
		r.Post("/layout", s.postLayout)
		r.Get("/document", s.getDocument)
		r.Put("/document", s.putDocument)
		r.Get("/svg", s.getSVG)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Debug("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// sameOrigin accepts websocket upgrades from pages served by this host and
// from non-browser clients that send no Origin.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
