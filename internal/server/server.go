// Package server hosts the GoTales web app: the go-app PWA, its static assets and the JSON API
// that talks to the generative service on the browser's behalf.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/janpfeifer/GoTales/internal/config"
	"github.com/janpfeifer/GoTales/internal/frontend"
	"github.com/janpfeifer/GoTales/internal/game"
	"github.com/janpfeifer/GoTales/internal/genai"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Server holds the state of a running GoTales server.
type Server struct {
	// Address the server is listening to, set once it started.
	Address string

	cfg    *config.Config
	gemini *genai.Client
	router chi.Router
}

// WebDir is the directory of the static assets served under /web/.
var WebDir = "web"

// New creates the server and its routes, without listening.
func New(cfg *config.Config, gemini *genai.Client) (*Server, error) {
	clientEnv, err := cfg.Client.Encode()
	if err != nil {
		return nil, err
	}

	// Register go-app routes so the server knows how to prerender them.
	frontend.InitState()
	frontend.RegisterRoutes()

	// The web assets and the compiled webassembly
	// are served natively by the go-app framework
	h := &app.Handler{
		Name:        "GoTales",
		ShortName:   "GoTales",
		Title:       "GoTales - Bilge Baykuş",
		Description: "Masallar, hafıza oyunu ve boyama sayfaları",
		Lang:        "tr",
		Version:     game.Version,
		Styles: []string{
			"/web/css/main.css",
		},
		Env: map[string]string{
			config.ClientEnvKey: clientEnv,
		},
	}

	s := &Server{cfg: cfg, gemini: gemini}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: klogPrinter{}, NoColor: true}))
	r.Use(middleware.Recoverer)

	s.mountAPI(r)

	// We want to serve /web for static files
	r.Handle("/web/*", http.StripPrefix("/web/", http.FileServer(http.Dir(WebDir))))
	r.Handle("/*", h)
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// klogPrinter routes chi's request logs to klog at verbosity 1.
type klogPrinter struct{}

func (klogPrinter) Print(v ...any) {
	klog.V(1).Info(v...)
}

// Run starts the server and blocks until the context is canceled.
// If started is not nil, the server is sent to it once it is listening.
func Run(ctx context.Context, cfg *config.Config, started chan<- *Server) error {
	s, err := New(cfg, genai.New(cfg.Gemini))
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %q: %w", cfg.Addr, err)
	}
	s.Address = listener.Addr().String()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		klog.Infof("Server started on http://%s", s.Address)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Errorf("Server error: %v", err)
		}
	}()
	if started != nil {
		started <- s
	}

	<-ctx.Done()

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	klog.Infof("Shutting down server...")
	return srv.Shutdown(shutdownCtx)
}
