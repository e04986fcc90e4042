// Package server exposes a command session over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/TFMV/dronenet/command"
	"github.com/TFMV/dronenet/graph"
	"github.com/TFMV/dronenet/physics"
	"github.com/TFMV/dronenet/render"
)

// maxCommandBytes bounds the body of POST /api/exec.
const maxCommandBytes = 4 << 10

// Configuration for the server
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns the timeouts used when none are given
func DefaultConfig(port int) *Config {
	return &Config{
		Port:         port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Server routes HTTP requests to a command session.
type Server struct {
	config  *Config
	session *command.Session
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a server for session. A nil logger discards output.
func New(session *command.Session, config *Config, logger *slog.Logger) *Server {
	if config == nil {
		config = DefaultConfig(8080)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{config: config, session: session, logger: logger, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/drones/{id}", s.handleFind)
	s.mux.HandleFunc("DELETE /api/drones/{id}", s.handleDestroy)
	s.mux.HandleFunc("POST /api/control/{id}", s.handleControl)
	s.mux.HandleFunc("POST /api/release", s.handleRelease)
	s.mux.HandleFunc("GET /api/path", s.handlePath)
	s.mux.HandleFunc("POST /api/move", s.handleMove)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/exec", s.handleExec)
	s.mux.HandleFunc("GET /visualize", s.handleVisualize)
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.mux,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.config.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		s.logger.Info("server stopped")
		return nil
	}
}

// StatusFor maps a command result to an HTTP status code
func StatusFor(res command.Result) int {
	switch res.Kind {
	case command.KindNotFound, command.KindNoPath:
		return http.StatusNotFound
	case command.KindInvalidInput:
		return http.StatusBadRequest
	case command.KindInvalidState, command.KindNoneUnderControl:
		return http.StatusConflict
	default:
		return http.StatusOK
	}
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, res command.Result) {
	status := StatusFor(res)
	s.logger.Debug("command", "method", r.Method, "path", r.URL.Path, "kind", res.Kind, "status", status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(res); err != nil {
		s.logger.Error("encoding result", "error", err)
	}
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r, s.session.Find(r.PathValue("id")))
}

func (s *Server) handleDestroy(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r, s.session.Destroy(r.PathValue("id")))
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r, s.session.Control(r.PathValue("id")))
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r, s.session.Release())
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.writeResult(w, r, s.session.FindPath(q.Get("start"), q.Get("end")))
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.writeResult(w, r, s.session.Move(q.Get("dx"), q.Get("dy")))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r, s.session.Status())
}

// handleExec runs the text command carried in the request body
func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBytes))
	if err != nil {
		http.Error(w, "Error reading command: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.writeResult(w, r, s.session.Exec(string(body)))
}

// handleVisualize renders the current flock in the requested format
func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "svg"
	}

	renderer, err := render.GetRenderer(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	options := render.NewDefaultOptions(format)
	if v, err := strconv.Atoi(q.Get("width")); err == nil && v > 0 {
		options.Width = float64(v)
	}
	if v, err := strconv.Atoi(q.Get("height")); err == nil && v > 0 {
		options.Height = float64(v)
	}
	options.ShowLabels = q.Get("labels") == "true"

	var frame *render.Frame
	s.session.View(func(flock *physics.Flock, networks []*graph.Network) {
		frame = render.Capture(flock, networks...)
	})

	output, err := renderer.Render(frame, options)
	if err != nil {
		http.Error(w, "Error generating visualization: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Write(output)
}

// handleIndex lists the available endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>dronenet</title>
  <style>
    body { font-family: 'Helvetica Neue', Arial, sans-serif; margin: 20px; background: #f5f5f5; color: #333; }
    img { background: white; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
    code { background: #eee; padding: 2px 4px; }
  </style>
</head>
<body>
  <h1>dronenet</h1>
  <img src="/visualize?format=svg" width="800" height="600">
  <ul>
    <li><code>GET /api/drones/{id}</code> find a drone</li>
    <li><code>DELETE /api/drones/{id}</code> destroy a drone</li>
    <li><code>POST /api/control/{id}</code> take control of a drone</li>
    <li><code>POST /api/release</code> release the controlled drone</li>
    <li><code>POST /api/move?dx=&amp;dy=</code> steer the controlled drone</li>
    <li><code>GET /api/path?start=&amp;end=</code> shortest path</li>
    <li><code>GET /api/status</code> simulation summary</li>
    <li><code>POST /api/exec</code> run a text command</li>
    <li><code>GET /visualize?format=svg|ascii|json</code> snapshot</li>
  </ul>
</body>
</html>`)
}
