// Package api exposes the simulator over HTTP so that downstream
// analysis harnesses can fetch freshly generated test spectra on demand.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sosl/pycyc/internal/auth"
	"github.com/sosl/pycyc/internal/axes"
	"github.com/sosl/pycyc/internal/container"
	"github.com/sosl/pycyc/internal/health"
	"github.com/sosl/pycyc/internal/metrics"
	"github.com/sosl/pycyc/internal/sim"
)

// Config holds the server's simulation defaults and limits.
type Config struct {
	Archive                 container.Archive // default geometry for requests
	DefaultNTime            int
	DefaultSamplingInterval float64 // seconds
	MaxCells                int     // request budget for nchan*ntime
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, cfg Config) *Server {
	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/simulate", simulateHandler(logger, cfg))

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// simulateRequest carries the parsed configuration surface of one
// simulate call.
type simulateRequest struct {
	geom   axes.Geometry
	params sim.Params
	seed   int64
}

// parseSimulateRequest reads query parameters, falling back to the
// configured archive geometry and server defaults.
func parseSimulateRequest(r *http.Request, cfg Config) (simulateRequest, error) {
	req := simulateRequest{
		geom: cfg.Archive.Geometry(cfg.DefaultNTime, cfg.DefaultSamplingInterval),
	}

	q := r.URL.Query()

	intParams := []struct {
		name string
		dst  *int
	}{
		{"nchan", &req.geom.NChan},
		{"ntime", &req.geom.NTime},
	}
	for _, p := range intParams {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return req, fmt.Errorf("parameter %s must be a positive integer", p.name)
			}
			*p.dst = n
		}
	}

	floatParams := []struct {
		name string
		dst  *float64
	}{
		{"bw", &req.geom.Bandwidth},
		{"cfreq", &req.geom.CentreFrequency},
		{"tsamp", &req.geom.SamplingInterval},
		{"curvature", &req.params.Curvature},
		{"decay", &req.params.Decay},
	}
	for _, p := range floatParams {
		if v := q.Get(p.name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return req, fmt.Errorf("parameter %s must be a number", p.name)
			}
			*p.dst = f
		}
	}

	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, fmt.Errorf("parameter seed must be an integer")
		}
		req.seed = n
	}

	if cells := req.geom.NChan * req.geom.NTime; cells > cfg.MaxCells {
		return req, fmt.Errorf("grid of %d cells exceeds the budget of %d", cells, cfg.MaxCells)
	}

	return req, nil
}

// simulateHandler runs one simulation per request and streams the
// resulting container back in its binary format.
func simulateHandler(logger *slog.Logger, cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseSimulateRequest(r, cfg)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		res, err := sim.New(logger).Run(req.geom, req.params, req.seed)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		resp, err := container.NewDynamicResponse(req.geom, res.Grid.Data())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := resp.WriteTo(w); err != nil {
			logger.Warn("streaming response failed", "error", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
