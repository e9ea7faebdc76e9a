// Package web serves the JSON API over HTTP: system introspection for
// charting collaborators, compute, run history, and Prometheus metrics.
// Binds to localhost by default; there is no auth.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/corey/mamdani/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Engine computes against the served system. app.Evaluator implements it.
type Engine interface {
	Name() string
	System() *fuzzy.ControlSystem
	Evaluate(inputs map[string]float64) (*ports.Evaluation, error)
	Recent() ports.RecentStats
}

// Server serves the JSON API over HTTP.
type Server struct {
	engine   Engine
	runs     ports.RunStore // nil = /api/runs unavailable
	gatherer prometheus.Gatherer
	log      *zap.Logger
	listener net.Listener
	httpSrv  *http.Server
	started  time.Time
	stopOnce sync.Once
}

// NewServer creates an HTTP server for engine. runs and gatherer may be nil.
func NewServer(engine Engine, runs ports.RunStore, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{engine: engine, runs: runs, gatherer: gatherer, log: log}
}

// Start begins listening on addr ("127.0.0.1:0" picks a free port).
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.started = time.Now()
	s.httpSrv = &http.Server{Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", zap.Error(err))
		}
	}()
	s.log.Info("serving", zap.String("addr", s.Addr()), zap.String("system", s.engine.Name()))
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
	})
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the API base URL.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/system", s.handleSystem)
	mux.HandleFunc("GET /api/variables/{name}", s.handleVariable)
	mux.HandleFunc("POST /api/compute", s.handleCompute)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// HealthResult is the /api/health payload.
type HealthResult struct {
	Status string            `json:"status"`
	System string            `json:"system"`
	Uptime string            `json:"uptime"`
	Recent ports.RecentStats `json:"recent"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResult{
		Status: "ok",
		System: s.engine.Name(),
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Recent: s.engine.Recent(),
	})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ports.Describe(s.engine.Name(), s.engine.System()))
}

func (s *Server) handleVariable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	v, ok := s.engine.System().Variable(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no variable %q", name))
		return
	}
	writeJSON(w, http.StatusOK, v.Curves())
}

// ComputeRequest is the POST /api/compute body.
type ComputeRequest struct {
	Inputs map[string]float64 `json:"inputs"`
}

// ComputeFailure is returned with 422 when a compute fails. The evaluation
// still carries activations and aggregated sets for display.
type ComputeFailure struct {
	Error      string            `json:"error"`
	Evaluation *ports.Evaluation `json:"evaluation"`
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	ev, err := s.engine.Evaluate(req.Inputs)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ComputeFailure{Error: err.Error(), Evaluation: ev})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := s.runs.ListRuns(s.engine.Name(), limit)
	if err != nil {
		s.log.Warn("list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*ports.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
