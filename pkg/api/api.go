// Package api serves pattern detection over HTTP.
//
// # Routes
//
//	GET  /healthz          liveness probe
//	POST /v1/detect        run detection and return the rendered report
//	POST /v1/runs          run detection and store the report
//	GET  /v1/runs          list stored reports, newest first
//	GET  /v1/runs/{runID}  fetch one stored report
//
// Detection requests carry the input bundle and run options:
//
//	{"input": {"units": {...}}, "options": {"enable_task": true, "format": "json"}}
//
// /v1/detect goes through the runner's report cache and sets X-Cache to
// HIT or MISS. Errors are returned as {"error": ..., "code": ...} with
// the status chosen from the innermost error code.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pardetect/pkg/buildinfo"
	perrors "github.com/matzehuels/pardetect/pkg/errors"
	"github.com/matzehuels/pardetect/pkg/pet"
	"github.com/matzehuels/pardetect/pkg/pipeline"
	"github.com/matzehuels/pardetect/pkg/store"
)

// MaxRequestBytes bounds the size of a detection request body.
const MaxRequestBytes = 32 << 20

// DetectRequest is the body of POST /v1/detect and POST /v1/runs.
type DetectRequest struct {
	Input   *pet.Input       `json:"input"`
	Options pipeline.Options `json:"options"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string       `json:"error"`
	Code  perrors.Code `json:"code,omitempty"`
	Stage string       `json:"stage,omitempty"`
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	now    func() time.Time
}

// NewServer creates a server. A nil store disables the /v1/runs routes.
func NewServer(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: st, logger: logger, now: time.Now}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/detect", s.detect)
		if s.store != nil {
			r.Post("/runs", s.createRun)
			r.Get("/runs", s.listRuns)
			r.Get("/runs/{runID}", s.getRun)
		}
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Short()})
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*DetectRequest, bool) {
	var req DetectRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode request"))
		return nil, false
	}
	if req.Input == nil {
		s.writeError(w, perrors.New(perrors.ErrCodeInvalidInput, "missing input"))
		return nil, false
	}
	req.Options.Logger = s.logger
	return &req, true
}

func (s *Server) detect(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	if f := r.URL.Query().Get("format"); f != "" {
		req.Options.Format = f
	}

	data, hit, err := s.runner.ReportWithCacheInfo(r.Context(), req.Input, req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	if req.Options.Format == pipeline.FormatJSON {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	result, err := s.runner.Detect(r.Context(), req.Input, req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := store.NewDocument(result.Report(), s.now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), doc); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/runs/"+doc.RunID)
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, perrors.New(perrors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	docs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if docs == nil {
		docs = []*store.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc.Report))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: perrors.RootCode(err)}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		resp.Stage = se.Stage
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, resp)
}

// statusFor maps an error to an HTTP status by its innermost code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch perrors.RootCode(err) {
	case perrors.ErrCodeInvalidInput, perrors.ErrCodeInvalidID, perrors.ErrCodeInvalidUnit,
		perrors.ErrCodeInvalidFormat, perrors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case perrors.ErrCodeNodeNotFound, perrors.ErrCodeEdgeNotFound, perrors.ErrCodeDetectionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
