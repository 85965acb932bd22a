// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/battrend/internal/adapters/mq/queue"
	"github.com/okian/battrend/internal/adapters/render"
	"github.com/okian/battrend/internal/adapters/repository"
	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/report"
	"github.com/okian/battrend/pkg/logger"
)

// ErrBadRequest wraps request parsing failures.
var ErrBadRequest = errors.New("bad request")

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ReportDependencies
	DigestDependencies
	RecordDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	log            logger.Logger
	statusHandler  *StatusHandler
	reportsHandler *ReportsHandler
	digestHandler  *DigestHandler
	recordsHandler *RecordsHandler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the request logger. The default discards.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxRecordsBody caps the size of a POST /records body in bytes.
func WithMaxRecordsBody(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.recordsHandler.maxBody = n
		}
	}
}

// NewServer creates a new API server with all handlers. Text output is
// rendered without terminal colors.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	r := render.New(render.WithColor(false))
	s := &Server{
		log:            logger.Nop(),
		statusHandler:  NewStatusHandler(statsProvider),
		reportsHandler: NewReportsHandler(deps, r),
		digestHandler:  NewDigestHandler(deps, r),
		recordsHandler: NewRecordsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.instrument("healthz", s.statusHandler.HandleMetrics))
	mux.HandleFunc("/metrics", s.instrument("metrics", s.statusHandler.HandleMetrics))
	mux.HandleFunc("/stats", s.instrument("stats", s.statusHandler.HandleStats))
	mux.HandleFunc("/reports/", s.instrument("reports", s.reportsHandler.HandleGetReport))
	mux.HandleFunc("/digest", s.instrument("digest", s.digestHandler.HandleGetDigest))
	mux.HandleFunc("/records", s.instrument("records", s.recordsHandler.HandlePostRecords))
}

type ackResponse struct {
	Status    string `json:"status"`
	BatchID   string `json:"batch_id,omitempty"`
	Records   int    `json:"records"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Digest is the response body of GET /digest in structured formats.
type Digest struct {
	Generated string `json:"generated" yaml:"generated"`
	Evaluated int    `json:"evaluated" yaml:"evaluated"`
	Failures  int    `json:"failures" yaml:"failures"`

	render.DigestDocument `yaml:",inline"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeEngineError maps engine and store errors to a status.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, report.ErrNoPlayerHistory), errors.Is(err, report.ErrSeasonNotFound), errors.Is(err, repository.ErrEmpty):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, baseline.ErrInsufficientLeagueData):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_league_data", err)
	case errors.Is(err, model.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "invalid_record", err)
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, queue.ErrClosed), errors.Is(err, repository.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
