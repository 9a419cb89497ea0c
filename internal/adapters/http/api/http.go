// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/appraise/internal/adapters/repository"
	service "github.com/okian/appraise/internal/app"
	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/internal/domain/projection"
	"github.com/okian/appraise/internal/domain/reconcile"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	CriteriaDependencies
	EvaluationDependencies
	EmployeeDependencies
	MatrixDependencies
}

// CriteriaDependencies serves the criteria listing.
type CriteriaDependencies interface {
	Criteria(ctx context.Context) ([]criteria.Coded, error)
}

// EvaluationDependencies serves evaluation reads and writes.
type EvaluationDependencies interface {
	Evaluations(ctx context.Context) ([]projection.EvaluationRecord, error)
	Evaluation(ctx context.Context, employeeID string) (projection.EvaluationRecord, error)
	Form(ctx context.Context, employeeID string) (service.Form, error)
	Submit(ctx context.Context, employeeID string, submitted map[string]float64) (reconcile.Plan, error)
	Delete(ctx context.Context, employeeID string) (int, error)
}

// EmployeeDependencies serves the unevaluated employee pool.
type EmployeeDependencies interface {
	Unevaluated(ctx context.Context) ([]repository.Employee, error)
}

// MatrixDependencies serves the decision matrix.
type MatrixDependencies interface {
	Matrix(ctx context.Context) (service.Matrix, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	criteriaHandler    *CriteriaHandler
	evaluationsHandler *EvaluationsHandler
	employeesHandler   *EmployeesHandler
	matrixHandler      *MatrixHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		criteriaHandler:    NewCriteriaHandler(deps),
		evaluationsHandler: NewEvaluationsHandler(deps),
		employeesHandler:   NewEmployeesHandler(deps),
		matrixHandler:      NewMatrixHandler(deps),
	}
}

// Register attaches all business routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/criteria", MetricsMiddleware(s.criteriaHandler.HandleList, "criteria"))
	r.Get("/matrix", MetricsMiddleware(s.matrixHandler.HandleGet, "matrix"))
	r.Get("/employees/unevaluated", MetricsMiddleware(s.employeesHandler.HandleUnevaluated, "employees_unevaluated"))

	r.Route("/evaluations", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.evaluationsHandler.HandleList, "evaluations"))
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", MetricsMiddleware(s.evaluationsHandler.HandleGet, "evaluation"))
			r.Put("/", MetricsMiddleware(s.evaluationsHandler.HandlePut, "evaluation"))
			r.Delete("/", MetricsMiddleware(s.evaluationsHandler.HandleDelete, "evaluation"))
			r.Get("/form", MetricsMiddleware(s.evaluationsHandler.HandleForm, "evaluation_form"))
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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

// writeServiceError translates a service error kind into its HTTP status.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrLookup):
		writeError(w, http.StatusServiceUnavailable, "lookup_failed", err)
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, service.ErrInvalidSubmission), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
