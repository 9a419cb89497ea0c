// Package service provides the evaluation service that implements the
// dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/appraise/internal/adapters/repository"
	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/internal/domain/projection"
	"github.com/okian/appraise/internal/domain/reconcile"
	"github.com/okian/appraise/pkg/logger"
	"github.com/okian/appraise/pkg/metrics"
)

// Service orchestrates criteria presentation, score submission and the
// employee-centric evaluation view over the store collaborators.
type Service struct {
	mu sync.RWMutex

	criteria  repository.CriteriaStore
	scores    repository.ScoreStore
	directory repository.EmployeeDirectory
	store     repository.Store // owned; closed by Stop

	order *criteria.OrderIndex

	started bool
	logger  logger.Logger
}

// New constructs a Service. Collaborators not supplied through options are
// served by one in-memory store.
func New(opts ...Option) *Service {
	s := &Service{
		order:  criteria.NewOrderIndex(criteria.DefaultOrder()),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.criteria == nil || s.scores == nil || s.directory == nil {
		mem := repository.NewMemoryStore()
		if s.store == nil {
			s.store = mem
		}
		if s.criteria == nil {
			s.criteria = mem.Criteria()
		}
		if s.scores == nil {
			s.scores = mem.Scores()
		}
		if s.directory == nil {
			s.directory = mem.Employees()
		}
	}
	return s
}

// Start checks the criteria source is reachable and marks the service
// started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting evaluation service...")
	active, err := s.criteria.FetchAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "criteria store unreachable", logger.Error(err))
		return classify(err, ErrLookup)
	}
	metrics.UpdateActiveCriteria(len(active))

	s.started = true
	s.logger.Info(ctx, "evaluation service started",
		logger.Int("criteria", len(active)),
		logger.Int("canonicalOrder", s.order.Len()),
	)
	return nil
}

// Stop marks the service stopped and closes the store it owns.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping evaluation service...")
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "evaluation service stopped")
}

// Order returns the canonical order index in use.
func (s *Service) Order() *criteria.OrderIndex { return s.order }

// Criteria returns the active criteria in canonical order with codes.
func (s *Service) Criteria(ctx context.Context) ([]criteria.Coded, error) {
	active, err := s.criteria.FetchAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "fetching criteria failed", logger.Error(err))
		return nil, classify(err, ErrLookup)
	}
	metrics.UpdateActiveCriteria(len(active))
	return s.order.Assign(active), nil
}

// FormField is one input of an evaluation form.
type FormField struct {
	criteria.Coded
	Value    float64 `json:"value"`
	Existing bool    `json:"existing"`
}

// Form is the pre-filled input set for one employee.
type Form struct {
	EmployeeID   string      `json:"employee_id"`
	EmployeeName string      `json:"employee_name"`
	Fields       []FormField `json:"fields"`
}

// Form returns one field per active criterion in canonical order, holding
// the stored value when there is one and the criterion default otherwise.
func (s *Service) Form(ctx context.Context, employeeID string) (Form, error) {
	active, err := s.criteria.FetchAll(ctx)
	if err != nil {
		return Form{}, classify(err, ErrLookup)
	}
	emp, err := s.directory.Get(ctx, employeeID)
	if err != nil {
		return Form{}, classify(err, ErrLookup)
	}
	existing, err := s.scores.FetchExisting(ctx, employeeID)
	if err != nil {
		return Form{}, classify(err, ErrLookup)
	}

	stored := make(map[string]float64, len(existing))
	for _, ex := range existing {
		if _, seen := stored[ex.CriterionID]; !seen {
			stored[ex.CriterionID] = ex.Value
		}
	}

	coded := s.order.Assign(active)
	form := Form{EmployeeID: emp.ID, EmployeeName: emp.Name, Fields: make([]FormField, 0, len(coded))}
	for _, c := range coded {
		f := FormField{Coded: c, Value: criteria.DefaultValue(c.Criterion)}
		if v, ok := stored[c.ID]; ok {
			f.Value, f.Existing = v, true
		}
		form.Fields = append(form.Fields, f)
	}
	return form, nil
}

// Submit records one evaluation. The steps run strictly in order: active
// criteria, employee, completion with defaults, existing scores,
// reconciliation, batch upsert. A failure at any step stops the flow before
// anything is written; there are no retries.
func (s *Service) Submit(ctx context.Context, employeeID string, submitted map[string]float64) (reconcile.Plan, error) {
	plan, err := s.submit(ctx, employeeID, submitted)
	if err != nil {
		metrics.RecordSubmissionFailure(Kind(err))
		s.logger.Error(ctx, "evaluation submission failed",
			logger.String("employeeID", employeeID),
			logger.String("kind", Kind(err)),
			logger.Error(err),
		)
		return reconcile.Plan{}, err
	}
	metrics.RecordSubmission()
	metrics.RecordPlan(plan.Creates(), plan.Updates())
	s.logger.Info(ctx, "evaluation saved",
		logger.String("employeeID", employeeID),
		logger.Int("creates", plan.Creates()),
		logger.Int("updates", plan.Updates()),
	)
	return plan, nil
}

func (s *Service) submit(ctx context.Context, employeeID string, submitted map[string]float64) (reconcile.Plan, error) {
	if employeeID == "" {
		return reconcile.Plan{}, fmt.Errorf("%w: employee id is required", ErrInvalidSubmission)
	}
	for id, v := range submitted {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return reconcile.Plan{}, fmt.Errorf("%w: value for %s is not a finite number", ErrInvalidSubmission, id)
		}
	}

	active, err := s.criteria.FetchAll(ctx)
	if err != nil {
		return reconcile.Plan{}, classify(err, ErrLookup)
	}
	if _, err := s.directory.Get(ctx, employeeID); err != nil {
		return reconcile.Plan{}, classify(err, ErrLookup)
	}
	complete, err := reconcile.Complete(active, submitted)
	if err != nil {
		return reconcile.Plan{}, classify(err, ErrInvalidSubmission)
	}
	existing, err := s.scores.FetchExisting(ctx, employeeID)
	if err != nil {
		return reconcile.Plan{}, classify(err, ErrLookup)
	}
	plan := reconcile.Reconcile(employeeID, complete, existing)
	if err := s.scores.UpsertBatch(ctx, plan); err != nil {
		return reconcile.Plan{}, classify(err, ErrConflict)
	}
	return plan, nil
}

// snapshot fetches active criteria and joined scores concurrently.
func (s *Service) snapshot(ctx context.Context) ([]criteria.Criterion, []repository.JoinedScore, error) {
	var (
		active []criteria.Criterion
		rows   []repository.JoinedScore
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.criteria.FetchAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.scores.FetchAllJoined(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, classify(err, ErrLookup)
	}
	return active, rows, nil
}

// Evaluations projects every stored score into one record per employee,
// in the order employees were first evaluated.
func (s *Service) Evaluations(ctx context.Context) ([]projection.EvaluationRecord, error) {
	active, rows, err := s.snapshot(ctx)
	if err != nil {
		s.logger.Error(ctx, "loading evaluations failed", logger.Error(err))
		return nil, err
	}
	records := projection.New(active).Project(rows)
	metrics.UpdateEvaluatedEmployees(len(records))
	return records, nil
}

// Evaluation returns the record of one employee.
func (s *Service) Evaluation(ctx context.Context, employeeID string) (projection.EvaluationRecord, error) {
	records, err := s.Evaluations(ctx)
	if err != nil {
		return projection.EvaluationRecord{}, err
	}
	for _, r := range records {
		if r.EmployeeID == employeeID {
			return r, nil
		}
	}
	return projection.EvaluationRecord{}, fmt.Errorf("%w: no evaluation for employee %s", ErrNotFound, employeeID)
}

// Delete removes every score of employeeID, which returns the employee to
// the unevaluated pool.
func (s *Service) Delete(ctx context.Context, employeeID string) (int, error) {
	n, err := s.scores.DeleteAllFor(ctx, employeeID)
	if err != nil {
		s.logger.Error(ctx, "deleting evaluation failed",
			logger.String("employeeID", employeeID),
			logger.Error(err),
		)
		return 0, classify(err, ErrConflict)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no evaluation for employee %s", ErrNotFound, employeeID)
	}
	s.logger.Info(ctx, "evaluation deleted",
		logger.String("employeeID", employeeID),
		logger.Int("scores", n),
	)
	return n, nil
}

// Unevaluated returns the directory entries that have no stored score.
func (s *Service) Unevaluated(ctx context.Context) ([]repository.Employee, error) {
	var (
		all  []repository.Employee
		rows []repository.JoinedScore
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = s.directory.FetchAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.scores.FetchAllJoined(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, classify(err, ErrLookup)
	}

	evaluated := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		evaluated[r.EmployeeID] = struct{}{}
	}
	out := make([]repository.Employee, 0, len(all))
	for _, e := range all {
		if _, ok := evaluated[e.ID]; !ok {
			out = append(out, e)
		}
	}
	metrics.UpdateEvaluatedEmployees(len(evaluated))
	metrics.UpdateUnevaluatedEmployees(len(out))
	return out, nil
}

// MatrixRow holds one employee's values aligned with Matrix.Criteria.
type MatrixRow struct {
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Values       []float64 `json:"values"`
}

// Matrix is the decision matrix handed to a ranking engine: criteria in
// canonical order (with type and weight) against every evaluated employee.
type Matrix struct {
	Criteria []criteria.Coded `json:"criteria"`
	Rows     []MatrixRow      `json:"rows"`
}

// Matrix builds the decision matrix. Cells without a stored score hold the
// criterion default.
func (s *Service) Matrix(ctx context.Context) (Matrix, error) {
	active, rows, err := s.snapshot(ctx)
	if err != nil {
		return Matrix{}, err
	}
	coded := s.order.Assign(active)
	col := make(map[string]int, len(coded))
	defaults := make([]float64, len(coded))
	for i, c := range coded {
		col[c.ID] = i
		defaults[i] = criteria.DefaultValue(c.Criterion)
	}

	m := Matrix{Criteria: coded, Rows: make([]MatrixRow, 0)}
	at := make(map[string]int)
	for _, r := range rows {
		i, ok := at[r.EmployeeID]
		if !ok {
			i = len(m.Rows)
			at[r.EmployeeID] = i
			m.Rows = append(m.Rows, MatrixRow{
				EmployeeID:   r.EmployeeID,
				EmployeeName: r.EmployeeName,
				Values:       append([]float64(nil), defaults...),
			})
		}
		if j, ok := col[r.CriterionID]; ok {
			m.Rows[i].Values[j] = r.Value
		}
	}
	return m, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        started,
		"canonicalOrder": s.order.Len(),
	}
	if !started {
		return stats
	}

	if active, err := s.criteria.FetchAll(ctx); err == nil {
		stats["activeCriteria"] = len(active)
		metrics.UpdateActiveCriteria(len(active))
	}
	if emps, err := s.directory.FetchAll(ctx); err == nil {
		stats["employees"] = len(emps)
	}
	if n, err := s.scores.Count(ctx, ""); err == nil {
		stats["scores"] = n
	}
	if rows, err := s.scores.FetchAllJoined(ctx); err == nil {
		seen := make(map[string]struct{})
		for _, r := range rows {
			seen[r.EmployeeID] = struct{}{}
		}
		stats["evaluatedEmployees"] = len(seen)
		metrics.UpdateEvaluatedEmployees(len(seen))
	}
	return stats
}
