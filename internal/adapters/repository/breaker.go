package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/internal/domain/reconcile"
	"github.com/okian/appraise/pkg/logger"
	"github.com/okian/appraise/pkg/metrics"
)

// BreakerSettings tunes the circuit breaker placed in front of a store.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32
	Timeout     time.Duration
}

// BreakerStore guards every call to an inner Store with one circuit
// breaker. While the breaker is open calls fail fast with ErrLookup and
// nothing reaches the backend.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps inner.
func NewBreakerStore(inner Store, s BreakerSettings, log logger.Logger) *BreakerStore {
	if s.Name == "" {
		s.Name = "store"
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if log == nil {
		log = logger.Nop()
	}
	metrics.UpdateBreakerState(s.Name, int(gobreaker.StateClosed))
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// Missing rows and caller cancellations say nothing about backend health.
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn(context.Background(), "store circuit breaker changed state",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			metrics.UpdateBreakerState(name, int(to))
		},
	})
	return &BreakerStore{inner: inner, cb: cb}
}

// State reports the breaker state.
func (b *BreakerStore) State() gobreaker.State { return b.cb.State() }

// Criteria returns the guarded criteria view.
func (b *BreakerStore) Criteria() CriteriaStore { return brCriteria{b, b.inner.Criteria()} }

// Scores returns the guarded score view.
func (b *BreakerStore) Scores() ScoreStore { return brScores{b, b.inner.Scores()} }

// Employees returns the guarded directory view.
func (b *BreakerStore) Employees() EmployeeDirectory { return brEmployees{b, b.inner.Employees()} }

// Close closes the inner store.
func (b *BreakerStore) Close() error { return b.inner.Close() }

func guard[T any](b *BreakerStore, fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(func() (interface{}, error) { return fn() })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrLookup, err)
	}
	out, _ := v.(T)
	return out, err
}

func guardErr(b *BreakerStore, fn func() error) error {
	_, err := guard(b, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

type brCriteria struct {
	b     *BreakerStore
	inner CriteriaStore
}

func (v brCriteria) FetchAll(ctx context.Context) ([]criteria.Criterion, error) {
	return guard(v.b, func() ([]criteria.Criterion, error) { return v.inner.FetchAll(ctx) })
}

func (v brCriteria) PutCriterion(ctx context.Context, c criteria.Criterion) error {
	return guardErr(v.b, func() error { return v.inner.PutCriterion(ctx, c) })
}

func (v brCriteria) DeleteCriterion(ctx context.Context, id string) error {
	return guardErr(v.b, func() error { return v.inner.DeleteCriterion(ctx, id) })
}

type brScores struct {
	b     *BreakerStore
	inner ScoreStore
}

func (v brScores) FetchExisting(ctx context.Context, employeeID string) ([]reconcile.Existing, error) {
	return guard(v.b, func() ([]reconcile.Existing, error) { return v.inner.FetchExisting(ctx, employeeID) })
}

func (v brScores) FetchAllJoined(ctx context.Context) ([]JoinedScore, error) {
	return guard(v.b, func() ([]JoinedScore, error) { return v.inner.FetchAllJoined(ctx) })
}

func (v brScores) UpsertBatch(ctx context.Context, plan reconcile.Plan) error {
	return guardErr(v.b, func() error { return v.inner.UpsertBatch(ctx, plan) })
}

func (v brScores) DeleteAllFor(ctx context.Context, employeeID string) (int, error) {
	return guard(v.b, func() (int, error) { return v.inner.DeleteAllFor(ctx, employeeID) })
}

func (v brScores) Count(ctx context.Context, employeeID string) (int, error) {
	return guard(v.b, func() (int, error) { return v.inner.Count(ctx, employeeID) })
}

type brEmployees struct {
	b     *BreakerStore
	inner EmployeeDirectory
}

func (v brEmployees) FetchAll(ctx context.Context) ([]Employee, error) {
	return guard(v.b, func() ([]Employee, error) { return v.inner.FetchAll(ctx) })
}

func (v brEmployees) Get(ctx context.Context, id string) (Employee, error) {
	return guard(v.b, func() (Employee, error) { return v.inner.Get(ctx, id) })
}

func (v brEmployees) PutEmployee(ctx context.Context, e Employee) error {
	return guardErr(v.b, func() error { return v.inner.PutEmployee(ctx, e) })
}
