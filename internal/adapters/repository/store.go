// Package repository defines the store collaborators of the evaluation
// service and their memory, SQL and circuit-breaker implementations.
package repository

import (
	"context"
	"time"

	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/internal/domain/projection"
	"github.com/okian/appraise/internal/domain/reconcile"
)

// Employee is a directory entry. The directory is owned elsewhere; the
// evaluation service only reads it.
type Employee struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Position   string `json:"position" yaml:"position"`
	Department string `json:"department" yaml:"department"`
}

// Score is one persisted (employee, criterion) value.
type Score struct {
	ID          string
	EmployeeID  string
	CriterionID string
	Value       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JoinedScore is a score joined with employee and criterion names.
type JoinedScore = projection.Row

// CriteriaStore provides the active criteria snapshot.
type CriteriaStore interface {
	// FetchAll returns every active criterion. Errors wrap ErrLookup.
	FetchAll(ctx context.Context) ([]criteria.Criterion, error)
	// PutCriterion inserts or replaces a criterion by ID.
	PutCriterion(ctx context.Context, c criteria.Criterion) error
	// DeleteCriterion removes a criterion and every score recorded for it.
	DeleteCriterion(ctx context.Context, id string) error
}

// ScoreStore persists scores with at most one row per (employee, criterion).
type ScoreStore interface {
	// FetchExisting returns the identities of an employee's stored scores.
	// Errors wrap ErrLookup.
	FetchExisting(ctx context.Context, employeeID string) ([]reconcile.Existing, error)
	// FetchAllJoined returns every score joined with names, grouped in
	// the order employees were first scored. Errors wrap ErrLookup.
	FetchAllJoined(ctx context.Context) ([]JoinedScore, error)
	// UpsertBatch applies a plan atomically, upserting on ConflictKey.
	// Errors wrap ErrConflict and leave the store unchanged.
	UpsertBatch(ctx context.Context, plan reconcile.Plan) error
	// DeleteAllFor removes every score of an employee and reports how many.
	DeleteAllFor(ctx context.Context, employeeID string) (int, error)
	// Count returns the number of score rows for employeeID, or all rows
	// when employeeID is empty.
	Count(ctx context.Context, employeeID string) (int, error)
}

// EmployeeDirectory is the read side of the employee directory.
type EmployeeDirectory interface {
	// FetchAll returns every employee. Errors wrap ErrLookup.
	FetchAll(ctx context.Context) ([]Employee, error)
	// Get returns one employee or ErrNotFound.
	Get(ctx context.Context, id string) (Employee, error)
	// PutEmployee inserts or replaces an employee by ID.
	PutEmployee(ctx context.Context, e Employee) error
}

// Store bundles the three collaborators; every implementation here
// provides all of them over one backend.
type Store interface {
	Criteria() CriteriaStore
	Scores() ScoreStore
	Employees() EmployeeDirectory
	Close() error
}
