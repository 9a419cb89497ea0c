package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/internal/domain/reconcile"
	"github.com/okian/appraise/pkg/metrics"
)

// SQLStore implements Store over database/sql. Placeholders use the $n
// form, which both sqlite and postgres accept.
type SQLStore struct {
	db   *sql.DB
	opts storeOptions
}

// NewSQLStore wraps an open database whose schema exists (see OpenDB).
func NewSQLStore(db *sql.DB, opts ...Option) *SQLStore {
	return &SQLStore{db: db, opts: applyOptions(opts)}
}

// Criteria returns the criteria view.
func (s *SQLStore) Criteria() CriteriaStore { return sqlCriteria{s} }

// Scores returns the score view.
func (s *SQLStore) Scores() ScoreStore { return sqlScores{s} }

// Employees returns the directory view.
func (s *SQLStore) Employees() EmployeeDirectory { return sqlEmployees{s} }

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.db.Close() }

// observe records latency and failures for one store operation.
func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordStoreError(op)
	}
}

type sqlCriteria struct{ s *SQLStore }

func (v sqlCriteria) FetchAll(ctx context.Context) (out []criteria.Criterion, err error) {
	defer func(start time.Time) { observe("fetch_criteria", start, err) }(time.Now())

	rows, err := v.s.db.QueryContext(ctx, `SELECT id,name,category,type,weight,scale FROM criteria ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: criteria: %w", ErrLookup, err)
	}
	defer rows.Close()
	out = make([]criteria.Criterion, 0)
	for rows.Next() {
		var c criteria.Criterion
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &typ, &c.Weight, &c.Scale); err != nil {
			return nil, fmt.Errorf("%w: criteria: %w", ErrLookup, err)
		}
		c.Type = criteria.Type(typ)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: criteria: %w", ErrLookup, err)
	}
	return out, nil
}

func (v sqlCriteria) PutCriterion(ctx context.Context, c criteria.Criterion) (err error) {
	defer func(start time.Time) { observe("put_criterion", start, err) }(time.Now())

	_, err = v.s.db.ExecContext(ctx, `INSERT INTO criteria (id,name,category,type,weight,scale)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, category=EXCLUDED.category,
			type=EXCLUDED.type, weight=EXCLUDED.weight, scale=EXCLUDED.scale`,
		c.ID, c.Name, c.Category, string(c.Type), c.Weight, c.Scale)
	if err != nil {
		return fmt.Errorf("%w: criterion %s: %w", ErrConflict, c.ID, err)
	}
	return nil
}

func (v sqlCriteria) DeleteCriterion(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("delete_criterion", start, err) }(time.Now())

	res, err := v.s.db.ExecContext(ctx, `DELETE FROM criteria WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%w: criterion %s: %w", ErrConflict, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: criterion %s", ErrNotFound, id)
	}
	return nil
}

type sqlScores struct{ s *SQLStore }

func (v sqlScores) FetchExisting(ctx context.Context, employeeID string) (out []reconcile.Existing, err error) {
	defer func(start time.Time) { observe("fetch_existing", start, err) }(time.Now())

	rows, err := v.s.db.QueryContext(ctx,
		`SELECT id,criterion_id,value FROM scores WHERE employee_id=$1 ORDER BY created_at, id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("%w: scores of %s: %w", ErrLookup, employeeID, err)
	}
	defer rows.Close()
	out = make([]reconcile.Existing, 0)
	for rows.Next() {
		var ex reconcile.Existing
		if err := rows.Scan(&ex.ID, &ex.CriterionID, &ex.Value); err != nil {
			return nil, fmt.Errorf("%w: scores of %s: %w", ErrLookup, employeeID, err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scores of %s: %w", ErrLookup, employeeID, err)
	}
	return out, nil
}

func (v sqlScores) FetchAllJoined(ctx context.Context) (out []JoinedScore, err error) {
	defer func(start time.Time) { observe("fetch_all_joined", start, err) }(time.Now())

	rows, err := v.s.db.QueryContext(ctx, `
		SELECT s.id, s.employee_id, e.name, s.criterion_id, c.name, s.value
		FROM scores s
		JOIN employees e ON e.id = s.employee_id
		JOIN criteria c ON c.id = s.criterion_id
		ORDER BY (SELECT MIN(f.created_at) FROM scores f WHERE f.employee_id = s.employee_id),
			s.employee_id, s.created_at, s.id`)
	if err != nil {
		return nil, fmt.Errorf("%w: joined scores: %w", ErrLookup, err)
	}
	defer rows.Close()
	out = make([]JoinedScore, 0)
	for rows.Next() {
		var j JoinedScore
		if err := rows.Scan(&j.ScoreID, &j.EmployeeID, &j.EmployeeName, &j.CriterionID, &j.CriterionName, &j.Value); err != nil {
			return nil, fmt.Errorf("%w: joined scores: %w", ErrLookup, err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: joined scores: %w", ErrLookup, err)
	}
	return out, nil
}

// UpsertBatch applies plan in one transaction. Entries carrying an ID
// update that row in place; if the row vanished since the lookup, or the
// entry has no ID, the row is inserted with the (employee_id,
// criterion_id) pair as conflict target, so concurrent submissions for the
// same pair converge on a single row.
func (v sqlScores) UpsertBatch(ctx context.Context, plan reconcile.Plan) (err error) {
	defer func(start time.Time) { observe("upsert_batch", start, err) }(time.Now())

	tx, err := v.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrConflict, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := v.s.opts.now().UnixNano()
	for _, e := range plan.Entries {
		if e.ID != "" {
			res, err := tx.ExecContext(ctx,
				`UPDATE scores SET value=$1, updated_at=$2 WHERE id=$3 AND employee_id=$4 AND criterion_id=$5`,
				e.Value, now, e.ID, e.EmployeeID, e.CriterionID)
			if err != nil {
				return fmt.Errorf("%w: update %s: %w", ErrConflict, e.ID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				continue
			}
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO scores (id,employee_id,criterion_id,value,created_at,updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (employee_id, criterion_id) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
			v.s.opts.newID(), e.EmployeeID, e.CriterionID, e.Value, now, now)
		if err != nil {
			return fmt.Errorf("%w: upsert %s/%s: %w", ErrConflict, e.EmployeeID, e.CriterionID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrConflict, err)
	}
	return nil
}

func (v sqlScores) DeleteAllFor(ctx context.Context, employeeID string) (n int, err error) {
	defer func(start time.Time) { observe("delete_all_for", start, err) }(time.Now())

	res, err := v.s.db.ExecContext(ctx, `DELETE FROM scores WHERE employee_id=$1`, employeeID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete scores of %s: %w", ErrConflict, employeeID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: delete scores of %s: %w", ErrConflict, employeeID, err)
	}
	return int(affected), nil
}

func (v sqlScores) Count(ctx context.Context, employeeID string) (n int, err error) {
	defer func(start time.Time) { observe("count_scores", start, err) }(time.Now())

	var row *sql.Row
	if employeeID == "" {
		row = v.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores`)
	} else {
		row = v.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores WHERE employee_id=$1`, employeeID)
	}
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count scores: %w", ErrLookup, err)
	}
	return n, nil
}

type sqlEmployees struct{ s *SQLStore }

func (v sqlEmployees) FetchAll(ctx context.Context) (out []Employee, err error) {
	defer func(start time.Time) { observe("fetch_employees", start, err) }(time.Now())

	rows, err := v.s.db.QueryContext(ctx, `SELECT id,name,position,department FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: employees: %w", ErrLookup, err)
	}
	defer rows.Close()
	out = make([]Employee, 0)
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Position, &e.Department); err != nil {
			return nil, fmt.Errorf("%w: employees: %w", ErrLookup, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: employees: %w", ErrLookup, err)
	}
	return out, nil
}

func (v sqlEmployees) Get(ctx context.Context, id string) (e Employee, err error) {
	defer func(start time.Time) { observe("get_employee", start, err) }(time.Now())

	row := v.s.db.QueryRowContext(ctx, `SELECT id,name,position,department FROM employees WHERE id=$1`, id)
	if err := row.Scan(&e.ID, &e.Name, &e.Position, &e.Department); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Employee{}, fmt.Errorf("%w: employee %s", ErrNotFound, id)
		}
		return Employee{}, fmt.Errorf("%w: employee %s: %w", ErrLookup, id, err)
	}
	return e, nil
}

func (v sqlEmployees) PutEmployee(ctx context.Context, e Employee) (err error) {
	defer func(start time.Time) { observe("put_employee", start, err) }(time.Now())

	_, err = v.s.db.ExecContext(ctx, `INSERT INTO employees (id,name,position,department)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, position=EXCLUDED.position, department=EXCLUDED.department`,
		e.ID, e.Name, e.Position, e.Department)
	if err != nil {
		return fmt.Errorf("%w: employee %s: %w", ErrConflict, e.ID, err)
	}
	return nil
}
