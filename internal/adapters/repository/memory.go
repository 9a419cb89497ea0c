package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/internal/domain/reconcile"
)

type pairKey struct {
	employeeID  string
	criterionID string
}

// MemoryStore keeps criteria, employees and scores in process memory.
// A single mutex serialises writers, so every batch is atomic.
type MemoryStore struct {
	mu   sync.RWMutex
	opts storeOptions

	criteria      map[string]criteria.Criterion
	criteriaOrder []string

	employees     map[string]Employee
	employeeOrder []string

	scores     map[string]*Score
	scoreOrder []string
	byPair     map[pairKey]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts:      applyOptions(opts),
		criteria:  make(map[string]criteria.Criterion),
		employees: make(map[string]Employee),
		scores:    make(map[string]*Score),
		byPair:    make(map[pairKey]string),
	}
}

// Criteria returns the criteria view.
func (s *MemoryStore) Criteria() CriteriaStore { return memCriteria{s} }

// Scores returns the score view.
func (s *MemoryStore) Scores() ScoreStore { return memScores{s} }

// Employees returns the directory view.
func (s *MemoryStore) Employees() EmployeeDirectory { return memEmployees{s} }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

type memCriteria struct{ s *MemoryStore }

func (v memCriteria) FetchAll(ctx context.Context) ([]criteria.Criterion, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookup, err)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]criteria.Criterion, 0, len(v.s.criteriaOrder))
	for _, id := range v.s.criteriaOrder {
		out = append(out, v.s.criteria[id])
	}
	return out, nil
}

func (v memCriteria) PutCriterion(_ context.Context, c criteria.Criterion) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for id, other := range v.s.criteria {
		if id != c.ID && other.Name == c.Name {
			return fmt.Errorf("%w: criterion name %q already used by %s", ErrConflict, c.Name, id)
		}
	}
	if _, ok := v.s.criteria[c.ID]; !ok {
		v.s.criteriaOrder = append(v.s.criteriaOrder, c.ID)
	}
	v.s.criteria[c.ID] = c
	return nil
}

func (v memCriteria) DeleteCriterion(_ context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.criteria[id]; !ok {
		return fmt.Errorf("%w: criterion %s", ErrNotFound, id)
	}
	delete(v.s.criteria, id)
	v.s.criteriaOrder = removeString(v.s.criteriaOrder, id)
	v.s.removeScoresLocked(func(sc *Score) bool { return sc.CriterionID == id })
	return nil
}

type memScores struct{ s *MemoryStore }

func (v memScores) FetchExisting(ctx context.Context, employeeID string) ([]reconcile.Existing, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookup, err)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]reconcile.Existing, 0)
	for _, id := range v.s.scoreOrder {
		sc := v.s.scores[id]
		if sc.EmployeeID == employeeID {
			out = append(out, reconcile.Existing{ID: sc.ID, CriterionID: sc.CriterionID, Value: sc.Value})
		}
	}
	return out, nil
}

func (v memScores) FetchAllJoined(ctx context.Context) ([]JoinedScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookup, err)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	// Group by employee, in the order each employee was first scored.
	groups := make(map[string][]JoinedScore)
	order := make([]string, 0)
	for _, id := range v.s.scoreOrder {
		sc := v.s.scores[id]
		c, ok := v.s.criteria[sc.CriterionID]
		if !ok {
			continue
		}
		if _, seen := groups[sc.EmployeeID]; !seen {
			order = append(order, sc.EmployeeID)
		}
		groups[sc.EmployeeID] = append(groups[sc.EmployeeID], JoinedScore{
			ScoreID:       sc.ID,
			EmployeeID:    sc.EmployeeID,
			EmployeeName:  v.s.employees[sc.EmployeeID].Name,
			CriterionID:   sc.CriterionID,
			CriterionName: c.Name,
			Value:         sc.Value,
		})
	}
	out := make([]JoinedScore, 0, len(v.s.scoreOrder))
	for _, emp := range order {
		out = append(out, groups[emp]...)
	}
	return out, nil
}

func (v memScores) UpsertBatch(ctx context.Context, plan reconcile.Plan) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	// Validate the whole batch before touching anything.
	for _, e := range plan.Entries {
		if _, ok := v.s.employees[e.EmployeeID]; !ok {
			return fmt.Errorf("%w: unknown employee %s", ErrConflict, e.EmployeeID)
		}
		if _, ok := v.s.criteria[e.CriterionID]; !ok {
			return fmt.Errorf("%w: unknown criterion %s", ErrConflict, e.CriterionID)
		}
		if e.ID == "" {
			continue
		}
		if sc, ok := v.s.scores[e.ID]; ok && (sc.EmployeeID != e.EmployeeID || sc.CriterionID != e.CriterionID) {
			return fmt.Errorf("%w: score %s belongs to another pair", ErrConflict, e.ID)
		}
	}

	now := v.s.opts.now()
	for _, e := range plan.Entries {
		key := pairKey{employeeID: e.EmployeeID, criterionID: e.CriterionID}
		if id, ok := v.s.byPair[key]; ok {
			sc := v.s.scores[id]
			sc.Value = e.Value
			sc.UpdatedAt = now
			continue
		}
		id := v.s.opts.newID()
		sc := &Score{
			ID:          id,
			EmployeeID:  e.EmployeeID,
			CriterionID: e.CriterionID,
			Value:       e.Value,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		v.s.scores[id] = sc
		v.s.scoreOrder = append(v.s.scoreOrder, id)
		v.s.byPair[key] = id
	}
	return nil
}

func (v memScores) DeleteAllFor(_ context.Context, employeeID string) (int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.removeScoresLocked(func(sc *Score) bool { return sc.EmployeeID == employeeID }), nil
}

func (v memScores) Count(_ context.Context, employeeID string) (int, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if employeeID == "" {
		return len(v.s.scores), nil
	}
	n := 0
	for _, sc := range v.s.scores {
		if sc.EmployeeID == employeeID {
			n++
		}
	}
	return n, nil
}

type memEmployees struct{ s *MemoryStore }

func (v memEmployees) FetchAll(ctx context.Context) ([]Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookup, err)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]Employee, 0, len(v.s.employeeOrder))
	for _, id := range v.s.employeeOrder {
		out = append(out, v.s.employees[id])
	}
	return out, nil
}

func (v memEmployees) Get(ctx context.Context, id string) (Employee, error) {
	if err := ctx.Err(); err != nil {
		return Employee{}, fmt.Errorf("%w: %w", ErrLookup, err)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	e, ok := v.s.employees[id]
	if !ok {
		return Employee{}, fmt.Errorf("%w: employee %s", ErrNotFound, id)
	}
	return e, nil
}

func (v memEmployees) PutEmployee(_ context.Context, e Employee) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.employees[e.ID]; !ok {
		v.s.employeeOrder = append(v.s.employeeOrder, e.ID)
	}
	v.s.employees[e.ID] = e
	return nil
}

// removeScoresLocked drops every score matching and returns how many.
// Callers hold the write lock.
func (s *MemoryStore) removeScoresLocked(match func(*Score) bool) int {
	kept := s.scoreOrder[:0]
	removed := 0
	for _, id := range s.scoreOrder {
		sc := s.scores[id]
		if match(sc) {
			delete(s.scores, id)
			delete(s.byPair, pairKey{employeeID: sc.EmployeeID, criterionID: sc.CriterionID})
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.scoreOrder = kept
	return removed
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
