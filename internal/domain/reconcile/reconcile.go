// Package reconcile turns a submitted evaluation into an upsert plan that
// reuses existing score identities, so resubmitting never duplicates rows.
package reconcile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/appraise/internal/domain/criteria"
)

// ConflictKey names the uniqueness constraint the store must upsert on.
var ConflictKey = [2]string{"employee_id", "criterion_id"}

// Existing is a persisted score as seen by the reconciler.
type Existing struct {
	ID          string
	CriterionID string
	Value       float64
}

// Entry is one row of a plan. An empty ID means the row is new.
type Entry struct {
	ID          string  `json:"id,omitempty"`
	EmployeeID  string  `json:"employee_id"`
	CriterionID string  `json:"criterion_id"`
	Value       float64 `json:"value"`
}

// IsNew reports whether the entry creates a row.
func (e Entry) IsNew() bool { return e.ID == "" }

// Plan is the unit of persistence for one submission. It must be applied
// atomically.
type Plan struct {
	EmployeeID string  `json:"employee_id"`
	Entries    []Entry `json:"entries"`
}

// Creates counts entries without prior identity.
func (p Plan) Creates() int {
	n := 0
	for _, e := range p.Entries {
		if e.IsNew() {
			n++
		}
	}
	return n
}

// Updates counts entries that update an existing row.
func (p Plan) Updates() int { return len(p.Entries) - p.Creates() }

// Reconcile builds the plan for employeeID. Submitted criteria that already
// have a row carry that row's ID; the rest carry none. Entries are ordered
// by criterion ID. When existing holds several rows for one criterion the
// first one wins.
func Reconcile(employeeID string, submitted map[string]float64, existing []Existing) Plan {
	ids := make(map[string]string, len(existing))
	for _, ex := range existing {
		if _, seen := ids[ex.CriterionID]; seen || ex.ID == "" {
			continue
		}
		ids[ex.CriterionID] = ex.ID
	}

	entries := make([]Entry, 0, len(submitted))
	for criterionID, value := range submitted {
		entries = append(entries, Entry{
			ID:          ids[criterionID],
			EmployeeID:  employeeID,
			CriterionID: criterionID,
			Value:       value,
		})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.CriterionID, b.CriterionID)
	})
	return Plan{EmployeeID: employeeID, Entries: entries}
}

// Complete checks submitted against the active criteria and fills every
// active criterion that was left out with its default value. It returns a
// new map and never modifies submitted.
func Complete(active []criteria.Criterion, submitted map[string]float64) (map[string]float64, error) {
	byID := criteria.ByID(active)
	for id := range submitted {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCriterion, id)
		}
	}
	out := make(map[string]float64, len(active))
	for _, c := range active {
		if v, ok := submitted[c.ID]; ok {
			out[c.ID] = v
			continue
		}
		out[c.ID] = criteria.DefaultValue(c)
	}
	return out, nil
}
