// Package projection folds flat score rows into one evaluation record per
// employee, exposing the fixed legacy fields plus an extension map.
package projection

import (
	"encoding/json"
	"maps"

	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/internal/domain/fields"
)

// Row is one persisted score joined with its employee and criterion.
type Row struct {
	ScoreID       string  `json:"score_id"`
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name"`
	CriterionID   string  `json:"criterion_id"`
	CriterionName string  `json:"criterion_name"`
	Value         float64 `json:"value"`
}

// EvaluationRecord is the employee-centric view of all scores. It is
// derived data and is never stored.
type EvaluationRecord struct {
	EmployeeID   string
	EmployeeName string
	Known        [fields.NumKnown]float64
	// Extension is keyed by raw criterion name.
	Extension map[string]float64
}

// Value returns the legacy slot f.
func (r EvaluationRecord) Value(f fields.KnownField) float64 { return r.Known[f] }

// Get looks up a value by criterion name through either lens.
func (r EvaluationRecord) Get(criterionName string) (float64, bool) {
	if v, ok := r.Extension[criterionName]; ok {
		return v, true
	}
	if f, ok := fields.Resolve(criterionName).Known(); ok {
		return r.Known[f], true
	}
	return 0, false
}

// Fields returns the known slots keyed by their legacy record field name.
func (r EvaluationRecord) Fields() map[string]float64 {
	out := make(map[string]float64, fields.NumKnown)
	for _, f := range fields.All() {
		out[f.RecordName()] = r.Known[f]
	}
	return out
}

// MarshalJSON renders the legacy record shape: every known slot under its
// record field name, extension criteria under "extension".
func (r EvaluationRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, fields.NumKnown+3)
	out["employee_id"] = r.EmployeeID
	out["employee_name"] = r.EmployeeName
	for name, v := range r.Fields() {
		out[name] = v
	}
	ext := r.Extension
	if ext == nil {
		ext = map[string]float64{}
	}
	out["extension"] = ext
	return json.Marshal(out)
}

// Projector holds the per-slot defaults derived from one criteria snapshot.
type Projector struct {
	known     [fields.NumKnown]float64
	owner     [fields.NumKnown]string
	extension map[string]float64
}

// New derives slot defaults from the active criteria. A known slot takes
// the default of the first active criterion mapped onto it, or its
// canonical default when no active criterion maps there. Active criteria
// without a legacy slot, or whose slot is already claimed by an earlier
// criterion, appear in every record's extension map at their default.
func New(active []criteria.Criterion) *Projector {
	p := &Projector{extension: make(map[string]float64)}
	for _, c := range active {
		if f, ok := fields.Resolve(c.Name).Known(); ok && p.claim(f, c.Name) {
			p.known[f] = criteria.DefaultValue(c)
			continue
		}
		p.extension[c.Name] = criteria.DefaultValue(c)
	}
	for _, f := range fields.All() {
		if p.owner[f] == "" {
			p.known[f] = f.Default()
		}
	}
	return p
}

func (p *Projector) claim(f fields.KnownField, name string) bool {
	if p.owner[f] != "" {
		return p.owner[f] == name
	}
	p.owner[f] = name
	return true
}

// slotFor reports the known slot a row's criterion lands in. A slot
// claimed by another criterion name is not shared.
func (p *Projector) slotFor(name string) (fields.KnownField, bool) {
	f, ok := fields.Resolve(name).Known()
	if !ok {
		return 0, false
	}
	if owner := p.owner[f]; owner != "" && owner != name {
		return 0, false
	}
	return f, true
}

// Blank returns a record holding only defaults.
func (p *Projector) Blank(employeeID, employeeName string) EvaluationRecord {
	ext := maps.Clone(p.extension)
	if ext == nil {
		ext = make(map[string]float64)
	}
	return EvaluationRecord{
		EmployeeID:   employeeID,
		EmployeeName: employeeName,
		Known:        p.known,
		Extension:    ext,
	}
}

// Project folds rows into one record per distinct employee, in the order
// employees are first seen.
func (p *Projector) Project(rows []Row) []EvaluationRecord {
	index := make(map[string]int)
	out := make([]EvaluationRecord, 0)
	for _, row := range rows {
		i, ok := index[row.EmployeeID]
		if !ok {
			i = len(out)
			index[row.EmployeeID] = i
			out = append(out, p.Blank(row.EmployeeID, row.EmployeeName))
		}
		rec := &out[i]
		if rec.EmployeeName == "" {
			rec.EmployeeName = row.EmployeeName
		}
		if f, known := p.slotFor(row.CriterionName); known {
			rec.Known[f] = row.Value
			continue
		}
		rec.Extension[row.CriterionName] = row.Value
	}
	return out
}
