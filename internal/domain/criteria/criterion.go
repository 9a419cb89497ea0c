// Package criteria models administrator-defined evaluation criteria and the
// canonical ordering used to sort and code them.
package criteria

import (
	"fmt"
	"strings"
)

// Type tells the ranking engine whether higher values are better.
type Type string

// Criterion types.
const (
	Benefit Type = "benefit"
	Cost    Type = "cost"
)

// ParseType accepts "benefit" or "cost" in any case.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Benefit):
		return Benefit, nil
	case string(Cost):
		return Cost, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Criterion is a snapshot of one administrator-defined criterion.
// Name is unique within the active set; Weight is a positive percentage.
type Criterion struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Category string  `json:"category" yaml:"category"`
	Type     Type    `json:"type" yaml:"type"`
	Weight   float64 `json:"weight" yaml:"weight"`
	Scale    string  `json:"scale" yaml:"scale"`
}

// Coded pairs a criterion with its display code.
type Coded struct {
	Criterion
	Code string `json:"code"`
}

// ByID indexes a criteria snapshot by identity.
func ByID(cs []Criterion) map[string]Criterion {
	out := make(map[string]Criterion, len(cs))
	for _, c := range cs {
		out[c.ID] = c
	}
	return out
}
