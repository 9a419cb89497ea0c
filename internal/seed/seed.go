// Package seed loads YAML fixtures of criteria and employees into a store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/okian/appraise/internal/adapters/repository"
	"github.com/okian/appraise/internal/domain/criteria"
)

//go:embed default.yaml
var defaultFixture []byte

type criterionDoc struct {
	ID       string  `yaml:"id" validate:"required"`
	Name     string  `yaml:"name" validate:"required"`
	Category string  `yaml:"category"`
	Type     string  `yaml:"type" validate:"required"`
	Weight   float64 `yaml:"weight" validate:"gt=0"`
	Scale    string  `yaml:"scale"`
}

type employeeDoc struct {
	ID         string `yaml:"id" validate:"required"`
	Name       string `yaml:"name" validate:"required"`
	Position   string `yaml:"position"`
	Department string `yaml:"department"`
}

type document struct {
	Criteria  []criterionDoc `yaml:"criteria" validate:"dive"`
	Employees []employeeDoc  `yaml:"employees" validate:"dive"`
}

// Fixture is a validated set of criteria and employees.
type Fixture struct {
	Criteria  []criteria.Criterion
	Employees []repository.Employee
}

// Default returns the built-in fixture: the thirteen reference criteria
// and a handful of employees.
func Default() (Fixture, error) {
	return Parse(defaultFixture)
}

// LoadFile reads and parses the fixture at path.
func LoadFile(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML fixture. Criterion names and ids must
// be unique; types must be benefit or cost.
func Parse(data []byte) (Fixture, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Fixture{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return Fixture{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	fx := Fixture{
		Criteria:  make([]criteria.Criterion, 0, len(doc.Criteria)),
		Employees: make([]repository.Employee, 0, len(doc.Employees)),
	}
	ids := make(map[string]struct{}, len(doc.Criteria))
	names := make(map[string]struct{}, len(doc.Criteria))
	for _, d := range doc.Criteria {
		t, err := criteria.ParseType(d.Type)
		if err != nil {
			return Fixture{}, fmt.Errorf("%w: criterion %s: %w", ErrInvalid, d.ID, err)
		}
		if _, dup := ids[d.ID]; dup {
			return Fixture{}, fmt.Errorf("%w: duplicate criterion id %s", ErrInvalid, d.ID)
		}
		name := strings.TrimSpace(d.Name)
		if _, dup := names[name]; dup {
			return Fixture{}, fmt.Errorf("%w: duplicate criterion name %q", ErrInvalid, name)
		}
		ids[d.ID], names[name] = struct{}{}, struct{}{}
		fx.Criteria = append(fx.Criteria, criteria.Criterion{
			ID:       d.ID,
			Name:     name,
			Category: d.Category,
			Type:     t,
			Weight:   d.Weight,
			Scale:    d.Scale,
		})
	}
	for _, d := range doc.Employees {
		fx.Employees = append(fx.Employees, repository.Employee(d))
	}
	return fx, nil
}

// Result counts what Apply wrote.
type Result struct {
	Criteria  int
	Employees int
}

// Apply writes fx into st, replacing entries with the same ids.
func Apply(ctx context.Context, st repository.Store, fx Fixture) (Result, error) {
	var res Result
	for _, c := range fx.Criteria {
		if err := st.Criteria().PutCriterion(ctx, c); err != nil {
			return res, fmt.Errorf("%w: criterion %s: %w", ErrApply, c.ID, err)
		}
		res.Criteria++
	}
	for _, e := range fx.Employees {
		if err := st.Employees().PutEmployee(ctx, e); err != nil {
			return res, fmt.Errorf("%w: employee %s: %w", ErrApply, e.ID, err)
		}
		res.Employees++
	}
	return res, nil
}
