package criteria

import (
	"slices"
	"strconv"
	"strings"
)

// UnknownCode is the display code for criteria outside the canonical list.
const UnknownCode = "C?"

// defaultOrder is the reference 13-item structure: six benefit performance
// criteria, five cost discipline criteria, then the bonus and penalty pair.
var defaultOrder = []string{
	"Kualitas Kerja",
	"Kuantitas Kerja",
	"Tanggung Jawab",
	"Kerja Sama",
	"Inisiatif",
	"Komunikasi",
	"Jumlah Hari Alpa",
	"Jumlah Hari Izin",
	"Jumlah Hari Sakit",
	"Jumlah Keterlambatan",
	"Jumlah Pulang Cepat",
	"Penghargaan",
	"Surat Peringatan",
}

// DefaultOrder returns a copy of the reference criterion ordering.
func DefaultOrder() []string {
	return slices.Clone(defaultOrder)
}

// OrderIndex resolves criterion names to their canonical position. It is
// descriptive metadata for ordering and codes, not a validation rule.
type OrderIndex struct {
	names     []string
	positions map[string]int
}

// NewOrderIndex builds an index over names. Later duplicates are ignored.
func NewOrderIndex(names []string) *OrderIndex {
	idx := &OrderIndex{
		names:     make([]string, 0, len(names)),
		positions: make(map[string]int, len(names)),
	}
	for _, n := range names {
		if _, dup := idx.positions[n]; dup {
			continue
		}
		idx.positions[n] = len(idx.names)
		idx.names = append(idx.names, n)
	}
	return idx
}

// Names returns the indexed names in order.
func (x *OrderIndex) Names() []string {
	return slices.Clone(x.names)
}

// Len returns the number of indexed names.
func (x *OrderIndex) Len() int { return len(x.names) }

// PositionOf returns the zero-based position of name (exact match).
func (x *OrderIndex) PositionOf(name string) (int, bool) {
	p, ok := x.positions[name]
	return p, ok
}

// CodeOf returns "C<position+1>" for known names and "C?" otherwise.
func (x *OrderIndex) CodeOf(name string) string {
	p, ok := x.PositionOf(name)
	if !ok {
		return UnknownCode
	}
	return "C" + strconv.Itoa(p+1)
}

// Compare orders known criteria by position, puts every known criterion
// before every unknown one, and orders unknown criteria by name.
func (x *OrderIndex) Compare(a, b Criterion) int {
	pa, okA := x.PositionOf(a.Name)
	pb, okB := x.PositionOf(b.Name)
	switch {
	case okA && okB:
		return pa - pb
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(a.Name, b.Name)
	}
}

// Sort returns a stably sorted copy of cs.
func (x *OrderIndex) Sort(cs []Criterion) []Criterion {
	out := slices.Clone(cs)
	slices.SortStableFunc(out, x.Compare)
	return out
}

// Assign sorts cs and attaches each criterion's display code.
func (x *OrderIndex) Assign(cs []Criterion) []Coded {
	sorted := x.Sort(cs)
	out := make([]Coded, len(sorted))
	for i, c := range sorted {
		out[i] = Coded{Criterion: c, Code: x.CodeOf(c.Name)}
	}
	return out
}
