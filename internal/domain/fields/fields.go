// Package fields maps free-form criterion names onto the fixed legacy
// evaluation fields and, for everything else, onto open extension slots.
package fields

import (
	"strings"
	"unicode"

	"github.com/okian/appraise/internal/domain/criteria"
)

// KnownField enumerates the legacy named slots of an evaluation record.
type KnownField int

// Legacy slots, in canonical order.
const (
	KualitasKerja KnownField = iota
	KuantitasKerja
	TanggungJawab
	KerjaSama
	Inisiatif
	Komunikasi
	HariAlpa
	HariIzin
	HariSakit
	Keterlambatan
	PulangCepat
	Penghargaan
	SuratPeringatan

	// NumKnown is the number of legacy slots.
	NumKnown = int(SuratPeringatan) + 1
)

type knownSpec struct {
	normalized string
	storage    string
	record     string
	typ        criteria.Type
	scale      string
}

var knownSpecs = [NumKnown]knownSpec{
	KualitasKerja:   {"kualitas_kerja", "kualitas_kerja", "kualitasKerja", criteria.Benefit, "1-5"},
	KuantitasKerja:  {"kuantitas_kerja", "kuantitas_kerja", "kuantitasKerja", criteria.Benefit, "1-5"},
	TanggungJawab:   {"tanggung_jawab", "tanggung_jawab", "tanggungJawab", criteria.Benefit, "1-5"},
	KerjaSama:       {"kerja_sama", "kerja_sama", "kerjaSama", criteria.Benefit, "1-5"},
	Inisiatif:       {"inisiatif", "inisiatif", "inisiatif", criteria.Benefit, "1-5"},
	Komunikasi:      {"komunikasi", "komunikasi", "komunikasi", criteria.Benefit, "1-5"},
	HariAlpa:        {"jumlah_hari_alpa", "hari_alpa", "hariAlpa", criteria.Cost, "0-"},
	HariIzin:        {"jumlah_hari_izin", "hari_izin", "hariIzin", criteria.Cost, "0-"},
	HariSakit:       {"jumlah_hari_sakit", "hari_sakit", "hariSakit", criteria.Cost, "0-"},
	Keterlambatan:   {"jumlah_keterlambatan", "keterlambatan", "keterlambatan", criteria.Cost, "0-"},
	PulangCepat:     {"jumlah_pulang_cepat", "pulang_cepat", "pulangCepat", criteria.Cost, "0-"},
	Penghargaan:     {"penghargaan", "penghargaan", "penghargaan", criteria.Benefit, "0-1"},
	SuratPeringatan: {"surat_peringatan", "surat_peringatan", "suratPeringatan", criteria.Cost, "0-3"},
}

// byNormalized is the lookup table from normalized criterion name to slot.
var byNormalized = func() map[string]KnownField {
	m := make(map[string]KnownField, NumKnown)
	for i, s := range knownSpecs {
		m[s.normalized] = KnownField(i)
	}
	return m
}()

// Valid reports whether f is one of the legacy slots.
func (f KnownField) Valid() bool { return f >= 0 && int(f) < NumKnown }

// StorageName is the legacy snake_case storage column of f.
func (f KnownField) StorageName() string { return knownSpecs[f].storage }

// RecordName is the legacy camelCase record field of f.
func (f KnownField) RecordName() string { return knownSpecs[f].record }

// String returns the record name.
func (f KnownField) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return f.RecordName()
}

// Default is the value f holds when its criterion is absent from the
// active criteria set and nothing was scored for it.
func (f KnownField) Default() float64 {
	s := knownSpecs[f]
	return criteria.DefaultFor(s.typ, s.scale)
}

// All returns every legacy slot in canonical order.
func All() []KnownField {
	out := make([]KnownField, NumKnown)
	for i := range out {
		out[i] = KnownField(i)
	}
	return out
}

// Normalize lower-cases name, drops everything but [a-z0-9], Unicode
// whitespace and underscores, and joins the remaining words with single underscores.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '_' || unicode.IsSpace(r):
			pendingSep = true
		}
	}
	return b.String()
}

// Lookup returns the legacy slot for name, if any.
func Lookup(name string) (KnownField, bool) {
	f, ok := byNormalized[Normalize(name)]
	return f, ok
}

// ToStorageField maps name to its legacy storage column, or to its
// normalized token when it has none.
func ToStorageField(name string) string {
	if f, ok := Lookup(name); ok {
		return f.StorageName()
	}
	return Normalize(name)
}

// ToRecordField maps name to its legacy record field, or to its
// normalized token when it has none.
func ToRecordField(name string) string {
	if f, ok := Lookup(name); ok {
		return f.RecordName()
	}
	return Normalize(name)
}
