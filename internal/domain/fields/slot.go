package fields

// Slot is where a criterion's value lives in an evaluation record: either
// a legacy KnownField or an extension entry keyed by normalized name.
// The zero value is not a valid slot; use Resolve.
type Slot struct {
	known     KnownField
	extension string
	isKnown   bool
}

// Resolve classifies name into a known or extension slot.
func Resolve(name string) Slot {
	if f, ok := Lookup(name); ok {
		return Slot{known: f, isKnown: true}
	}
	return Slot{extension: Normalize(name)}
}

// IsKnown reports whether s is a legacy slot.
func (s Slot) IsKnown() bool { return s.isKnown }

// Known returns the legacy slot.
func (s Slot) Known() (KnownField, bool) { return s.known, s.isKnown }

// Extension returns the normalized extension key; empty for known slots.
func (s Slot) Extension() string { return s.extension }

// Key is the record-level field name of s.
func (s Slot) Key() string {
	if s.isKnown {
		return s.known.RecordName()
	}
	return s.extension
}
