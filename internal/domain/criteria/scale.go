package criteria

import (
	"strconv"
	"strings"
)

// Scale is a parsed numeric range descriptor such as "1-5" or "0/1".
// Open scales have no upper bound (or could not be parsed).
type Scale struct {
	Min  float64
	Max  float64
	Open bool
}

// ParseScale reads "a-b", "a–b", "a/b", "a-" and ">=a" descriptors.
// Anything else yields an open scale starting at zero.
func ParseScale(descriptor string) Scale {
	s := strings.TrimSpace(descriptor)
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, " ", "")

	if rest, ok := strings.CutPrefix(s, ">="); ok {
		if lo, err := strconv.ParseFloat(rest, 64); err == nil {
			return Scale{Min: lo, Open: true}
		}
		return Scale{Open: true}
	}

	sep := "-"
	if strings.Contains(s, "/") {
		sep = "/"
	}
	lo, hi, found := strings.Cut(s, sep)
	if !found {
		return Scale{Open: true}
	}
	from, err := strconv.ParseFloat(lo, 64)
	if err != nil {
		return Scale{Open: true}
	}
	if hi == "" {
		return Scale{Min: from, Open: true}
	}
	to, err := strconv.ParseFloat(hi, 64)
	if err != nil || to < from {
		return Scale{Min: from, Open: true}
	}
	return Scale{Min: from, Max: to}
}

// IsLikert reports a closed 1-5 range.
func (s Scale) IsLikert() bool { return !s.Open && s.Min == 1 && s.Max == 5 }

// IsBinary reports a closed 0-1 range.
func (s Scale) IsBinary() bool { return !s.Open && s.Min == 0 && s.Max == 1 }

// DefaultValue is the value an unscored slot starts with: Cost criteria
// start at 0, binary Benefit criteria at 0, every other Benefit at 1.
// Form initialization, submission completion and projection all use it.
func DefaultValue(c Criterion) float64 {
	return DefaultFor(c.Type, c.Scale)
}

// DefaultFor applies the default policy to a bare type and scale descriptor.
func DefaultFor(t Type, scale string) float64 {
	if t != Benefit {
		return 0
	}
	sc := ParseScale(scale)
	switch {
	case sc.IsLikert():
		return 1
	case sc.IsBinary():
		return 0
	default:
		return 1
	}
}
