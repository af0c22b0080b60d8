// Package vercmp orders free-form version strings by their numeric segments.
package vercmp

import (
	"strings"
	"unicode"
)

// Pre-release word priorities (lower = earlier in release cycle).
// Words not listed here compare lexically and sort after a bare release.
var suffixPriority = map[string]int{
	"dev":   -5,
	"alpha": -4,
	"a":     -4,
	"beta":  -3,
	"b":     -3,
	"pre":   -2,
	"rc":    -1,
}

// separators are trimmed from non-numeric runs before comparison
const separators = ".-_+~"

// segment is one run of a version string: either all digits or none
type segment struct {
	numeric bool
	text    string
}

// split breaks a version string into alternating digit and non-digit runs.
// Non-digit runs are lowercased and stripped of separators, so "1.2-r3" and
// "1_2_r3" produce the same segments.
func split(v string) []segment {
	var segments []segment
	var current strings.Builder
	numeric := false

	flush := func() {
		if current.Len() == 0 {
			return
		}
		text := current.String()
		if !numeric {
			text = strings.ToLower(strings.Trim(text, separators))
		}
		if numeric || text != "" {
			segments = append(segments, segment{numeric: numeric, text: text})
		}
		current.Reset()
	}

	for _, r := range v {
		isDigit := unicode.IsDigit(r)
		if current.Len() > 0 && isDigit != numeric {
			flush()
		}
		numeric = isDigit
		current.WriteRune(r)
	}
	flush()

	return segments
}

// compareNumeric compares two digit strings without converting them, so
// build numbers beyond int64 still order correctly.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// compareText compares two non-numeric segments. Known pre-release words
// order by priority and before anything else.
func compareText(a, b string) int {
	pa, aKnown := suffixPriority[a]
	pb, bKnown := suffixPriority[b]
	switch {
	case aKnown && bKnown:
		if pa < pb {
			return -1
		}
		if pa > pb {
			return 1
		}
		return 0
	case aKnown:
		return -1
	case bKnown:
		return 1
	}
	return strings.Compare(a, b)
}

// isPreRelease reports whether a segment marks a pre-release
func isPreRelease(s segment) bool {
	if s.numeric {
		return false
	}
	_, ok := suffixPriority[s.text]
	return ok
}

// Compare compares two version strings segment by segment.
// Numeric segments compare as numbers ("10" > "9"), everything else
// compares lexically. A version that extends another sorts after it,
// unless the extension starts with a pre-release word ("1.0-rc1" < "1.0").
// Returns: -1 if a < b, 0 if a == b, 1 if a > b
func Compare(a, b string) int {
	sa := split(a)
	sb := split(b)

	for i := 0; i < len(sa) || i < len(sb); i++ {
		if i >= len(sa) {
			if isPreRelease(sb[i]) {
				return 1
			}
			return -1
		}
		if i >= len(sb) {
			if isPreRelease(sa[i]) {
				return -1
			}
			return 1
		}

		x, y := sa[i], sb[i]
		var cmp int
		switch {
		case x.numeric && y.numeric:
			cmp = compareNumeric(x.text, y.text)
		case x.numeric:
			cmp = 1
		case y.numeric:
			cmp = -1
		default:
			cmp = compareText(x.text, y.text)
		}
		if cmp != 0 {
			return cmp
		}
	}

	return 0
}

// Max returns the greatest version in the list, or "" for an empty list.
// On ties the earliest candidate wins.
func Max(versions []string) string {
	best := ""
	for i, v := range versions {
		if i == 0 || Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}

// Strip returns the part of a version before its first hyphen,
// so "1.25.3-r1" becomes "1.25.3".
func Strip(v string) string {
	base, _, _ := strings.Cut(v, "-")
	return base
}
