package autoupdate

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Error variables for parser errors
var (
	// ErrJSONPathNotFound is returned when the JSON path does not exist in the document
	ErrJSONPathNotFound = errors.New("JSON path not found in response")
	// ErrInvalidJSONPath is returned when the JSON path syntax is invalid
	ErrInvalidJSONPath = errors.New("invalid JSON path syntax")
)

// JSONPath addresses a scalar in a JSON document using dot notation and
// array indexes, e.g. "info.version" or "releases[0].tag".
type JSONPath string

// Lookup decodes content and returns the scalar at the path as a string.
func (p JSONPath) Lookup(content []byte) (string, error) {
	segments, err := p.segments()
	if err != nil {
		return "", err
	}

	var current interface{}
	if err := json.Unmarshal(content, &current); err != nil {
		return "", fmt.Errorf("failed to parse JSON: %w", err)
	}

	for _, seg := range segments {
		if seg.field != "" {
			obj, ok := current.(map[string]interface{})
			if !ok {
				return "", fmt.Errorf("%w: expected object at %q", ErrJSONPathNotFound, seg.field)
			}
			if current, ok = obj[seg.field]; !ok {
				return "", fmt.Errorf("%w: field %q not found", ErrJSONPathNotFound, seg.field)
			}
			continue
		}

		arr, ok := current.([]interface{})
		if !ok {
			return "", fmt.Errorf("%w: expected array at index %d", ErrJSONPathNotFound, seg.index)
		}
		if seg.index >= len(arr) {
			return "", fmt.Errorf("%w: index %d out of bounds (length %d)", ErrJSONPathNotFound, seg.index, len(arr))
		}
		current = arr[seg.index]
	}

	value, ok := scalarString(current)
	if !ok {
		return "", fmt.Errorf("%w: value at %s is not a scalar", ErrJSONPathNotFound, string(p))
	}
	return value, nil
}

// pathSegment is either a field name or an array index
type pathSegment struct {
	field string
	index int
}

func (p JSONPath) segments() ([]pathSegment, error) {
	if p == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidJSONPath)
	}

	var segments []pathSegment
	for _, part := range strings.Split(string(p), ".") {
		name, rest, _ := strings.Cut(part, "[")
		if name == "" {
			return nil, fmt.Errorf("%w: empty field name in %q", ErrInvalidJSONPath, string(p))
		}
		segments = append(segments, pathSegment{field: name})

		for rest != "" {
			indexStr, after, ok := strings.Cut(rest, "]")
			if !ok {
				return nil, fmt.Errorf("%w: unclosed bracket in %q", ErrInvalidJSONPath, string(p))
			}
			index, err := strconv.Atoi(indexStr)
			if err != nil || index < 0 {
				return nil, fmt.Errorf("%w: invalid array index %q", ErrInvalidJSONPath, indexStr)
			}
			segments = append(segments, pathSegment{index: index})

			if after != "" && !strings.HasPrefix(after, "[") {
				return nil, fmt.Errorf("%w: unexpected %q after index", ErrInvalidJSONPath, after)
			}
			rest = strings.TrimPrefix(after, "[")
		}
	}
	return segments, nil
}

// scalarString formats JSON scalars; numbers are printed without exponent
func scalarString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// Candidates returns every match of filter in text. When filter has a
// capture group the first group is the candidate, otherwise the whole
// match. With dirOnly set, only matches immediately followed by "/" count.
func Candidates(filter *regexp.Regexp, text string, dirOnly bool) []string {
	var candidates []string
	for _, m := range filter.FindAllStringSubmatchIndex(text, -1) {
		if dirOnly && (m[1] >= len(text) || text[m[1]] != '/') {
			continue
		}
		start, end := m[0], m[1]
		if filter.NumSubexp() > 0 && m[2] >= 0 {
			start, end = m[2], m[3]
		}
		if end > start {
			candidates = append(candidates, text[start:end])
		}
	}
	return candidates
}

// optionalFilter compiles a check's filter; an empty filter is nil
func optionalFilter(filter string) (*regexp.Regexp, error) {
	if filter == "" {
		return nil, nil
	}
	re, err := regexp.Compile(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrPatternMalformed, filter, err)
	}
	return re, nil
}
