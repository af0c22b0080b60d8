package autoupdate

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPattern matches an unquoted run of non-blank characters
const DefaultPattern = `[^\s"']+`

// DefaultSeparator is used when a check does not set one
const DefaultSeparator = "="

// separatorExpr returns the regex for a key/value separator. A blank
// separator matches one or more blanks; any other separator may be
// surrounded by blanks.
func separatorExpr(separator string) string {
	if strings.TrimSpace(separator) == "" {
		return `[ \t]+`
	}
	return `[ \t]*` + regexp.QuoteMeta(strings.TrimSpace(separator)) + `[ \t]*`
}

// keyExpr anchors a key at the start of a line or after a blank
func keyExpr(key string) string {
	return `(?m)(?:^|[ \t])` + regexp.QuoteMeta(key)
}

// Extract returns the value of the first line in text where key and
// separator are followed by a value matching pattern. Surrounding quotes
// are stripped. An empty pattern means DefaultPattern.
func Extract(key, pattern, separator, text string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrVariableNotSet)
	}
	if pattern == "" {
		pattern = DefaultPattern
	}

	re, err := regexp.Compile(keyExpr(key) + separatorExpr(separator) + `["']?(?P<value>` + pattern + `)["']?`)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrPatternMalformed, pattern, err)
	}

	match := re.FindStringSubmatch(text)
	if match == nil {
		return "", fmt.Errorf("%w: no value for %q", ErrExtractionFailed, key)
	}

	value := strings.Trim(match[re.SubexpIndex("value")], `"'`)
	if value == "" {
		return "", fmt.Errorf("%w: empty value for %q", ErrExtractionFailed, key)
	}
	return value, nil
}

// anchorRegexp matches the literal declaration item<separator>value,
// optionally quoted, terminated by a blank or end of line. The value is
// submatch group 1.
func anchorRegexp(item, separator, value string) *regexp.Regexp {
	return regexp.MustCompile(keyExpr(item) + separatorExpr(separator) +
		`["']?(` + regexp.QuoteMeta(value) + `)["']?(?:[ \t]|\r?$)`)
}
