package autoupdate

import (
	"context"
	"fmt"
	"regexp"

	"github.com/obentoo/imagebump/internal/common/vercmp"
)

// Resolver returns the latest upstream value for an item given its current value.
type Resolver interface {
	Resolve(ctx context.Context, current string) (string, error)
}

// latestOf returns the version-max of candidates or ErrScrapeFailed naming source
func latestOf(source string, candidates []string) (string, error) {
	latest := vercmp.Max(candidates)
	if latest == "" {
		return "", fmt.Errorf("%w: no candidates from %s", ErrScrapeFailed, source)
	}
	return latest, nil
}

// filterCandidates keeps the values matching filter, using the first capture
// group when present. A nil filter keeps everything.
func filterCandidates(filter *regexp.Regexp, values []string) []string {
	if filter == nil {
		return values
	}
	var kept []string
	for _, v := range values {
		m := filter.FindStringSubmatch(v)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			kept = append(kept, m[1])
		} else {
			kept = append(kept, v)
		}
	}
	return kept
}
