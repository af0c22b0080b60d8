package autoupdate

import (
	"context"
	"fmt"
	"regexp"
)

// TagLister lists the tags of a remote repository
type TagLister func(ctx context.Context, url string) ([]string, error)

// GitTagResolver selects the version-max of a remote's tags
type GitTagResolver struct {
	list   TagLister
	url    string
	filter *regexp.Regexp
}

// NewGitTagResolver creates a resolver for the repository at url
func NewGitTagResolver(list TagLister, url string, filter *regexp.Regexp) *GitTagResolver {
	return &GitTagResolver{list: list, url: url, filter: filter}
}

// Resolve lists remote tags, keeps those matching the filter and returns the greatest
func (r *GitTagResolver) Resolve(ctx context.Context, _ string) (string, error) {
	tags, err := r.list(ctx, r.url)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return latestOf(r.url, filterCandidates(r.filter, tags))
}
