package autoupdate

import (
	"context"
	"fmt"
	"regexp"
)

// WebResolver scrapes a page for version candidates. The page may first be
// narrowed with an HTML selector, or reduced to one JSON value.
type WebResolver struct {
	client   *RetryableHTTPClient
	url      string
	filter   *regexp.Regexp
	narrower HTMLNarrower
	jsonPath JSONPath
	// dirOnly requires each match to be followed by "/"
	dirOnly bool
}

// NewWebResolver creates a resolver scraping url
func NewWebResolver(client *RetryableHTTPClient, url string, filter *regexp.Regexp, narrower HTMLNarrower, jsonPath JSONPath) *WebResolver {
	return &WebResolver{
		client:   client,
		url:      url,
		filter:   filter,
		narrower: narrower,
		jsonPath: jsonPath,
	}
}

// NewFileServerResolver creates a resolver for a directory listing; only
// directory entries are candidates
func NewFileServerResolver(client *RetryableHTTPClient, url string, filter *regexp.Regexp, narrower HTMLNarrower) *WebResolver {
	r := NewWebResolver(client, url, filter, narrower, "")
	r.dirOnly = true
	return r
}

// Resolve fetches the page and returns the greatest candidate
func (r *WebResolver) Resolve(ctx context.Context, _ string) (string, error) {
	body, err := r.client.Fetch(ctx, r.url)
	if err != nil {
		return "", err
	}

	if r.jsonPath != "" {
		value, err := r.jsonPath.Lookup(body)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrScrapeFailed, r.url, err)
		}
		if r.filter == nil {
			return latestOf(r.url, []string{value})
		}
		return latestOf(r.url, Candidates(r.filter, value, false))
	}

	text, err := r.narrower.Narrow(body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrScrapeFailed, r.url, err)
	}
	if r.filter == nil {
		return "", fmt.Errorf("%w: no filter for %s", ErrVariableNotSet, r.url)
	}
	return latestOf(r.url, Candidates(r.filter, text, r.dirOnly))
}
