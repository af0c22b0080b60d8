package autoupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// maxRegistryPages bounds pagination against a misbehaving registry
const maxRegistryPages = 200

// RegistryResolver lists image tags from a Docker Hub compatible API and
// returns name:<latest tag>.
type RegistryResolver struct {
	client   *RetryableHTTPClient
	baseURL  string
	pageSize int
	filter   *regexp.Regexp
}

// NewRegistryResolver creates a resolver against baseURL. Only tags that
// filter matches in full are considered; a nil filter keeps every tag.
func NewRegistryResolver(client *RetryableHTTPClient, baseURL string, pageSize int, filter *regexp.Regexp) *RegistryResolver {
	if pageSize <= 0 {
		pageSize = 100
	}
	if filter != nil {
		filter = regexp.MustCompile(`^(?:` + filter.String() + `)$`)
	}
	return &RegistryResolver{
		client:   client,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		pageSize: pageSize,
		filter:   filter,
	}
}

type tagsPage struct {
	Next    string `json:"next"`
	Results []struct {
		Name string `json:"name"`
	} `json:"results"`
}

// Resolve takes the current image reference name:tag
func (r *RegistryResolver) Resolve(ctx context.Context, current string) (string, error) {
	name, _, ok := SplitImage(current)
	if !ok {
		return "", fmt.Errorf("%w: image %q has no tag", ErrScrapeFailed, current)
	}

	tags, err := r.Tags(ctx, name)
	if err != nil {
		return "", err
	}

	var kept []string
	for _, tag := range tags {
		if r.filter == nil || r.filter.MatchString(tag) {
			kept = append(kept, tag)
		}
	}

	latest, err := latestOf(name, kept)
	if err != nil {
		return "", err
	}
	return name + ":" + latest, nil
}

// Tags lists every tag of the repository, following next links
func (r *RegistryResolver) Tags(ctx context.Context, name string) ([]string, error) {
	next := fmt.Sprintf("%s/v2/repositories/%s/tags?page_size=%d", r.baseURL, repositoryPath(name), r.pageSize)

	var tags []string
	for page := 0; next != "" && page < maxRegistryPages; page++ {
		body, err := r.client.Fetch(ctx, next)
		if err != nil {
			return nil, err
		}

		var p tagsPage
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("%w: invalid tag list for %s: %v", ErrScrapeFailed, name, err)
		}
		for _, result := range p.Results {
			tags = append(tags, result.Name)
		}

		next, err = r.resolveNext(next, p.Next)
		if err != nil {
			return nil, err
		}
	}
	return tags, nil
}

// resolveNext makes a relative next link absolute
func (r *RegistryResolver) resolveNext(current, next string) (string, error) {
	if next == "" {
		return "", nil
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("%w: invalid next link %q", ErrScrapeFailed, next)
	}
	return base.ResolveReference(ref).String(), nil
}

// SplitImage splits an image reference into name and tag. The tag is the
// text after the last ':' that follows the last '/'; a digest is ignored.
func SplitImage(ref string) (name, tag string, ok bool) {
	ref, _, _ = strings.Cut(ref, "@")
	slash := strings.LastIndex(ref, "/")
	colon := strings.LastIndex(ref, ":")
	if colon <= slash || colon == len(ref)-1 {
		return ref, "", false
	}
	return ref[:colon], ref[colon+1:], true
}

// repositoryPath maps an image name to its Docker Hub namespace/name path.
// Official images live under "library"; docker.io prefixes are dropped.
func repositoryPath(name string) string {
	for _, prefix := range []string{"docker.io/", "index.docker.io/", "registry-1.docker.io/"} {
		name = strings.TrimPrefix(name, prefix)
	}
	if !strings.Contains(name, "/") {
		return "library/" + name
	}
	return name
}

// imageTag returns the tag of an image reference, or the reference itself
func imageTag(ref string) string {
	if _, tag, ok := SplitImage(ref); ok {
		return tag
	}
	return ref
}
