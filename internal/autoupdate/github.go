package autoupdate

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v75/github"
)

// GitHubResolver returns the tag of a repository's latest release with a
// prefix stripped.
type GitHubResolver struct {
	client *github.Client
	owner  string
	repo   string
	prefix string
}

// NewGitHubClient builds a go-github client on top of the retrying HTTP
// client. An empty apiURL keeps the public API; token may be empty.
func NewGitHubClient(httpClient *RetryableHTTPClient, apiURL, token string) (*github.Client, error) {
	client := github.NewClient(httpClient.StandardClient())
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		base, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("%w: github api url %q: %v", ErrPatternMalformed, apiURL, err)
		}
		client.BaseURL = base
	}
	return client, nil
}

// NewGitHubResolver creates a resolver for repo in owner/name form
func NewGitHubResolver(client *github.Client, repo, prefix string) (*GitHubResolver, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("%w: repo must be owner/name, got %q", ErrPatternMalformed, repo)
	}
	return &GitHubResolver{client: client, owner: owner, repo: name, prefix: prefix}, nil
}

// Resolve ignores current; the latest release is authoritative
func (r *GitHubResolver) Resolve(ctx context.Context, _ string) (string, error) {
	release, _, err := r.client.Repositories.GetLatestRelease(ctx, r.owner, r.repo)
	if err != nil {
		return "", fmt.Errorf("%w: latest release of %s/%s: %v", ErrRequestFailed, r.owner, r.repo, err)
	}

	tag := strings.TrimPrefix(release.GetTagName(), r.prefix)
	if tag == "" {
		return "", fmt.Errorf("%w: empty release tag for %s/%s", ErrScrapeFailed, r.owner, r.repo)
	}
	return tag, nil
}
