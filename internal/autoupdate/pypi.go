package autoupdate

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// PyPIResolver reads the current release of a package from the PyPI JSON API
type PyPIResolver struct {
	client  *RetryableHTTPClient
	baseURL string
	pkg     string
}

// NewPyPIResolver creates a resolver for pkg on the index at baseURL
func NewPyPIResolver(client *RetryableHTTPClient, baseURL, pkg string) *PyPIResolver {
	return &PyPIResolver{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), pkg: pkg}
}

// Resolve returns info.version of the package document
func (r *PyPIResolver) Resolve(ctx context.Context, _ string) (string, error) {
	endpoint := fmt.Sprintf("%s/pypi/%s/json", r.baseURL, url.PathEscape(r.pkg))
	body, err := r.client.Fetch(ctx, endpoint)
	if err != nil {
		return "", err
	}

	version, err := JSONPath("info.version").Lookup(body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrScrapeFailed, r.pkg, err)
	}
	if version == "" {
		return "", fmt.Errorf("%w: empty version for %s", ErrScrapeFailed, r.pkg)
	}
	return version, nil
}
