package autoupdate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v75/github"

	"github.com/obentoo/imagebump/internal/common/git"
	"github.com/obentoo/imagebump/internal/common/logger"
	"github.com/obentoo/imagebump/internal/common/version"
)

// Checker runs the scan phase: every check of a project is resolved and
// classified into a fresh Ledger. The manifest is only read.
type Checker struct {
	project  *Project
	manifest *Manifest

	httpClient   *RetryableHTTPClient
	githubClient *github.Client
	runner       ContainerRunner
	listTags     TagLister

	registryURL string
	pageSize    int
	githubAPI   string
	githubToken string
	pypiURL     string
}

// CheckerOption is a functional option for configuring Checker
type CheckerOption func(*Checker) error

// WithHTTPClient sets the HTTP client shared by all HTTP resolvers
func WithHTTPClient(client *RetryableHTTPClient) CheckerOption {
	return func(c *Checker) error {
		c.httpClient = client
		return nil
	}
}

// WithContainerRunner sets the runner used by packages checks
func WithContainerRunner(runner ContainerRunner) CheckerOption {
	return func(c *Checker) error {
		c.runner = runner
		return nil
	}
}

// WithTagLister sets the remote tag lister used by git checks
func WithTagLister(list TagLister) CheckerOption {
	return func(c *Checker) error {
		c.listTags = list
		return nil
	}
}

// WithRegistry sets the registry API base URL and default page size
func WithRegistry(baseURL string, pageSize int) CheckerOption {
	return func(c *Checker) error {
		c.registryURL = baseURL
		c.pageSize = pageSize
		return nil
	}
}

// WithGitHub sets the GitHub API URL and token
func WithGitHub(apiURL, token string) CheckerOption {
	return func(c *Checker) error {
		c.githubAPI = apiURL
		c.githubToken = token
		return nil
	}
}

// WithPyPI sets the package index base URL
func WithPyPI(baseURL string) CheckerOption {
	return func(c *Checker) error {
		c.pypiURL = baseURL
		return nil
	}
}

// NewChecker creates a checker for project reading values from manifest
func NewChecker(project *Project, manifest *Manifest, opts ...CheckerOption) (*Checker, error) {
	checker := &Checker{
		project:     project,
		manifest:    manifest,
		listTags:    git.ListRemoteTags,
		registryURL: "https://hub.docker.com",
		pageSize:    100,
		pypiURL:     "https://pypi.org",
	}

	for _, opt := range opts {
		if err := opt(checker); err != nil {
			return nil, fmt.Errorf("failed to apply checker option: %w", err)
		}
	}

	if checker.httpClient == nil {
		checker.httpClient = NewRetryableHTTPClient()
		checker.httpClient.SetDefaultHeaders(map[string]string{"User-Agent": "imagebump/" + version.Short()})
	}
	if checker.runner == nil {
		checker.runner = NewEngineRunner("")
	}

	if project.HasKind(KindGitHub) {
		client, err := NewGitHubClient(checker.httpClient, checker.githubAPI, checker.githubToken)
		if err != nil {
			return nil, err
		}
		checker.githubClient = client
	}

	return checker, nil
}

// Scan resolves every check in order. The container engine is checked up
// front when any packages check exists. The first resolver failure aborts
// the scan; extraction failures of optional checks are only warned about.
func (c *Checker) Scan(ctx context.Context) (*Ledger, error) {
	ledger := NewLedger(c.manifest)

	if c.project.HasKind(KindPackages) {
		if err := c.runner.Ping(ctx); err != nil {
			return nil, err
		}
	}

	for i := range c.project.Checks {
		check := &c.project.Checks[i]
		logger.Debug("check %d: %s %s", i+1, check.Kind, check.displayName())

		var err error
		if check.Kind == KindPackages {
			err = c.scanPackages(ctx, ledger, check)
		} else {
			err = c.scanItem(ctx, ledger, check)
		}
		if err != nil {
			return nil, err
		}
	}

	return ledger, nil
}

// currentValue returns the literal current value or extracts it from the manifest
func (c *Checker) currentValue(check *Check, key string) (string, error) {
	if check.Current != "" {
		return check.Current, nil
	}
	return c.manifest.Extract(key, check.Pattern, check.separator())
}

func (c *Checker) scanItem(ctx context.Context, ledger *Ledger, check *Check) error {
	if check.Item == "" {
		logger.Warn("skipping %s check with empty item", check.Kind)
		return nil
	}

	current, err := c.currentValue(check, check.Item)
	if err != nil {
		if check.Optional && errors.Is(err, ErrExtractionFailed) {
			logger.Warn("%v, skipping optional check", err)
			return nil
		}
		return err
	}

	resolver, err := c.resolverFor(check)
	if err != nil {
		return err
	}

	latest, err := resolver.Resolve(ctx, current)
	if err != nil {
		return err
	}
	logger.Debug("%s: current %q, latest %q", check.Item, current, latest)

	_, err = ledger.Classify(Record{
		Item:           check.Item,
		Separator:      check.separator(),
		CurrentValue:   current,
		NewValue:       latest,
		CurrentVersion: versionLabel(check.Kind, current),
		NewVersion:     versionLabel(check.Kind, latest),
		Name:           check.displayName(),
	})
	return err
}

// scanPackages classifies every upgradable package of the check's image.
// The check separator applies to the image item only; package pins and the
// trigger are pkg=version declarations.
func (c *Checker) scanPackages(ctx context.Context, ledger *Ledger, check *Check) error {
	image := check.Image
	if image == "" {
		var err error
		if image, err = c.currentValue(check, check.Item); err != nil {
			if check.Optional && errors.Is(err, ErrExtractionFailed) {
				logger.Warn("%v, skipping optional check", err)
				return nil
			}
			return err
		}
	}

	upgrades, err := NewPackagesResolver(c.runner).Upgrades(ctx, image)
	if err != nil {
		return err
	}
	logger.Debug("%s: %d upgradable packages", image, len(upgrades))

	for _, u := range upgrades {
		if _, err := ledger.Classify(Record{
			Item:           u.Package,
			Separator:      DefaultSeparator,
			CurrentValue:   u.Current,
			NewValue:       u.New,
			CurrentVersion: u.Current,
			NewVersion:     u.New,
			Name:           u.Package,
		}); err != nil {
			return err
		}
	}

	if check.Trigger == "" || len(upgrades) == 0 {
		return nil
	}

	current, err := c.manifest.Extract(check.Trigger, "", DefaultSeparator)
	if err != nil {
		logger.Warn("%v, no rebuild trigger recorded", err)
		return nil
	}
	digest := UpgradeDigest(upgrades)
	_, err = ledger.AddHidden(Record{
		Item:           check.Trigger,
		Separator:      DefaultSeparator,
		CurrentValue:   current,
		NewValue:       digest,
		CurrentVersion: current,
		NewVersion:     digest,
		Name:           check.Trigger,
	})
	return err
}

// resolverFor builds the resolver of a non-packages check
func (c *Checker) resolverFor(check *Check) (Resolver, error) {
	filter, err := optionalFilter(check.Filter)
	if err != nil {
		return nil, err
	}

	switch check.Kind {
	case KindRegistry:
		pageSize := c.pageSize
		if check.PageSize > 0 {
			pageSize = check.PageSize
		}
		return NewRegistryResolver(c.httpClient, c.registryURL, pageSize, filter), nil

	case KindGitHub:
		return NewGitHubResolver(c.githubClient, check.Repo, check.tagPrefix())

	case KindGit:
		return NewGitTagResolver(c.listTags, check.URL, filter), nil

	case KindWeb, KindFileServer:
		narrower := HTMLNarrower{Selector: check.Selector, XPath: check.XPath}
		if check.Kind == KindFileServer {
			return NewFileServerResolver(c.httpClient, check.URL, filter, narrower), nil
		}
		return NewWebResolver(c.httpClient, check.URL, filter, narrower, JSONPath(check.JSONPath)), nil

	case KindPyPI:
		return NewPyPIResolver(c.httpClient, c.pypiURL, check.Package), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidCheckKind, check.Kind)
}

// versionLabel is the human version of a value: the tag for image
// references, the value itself otherwise
func versionLabel(kind CheckKind, value string) string {
	if kind == KindRegistry {
		return imageTag(value)
	}
	return value
}
