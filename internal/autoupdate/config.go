package autoupdate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// ProjectFileName is the project file looked up in the working directory
const ProjectFileName = ".imagebump.toml"

// Error variables for project configuration errors
var (
	// ErrProjectNotFound is returned when the project file does not exist
	ErrProjectNotFound = errors.New("project file not found")
	// ErrInvalidCheckKind is returned for an unknown check kind
	ErrInvalidCheckKind = errors.New("invalid check kind")
)

// CheckKind selects the upstream resolver of a check
type CheckKind string

// Supported check kinds
const (
	KindRegistry   CheckKind = "registry"
	KindPackages   CheckKind = "packages"
	KindGitHub     CheckKind = "github"
	KindGit        CheckKind = "git"
	KindWeb        CheckKind = "web"
	KindFileServer CheckKind = "fileserver"
	KindPyPI       CheckKind = "pypi"
)

// Check declares one tracked item and how to resolve its latest value.
type Check struct {
	// Kind is the resolver to use
	Kind CheckKind `toml:"kind"`
	// Item is the manifest key holding the current value
	Item string `toml:"item"`
	// Name is the display name in the changelog (default: Item)
	Name string `toml:"name,omitempty"`
	// Separator joins Item and its value (default "=")
	Separator string `toml:"separator,omitempty"`
	// Pattern constrains the extracted value (default DefaultPattern)
	Pattern string `toml:"pattern,omitempty"`
	// Current is a literal current value; skips manifest extraction
	Current string `toml:"current,omitempty"`
	// Optional turns an extraction failure into a warning
	Optional bool `toml:"optional,omitempty"`

	// Filter is the version regex applied to upstream candidates
	Filter string `toml:"filter,omitempty"`
	// URL is the source for git, web and fileserver checks
	URL string `toml:"url,omitempty"`
	// Repo is the owner/name of a GitHub repository
	Repo string `toml:"repo,omitempty"`
	// Package is the PyPI project name
	Package string `toml:"package,omitempty"`
	// Prefix is stripped from GitHub release tags (default "v")
	Prefix *string `toml:"prefix,omitempty"`
	// Selector narrows a web page to the text of matching elements
	Selector string `toml:"selector,omitempty"`
	// XPath narrows a web page like Selector
	XPath string `toml:"xpath,omitempty"`
	// JSONPath reads a single value from a JSON document
	JSONPath string `toml:"json_path,omitempty"`
	// PageSize overrides the registry page size
	PageSize int `toml:"page_size,omitempty"`
	// Image is the image whose OS packages are inspected (default: Item's value)
	Image string `toml:"image,omitempty"`
	// Trigger is the manifest key bumped when OS packages are upgradable
	Trigger string `toml:"trigger,omitempty"`
}

// Project is the per-project configuration file.
type Project struct {
	// Manifest is the build manifest, relative to the project file
	Manifest string `toml:"manifest"`
	// MainItem is the item whose version names the release
	MainItem string `toml:"main_item"`
	// Release is the current release version <base>-<counter>
	Release string `toml:"release,omitempty"`
	// ReleaseFromTags derives an empty Release from local git tags
	ReleaseFromTags bool `toml:"release_from_tags,omitempty"`
	// Remote is the git remote to push to (default: user config)
	Remote string `toml:"remote,omitempty"`
	// Checks are evaluated in order
	Checks []Check `toml:"check"`

	path string
}

// LoadProject loads and validates the project file at path
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, path)
		}
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	project, err := ParseProject(data)
	if err != nil {
		return nil, err
	}
	project.path = path

	if err := project.Validate(); err != nil {
		return nil, err
	}
	return project, nil
}

// ParseProject decodes project TOML without validating it
func ParseProject(data []byte) (*Project, error) {
	var project Project
	if err := toml.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}
	return &project, nil
}

// Path returns the file the project was loaded from
func (p *Project) Path() string {
	return p.path
}

// ManifestPath resolves Manifest relative to the project file
func (p *Project) ManifestPath() string {
	if filepath.IsAbs(p.Manifest) || p.path == "" {
		return p.Manifest
	}
	return filepath.Join(filepath.Dir(p.path), p.Manifest)
}

// HasKind reports whether any check uses kind
func (p *Project) HasKind(kind CheckKind) bool {
	for _, c := range p.Checks {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// Validate checks the required globals and every check
func (p *Project) Validate() error {
	if p.Manifest == "" {
		return fmt.Errorf("%w: manifest", ErrVariableNotSet)
	}
	if p.MainItem == "" {
		return fmt.Errorf("%w: main_item", ErrVariableNotSet)
	}
	if p.Release == "" && !p.ReleaseFromTags {
		return fmt.Errorf("%w: release (or set release_from_tags)", ErrVariableNotSet)
	}
	for i := range p.Checks {
		if err := ValidateCheck(i, &p.Checks[i]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCheck validates the fields required by a check's kind
func ValidateCheck(index int, c *Check) error {
	label := fmt.Sprintf("check %d (%s)", index+1, c.Kind)

	require := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("%s: %w: %s", label, ErrVariableNotSet, field)
		}
		return nil
	}

	var required [][2]string
	switch c.Kind {
	case KindRegistry:
		required = [][2]string{{"item", c.Item}}
	case KindPackages:
		if c.Image == "" {
			required = [][2]string{{"item or image", c.Item}}
		}
	case KindGitHub:
		required = [][2]string{{"item", c.Item}, {"repo", c.Repo}}
		if c.Repo != "" && !strings.Contains(c.Repo, "/") {
			return fmt.Errorf("%s: %w: repo must be owner/name, got %q", label, ErrPatternMalformed, c.Repo)
		}
	case KindGit:
		required = [][2]string{{"item", c.Item}, {"url", c.URL}}
	case KindWeb, KindFileServer:
		required = [][2]string{{"item", c.Item}, {"url", c.URL}}
		if c.JSONPath == "" {
			required = append(required, [2]string{"filter", c.Filter})
		}
	case KindPyPI:
		required = [][2]string{{"item", c.Item}, {"package", c.Package}}
	default:
		return fmt.Errorf("%s: %w: %q", label, ErrInvalidCheckKind, c.Kind)
	}

	for _, field := range required {
		if err := require(field[0], field[1]); err != nil {
			return err
		}
	}

	for _, expr := range []string{c.Filter, c.Pattern} {
		if expr == "" {
			continue
		}
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("%s: %w: %v", label, ErrPatternMalformed, err)
		}
	}

	if c.Selector != "" && c.XPath != "" {
		return fmt.Errorf("%s: %w: selector and xpath are mutually exclusive", label, ErrPatternMalformed)
	}
	return nil
}

// separator returns the configured separator or DefaultSeparator
func (c *Check) separator() string {
	if c.Separator == "" {
		return DefaultSeparator
	}
	return c.Separator
}

// tagPrefix returns the GitHub tag prefix, "v" when unset
func (c *Check) tagPrefix() string {
	if c.Prefix == nil {
		return "v"
	}
	return *c.Prefix
}

// displayName returns Name, falling back to Item
func (c *Check) displayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Item
}
