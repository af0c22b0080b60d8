package config

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

var (
	ErrGitUserNotConfigured = errors.New("git user is not configured: set user.name and user.email in ~/.gitconfig or imagebump config")
	ErrConfigExists         = errors.New("config file already exists")
)

// Defaults applied to a freshly created or partially filled config
const (
	DefaultRemote      = "origin"
	DefaultRegistryURL = "https://hub.docker.com"
	DefaultGitHubAPI   = "https://api.github.com/"
	DefaultPyPIURL     = "https://pypi.org"
	DefaultEngine      = "docker"
	DefaultPageSize    = 100
)

// Config represents the user configuration
type Config struct {
	Git       GitConfig       `yaml:"git"`
	Registry  RegistryConfig  `yaml:"registry"`
	GitHub    GitHubConfig    `yaml:"github"`
	PyPI      PyPIConfig      `yaml:"pypi"`
	Container ContainerConfig `yaml:"container"`
}

// GitConfig holds git identity and the push remote
type GitConfig struct {
	User   string `yaml:"user"`
	Email  string `yaml:"email"`
	Remote string `yaml:"remote"`
}

// RegistryConfig holds container registry settings
type RegistryConfig struct {
	URL      string `yaml:"url"`
	PageSize int    `yaml:"page_size"`
}

// GitHubConfig holds GitHub API settings
type GitHubConfig struct {
	APIURL string `yaml:"api_url"`
	Token  string `yaml:"token"` // Personal access token for higher rate limits
}

// PyPIConfig holds the package index location
type PyPIConfig struct {
	URL string `yaml:"url"`
}

// ContainerConfig selects the container engine binary
type ContainerConfig struct {
	Engine string `yaml:"engine"`
}

// envOverrides are read from the environment after the file is loaded
type envOverrides struct {
	GitHubToken     string `env:"IMAGEBUMP_GITHUB_TOKEN"`
	GitHubTokenBare string `env:"GITHUB_TOKEN"`
	Engine          string `env:"IMAGEBUMP_ENGINE"`
	RegistryURL     string `env:"IMAGEBUMP_REGISTRY_URL"`
}

// ConfigPath returns the user config location,
// $XDG_CONFIG_HOME/imagebump/config.yaml
func ConfigPath() (string, error) {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "imagebump", "config.yaml"), nil
}

// Load reads the user config file and applies environment overrides
func Load(ctx context.Context) (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(ctx, configPath)
}

// LoadFrom reads configuration from a specific file path. A missing file
// is not an error; defaults are used instead and nothing is written.
func LoadFrom(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	if err := cfg.applyEnv(ctx); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Default returns a config holding only the built-in defaults
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnv(ctx context.Context) error {
	var env envOverrides
	if err := envconfig.Process(ctx, &env); err != nil {
		return err
	}

	switch {
	case env.GitHubToken != "":
		c.GitHub.Token = env.GitHubToken
	case env.GitHubTokenBare != "" && c.GitHub.Token == "":
		c.GitHub.Token = env.GitHubTokenBare
	}
	if env.Engine != "" {
		c.Container.Engine = env.Engine
	}
	if env.RegistryURL != "" {
		c.Registry.URL = env.RegistryURL
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Git.Remote == "" {
		c.Git.Remote = DefaultRemote
	}
	if c.Registry.URL == "" {
		c.Registry.URL = DefaultRegistryURL
	}
	if c.Registry.PageSize <= 0 {
		c.Registry.PageSize = DefaultPageSize
	}
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = DefaultGitHubAPI
	}
	if c.PyPI.URL == "" {
		c.PyPI.URL = DefaultPyPIURL
	}
	if c.Container.Engine == "" {
		c.Container.Engine = DefaultEngine
	}
}

// GetGitUser returns the git user name and email.
// It first tries to read from ~/.gitconfig, then falls back to imagebump config.
func (c *Config) GetGitUser() (user, email string, err error) {
	if gitconfigPath, err := defaultGitconfigPath(); err == nil {
		user, email, err = parseGitconfig(gitconfigPath)
		if err == nil && user != "" && email != "" {
			return user, email, nil
		}
	}

	if c.Git.User != "" && c.Git.Email != "" {
		return c.Git.User, c.Git.Email, nil
	}

	return "", "", ErrGitUserNotConfigured
}

func defaultGitconfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gitconfig"), nil
}

func parseGitconfig(path string) (user, email string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	return ParseGitconfigContent(file)
}

// ParseGitconfigContent reads user.name and user.email from INI-style
// gitconfig content
func ParseGitconfigContent(r io.Reader) (user, email string, err error) {
	scanner := bufio.NewScanner(r)
	inUserSection := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section := strings.ToLower(strings.Trim(line, "[]"))
			inUserSection = section == "user"
			continue
		}

		if !inUserSection {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			user = strings.TrimSpace(value)
		case "email":
			email = strings.TrimSpace(value)
		}
	}

	if err := scanner.Err(); err != nil {
		return "", "", err
	}

	return user, email, nil
}
