package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/obentoo/imagebump/internal/autoupdate"
	"github.com/obentoo/imagebump/internal/common/config"
	"github.com/obentoo/imagebump/internal/common/git"
	"github.com/obentoo/imagebump/internal/common/logger"
)

// projectPath is the project file shared by every command
var projectPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectPath, "project", "p", autoupdate.ProjectFileName, "Project file")
}

// session is everything a command needs to run the update flow
type session struct {
	cfg     *config.Config
	project *autoupdate.Project
	git     *git.GitRunner
	checker *autoupdate.Checker
}

// openSession loads the user config and the project file and wires the
// checker against the configured upstreams
func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	path, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, err
	}
	project, err := autoupdate.LoadProject(path)
	if err != nil {
		return nil, err
	}

	manifest, err := autoupdate.LoadManifest(project.ManifestPath())
	if err != nil {
		return nil, err
	}

	checker, err := autoupdate.NewChecker(project, manifest,
		autoupdate.WithRegistry(cfg.Registry.URL, cfg.Registry.PageSize),
		autoupdate.WithGitHub(cfg.GitHub.APIURL, cfg.GitHub.Token),
		autoupdate.WithPyPI(cfg.PyPI.URL),
		autoupdate.WithContainerRunner(autoupdate.NewEngineRunner(cfg.Container.Engine)),
	)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:     cfg,
		project: project,
		git:     git.NewGitRunner(filepath.Dir(path)),
		checker: checker,
	}, nil
}

// releaser builds a releaser with the configured identity and remote.
// Without a configured identity git's own is used.
func (s *session) releaser() *autoupdate.Releaser {
	opts := []autoupdate.ReleaserOption{autoupdate.WithRemote(s.cfg.Git.Remote)}
	if s.project.Remote != "" {
		opts = append(opts, autoupdate.WithRemote(s.project.Remote))
	}

	user, email, err := s.cfg.GetGitUser()
	switch {
	case err == nil:
		s.git.SetIdentity(user, email)
		opts = append(opts, autoupdate.WithAuthor(user, email))
	case errors.Is(err, config.ErrGitUserNotConfigured):
		logger.Debug("no git identity configured, using repository defaults")
	default:
		logger.Warn("reading git identity: %v", err)
	}
	return autoupdate.NewReleaser(s.git, opts...)
}

// updater wires the session into an Updater
func (s *session) updater(opts ...autoupdate.UpdaterOption) *autoupdate.Updater {
	return autoupdate.NewUpdater(s.project, s.checker, s.git, s.releaser(), opts...)
}

// stdinConfirmer prompts on the terminal
func stdinConfirmer() autoupdate.Confirmer {
	return autoupdate.NewPromptConfirmer(os.Stdin, os.Stdout)
}
