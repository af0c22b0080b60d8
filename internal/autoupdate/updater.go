package autoupdate

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/obentoo/imagebump/internal/common/git"
	"github.com/obentoo/imagebump/internal/common/logger"
)

// Plan is the outcome of the scan phase plus the release it leads to
type Plan struct {
	Ledger *Ledger
	// Release is the current release, possibly derived from tags
	Release string
	// Version is the next release; empty when there is nothing to do
	Version string
}

// Result reports what an update run changed
type Result struct {
	Plan
	// Patched is the number of manifest substitutions written
	Patched int
	// Released is true once the release was committed, tagged and pushed
	Released bool
}

// Updater runs the whole update flow for a project.
type Updater struct {
	project   *Project
	checker   *Checker
	git       git.GitExecutor
	releaser  *Releaser
	confirmer Confirmer

	dryRun          bool
	failOnNoUpdates bool
	report          func(*Plan)
}

// UpdaterOption is a functional option for configuring Updater
type UpdaterOption func(*Updater)

// WithConfirmer sets the confirmation gate; by default everything is accepted
func WithConfirmer(c Confirmer) UpdaterOption {
	return func(u *Updater) { u.confirmer = c }
}

// WithDryRun stops after planning
func WithDryRun(dryRun bool) UpdaterOption {
	return func(u *Updater) { u.dryRun = dryRun }
}

// WithFailOnNoUpdates makes an empty ledger an ErrNoUpdates failure
func WithFailOnNoUpdates(fail bool) UpdaterOption {
	return func(u *Updater) { u.failOnNoUpdates = fail }
}

// WithReport is called with the plan before confirmation
func WithReport(fn func(*Plan)) UpdaterOption {
	return func(u *Updater) { u.report = fn }
}

// NewUpdater wires the scan, patch and release steps of project
func NewUpdater(project *Project, checker *Checker, executor git.GitExecutor, releaser *Releaser, opts ...UpdaterOption) *Updater {
	u := &Updater{
		project:   project,
		checker:   checker,
		git:       executor,
		releaser:  releaser,
		confirmer: NoConfirm{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Plan runs the scan phase and computes the next version without writing
func (u *Updater) Plan(ctx context.Context) (*Plan, error) {
	ledger, err := u.checker.Scan(ctx)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Ledger: ledger}
	if ledger.Len() == 0 {
		return plan, nil
	}

	if plan.Release, err = u.CurrentRelease(); err != nil {
		return nil, err
	}
	if plan.Version, err = NextVersion(plan.Release, ledger, u.project.MainItem); err != nil {
		return nil, err
	}
	return plan, nil
}

// CurrentRelease returns the configured release or, when allowed, the
// greatest release tag of the repository
func (u *Updater) CurrentRelease() (string, error) {
	if u.project.Release != "" || !u.project.ReleaseFromTags {
		return u.project.Release, nil
	}
	tags, err := u.git.Tags()
	if err != nil {
		return "", err
	}
	return ReleaseFromTags(tags)
}

// Run scans, asks for confirmation, patches the manifest and releases.
// No updates is a success unless WithFailOnNoUpdates is set.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	plan, err := u.Plan(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{Plan: *plan}

	if u.report != nil {
		u.report(plan)
	}

	if plan.Ledger.Len() == 0 {
		if u.failOnNoUpdates {
			return result, ErrNoUpdates
		}
		return result, nil
	}
	if u.dryRun {
		return result, nil
	}

	ok, err := u.confirmer.Confirm(fmt.Sprintf("Apply %d update(s) and release %s?", plan.Ledger.Len(), plan.Version))
	if err != nil {
		return result, err
	}
	if !ok {
		return result, ErrActionDenied
	}

	u.warnStaged()

	manifestPath := u.project.ManifestPath()
	if result.Patched, err = Apply(plan.Ledger, manifestPath); err != nil {
		return result, err
	}
	logger.Debug("patched %d declaration(s) in %s", result.Patched, manifestPath)

	paths := []string{manifestPath}
	if u.project.Release != "" && u.project.Path() != "" {
		if err := u.recordRelease(plan.Release, plan.Version); err != nil {
			return result, err
		}
		paths = append(paths, u.project.Path())
	}

	if err := u.releaser.Release(plan.Version, plan.Ledger.Changelog(), u.repoPaths(paths)...); err != nil {
		return result, err
	}
	result.Released = true
	return result, nil
}

// warnStaged reports changes already in the index, which the release
// commit will carry along
func (u *Updater) warnStaged() {
	entries, err := u.git.Status()
	if err != nil {
		logger.Warn("could not read git status: %v", err)
		return
	}
	for _, e := range entries {
		if e.Staged {
			logger.Warn("staged change will be included in the release commit: %s", e.FilePath)
		}
	}
}

// recordRelease rewrites the release value in the project file so the
// next run counts from the new version
func (u *Updater) recordRelease(current, next string) error {
	file, err := LoadManifest(u.project.Path())
	if err != nil {
		return err
	}
	if err := file.Replace("release", "=", current, next); err != nil {
		return fmt.Errorf("updating release in %s: %w", u.project.Path(), err)
	}
	if err := file.Save(); err != nil {
		return err
	}
	u.project.Release = next
	return nil
}

// repoPaths makes paths relative to the repository when possible
func (u *Updater) repoPaths(paths []string) []string {
	root, err := filepath.Abs(u.git.WorkDir())
	if err != nil {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			if rel, err := filepath.Rel(root, abs); err == nil {
				p = rel
			}
		}
		out = append(out, p)
	}
	return out
}
