package autoupdate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/obentoo/imagebump/internal/common/git"
	"github.com/obentoo/imagebump/internal/common/logger"
	"github.com/obentoo/imagebump/internal/common/vercmp"
)

// releaseTag matches <base>-<counter>
var releaseTag = regexp.MustCompile(`^.+-\d+$`)

// BumpCounter increments the counter after the last '-' of release
func BumpCounter(release string) (string, error) {
	if release == "" {
		return "", fmt.Errorf("%w: release", ErrVariableNotSet)
	}
	idx := strings.LastIndex(release, "-")
	if idx <= 0 {
		return "", fmt.Errorf("%w: release %q is not <base>-<counter>", ErrPatternMalformed, release)
	}
	counter, err := strconv.Atoi(release[idx+1:])
	if err != nil || counter < 0 {
		return "", fmt.Errorf("%w: release %q has no numeric counter", ErrPatternMalformed, release)
	}
	return release[:idx+1] + strconv.Itoa(counter+1), nil
}

// NextVersion computes the release following release. When mainItem has a
// pending update whose stripped version changes, the release is named
// after the new version with the counter reset to 1.
func NextVersion(release string, ledger *Ledger, mainItem string) (string, error) {
	next, err := BumpCounter(release)
	if err != nil {
		return "", err
	}

	if mainItem == "" || ledger == nil {
		return next, nil
	}
	update, ok := ledger.Find(mainItem)
	if !ok {
		return next, nil
	}

	current, latest := vercmp.Strip(update.CurrentVersion), vercmp.Strip(update.NewVersion)
	if current != latest && latest != "" {
		return latest + "-1", nil
	}
	return next, nil
}

// ReleaseFromTags returns the greatest tag shaped like <base>-<counter>
func ReleaseFromTags(tags []string) (string, error) {
	var releases []string
	for _, tag := range tags {
		if releaseTag.MatchString(tag) {
			releases = append(releases, tag)
		}
	}
	if len(releases) == 0 {
		return "", fmt.Errorf("%w: release (no <base>-<counter> tag found)", ErrVariableNotSet)
	}
	return vercmp.Max(releases), nil
}

// Releaser commits, tags and pushes a release.
type Releaser struct {
	git    git.GitExecutor
	remote string
	user   string
	email  string
}

// ReleaserOption is a functional option for configuring Releaser
type ReleaserOption func(*Releaser)

// WithRemote sets the remote pushed to
func WithRemote(remote string) ReleaserOption {
	return func(r *Releaser) {
		if remote != "" {
			r.remote = remote
		}
	}
}

// WithAuthor sets the commit author; empty keeps git's own identity
func WithAuthor(user, email string) ReleaserOption {
	return func(r *Releaser) {
		r.user = user
		r.email = email
	}
}

// NewReleaser creates a releaser over executor
func NewReleaser(executor git.GitExecutor, opts ...ReleaserOption) *Releaser {
	r := &Releaser{git: executor, remote: git.DefaultRemote}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Release stages paths, commits with the changelog, creates an annotated
// tag for version and pushes the branch and the tag. Any git failure is
// returned immediately; nothing is rolled back.
func (r *Releaser) Release(version, changelog string, paths ...string) error {
	message := changelog
	if message == "" {
		message = "Release " + version
	}

	if err := r.git.Add(paths...); err != nil {
		return fmt.Errorf("staging release: %w", err)
	}
	if err := r.git.Commit(message, r.user, r.email, true); err != nil {
		return fmt.Errorf("committing release: %w", err)
	}
	if err := r.git.Tag(version, message); err != nil {
		return fmt.Errorf("tagging %s: %w", version, err)
	}
	logger.Info("tagged %s", version)

	if err := r.git.Push(r.remote); err != nil {
		return fmt.Errorf("pushing to %s: %w", r.remote, err)
	}
	if err := r.git.PushTag(r.remote, version); err != nil {
		return fmt.Errorf("pushing tag %s: %w", version, err)
	}
	return nil
}
