package git

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrGitCommand is the root of every git failure
var ErrGitCommand = errors.New("git command failed")

var (
	ErrFileNotFound    = fmt.Errorf("%w: file not found", ErrGitCommand)
	ErrPathOutsideRepo = fmt.Errorf("%w: path is outside the repository", ErrGitCommand)
	ErrInvalidPath     = fmt.Errorf("%w: invalid path", ErrGitCommand)
	ErrDetachedHead    = fmt.Errorf("%w: HEAD is detached", ErrGitCommand)
)

// DefaultRemote is used when no remote is given
const DefaultRemote = "origin"

// GitRunner executes git commands in a specific working directory
type GitRunner struct {
	workDir string
	// identity is added to the environment of every git command
	identity []string
}

// NewGitRunner creates a new GitRunner for the specified working directory
func NewGitRunner(workDir string) *GitRunner {
	return &GitRunner{
		workDir: workDir,
	}
}

// SetIdentity makes user and email the author, committer and tagger of
// everything this runner creates, whatever the host git config says
func (g *GitRunner) SetIdentity(user, email string) {
	g.identity = identityEnv(user, email)
}

func identityEnv(user, email string) []string {
	return []string{
		"GIT_AUTHOR_NAME=" + user,
		"GIT_AUTHOR_EMAIL=" + email,
		"GIT_COMMITTER_NAME=" + user,
		"GIT_COMMITTER_EMAIL=" + email,
	}
}

// WorkDir returns the working directory of the GitRunner
func (g *GitRunner) WorkDir() string {
	return g.workDir
}

// runCommand executes a git command and returns stdout, stderr, and any error.
// Failures always wrap ErrGitCommand, joined with stderr when git printed any.
func (g *GitRunner) runCommand(args ...string) (stdout, stderr string, err error) {
	return g.runCommandEnv(g.identity, args...)
}

// runCommandEnv is runCommand with extra environment variables
func (g *GitRunner) runCommandEnv(env []string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.workDir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = err.Error()
		}
		err = errors.Join(ErrGitCommand, errors.New("git "+args[0]+": "+detail))
	}

	return stdout, stderr, err
}

// StatusEntry represents a single entry from git status --porcelain
type StatusEntry struct {
	Status   string // A, M, D, R, ??
	FilePath string
	// Staged is set when the index differs from HEAD
	Staged bool
}

// Status returns the current git status as a list of StatusEntry
func (g *GitRunner) Status() ([]StatusEntry, error) {
	stdout, _, err := g.runCommand("status", "--porcelain")
	if err != nil {
		return nil, err
	}

	return ParseStatusOutput(stdout), nil
}

// ParseStatusOutput parses git status --porcelain output into StatusEntry slice
func ParseStatusOutput(output string) []StatusEntry {
	var entries []StatusEntry

	for _, line := range strings.Split(output, "\n") {
		if len(line) < 3 {
			continue
		}

		// XY filename, X = index status, Y = worktree status
		status := strings.TrimSpace(line[:2])
		filePath := line[3:]

		// R  old -> new
		if strings.HasPrefix(status, "R") {
			if _, newPath, ok := strings.Cut(filePath, " -> "); ok {
				filePath = newPath
			}
		}

		entries = append(entries, StatusEntry{
			Status:   status,
			FilePath: filePath,
			Staged:   line[0] != ' ' && line[0] != '?',
		})
	}

	return entries
}

// Add stages files for commit. Every path must exist inside the repository.
func (g *GitRunner) Add(paths ...string) error {
	if len(paths) == 0 {
		_, _, err := g.runCommand("add", ".")
		return err
	}

	for _, path := range paths {
		if err := g.validateAndAddPath(path); err != nil {
			return err
		}
	}

	return nil
}

// validateAndAddPath validates a single path and adds it to staging
func (g *GitRunner) validateAndAddPath(path string) error {
	var absPath string
	if filepath.IsAbs(path) {
		absPath = path
	} else {
		absPath = filepath.Join(g.workDir, path)
	}

	absPath = filepath.Clean(absPath)
	workDirAbs := filepath.Clean(g.workDir)

	relPath, err := filepath.Rel(workDirAbs, absPath)
	if err != nil {
		return errors.Join(ErrInvalidPath, err)
	}

	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return ErrPathOutsideRepo
	}

	if _, err := os.Stat(absPath); err != nil {
		return ErrFileNotFound
	}

	_, _, err = g.runCommand("add", "--", relPath)
	return err
}

// Commit creates a git commit with the specified message. A non-empty user
// and email become both author and committer, so no git identity needs to
// be configured on the host.
func (g *GitRunner) Commit(message, user, email string, allowEmpty bool) error {
	args := []string{"commit", "-m", message}
	if allowEmpty {
		args = append(args, "--allow-empty")
	}

	env := g.identity
	if user != "" && email != "" {
		args = append(args, "--author", user+" <"+email+">")
		env = identityEnv(user, email)
	}

	_, _, err := g.runCommandEnv(env, args...)
	return err
}

// Tag creates a tag on HEAD, annotated when message is non-empty
func (g *GitRunner) Tag(name, message string) error {
	args := []string{"tag", name}
	if message != "" {
		args = []string{"tag", "-a", name, "-m", message}
	}
	_, _, err := g.runCommand(args...)
	return err
}

// Tags lists local tag names
func (g *GitRunner) Tags() ([]string, error) {
	stdout, _, err := g.runCommand("tag", "--list")
	if err != nil {
		return nil, err
	}
	return splitLines(stdout), nil
}

// Push pushes the current branch to the remote
func (g *GitRunner) Push(remote string) error {
	if remote == "" {
		remote = DefaultRemote
	}
	branch, err := g.CurrentBranch()
	if err != nil {
		return err
	}
	_, _, err = g.runCommand("push", remote, branch)
	return err
}

// PushTag pushes a single tag to the remote
func (g *GitRunner) PushTag(remote, tag string) error {
	if remote == "" {
		remote = DefaultRemote
	}
	_, _, err := g.runCommand("push", remote, "refs/tags/"+tag)
	return err
}

// CurrentBranch returns the checked out branch name
func (g *GitRunner) CurrentBranch() (string, error) {
	stdout, _, err := g.runCommand("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	branch := strings.TrimSpace(stdout)
	if branch == "HEAD" {
		return "", ErrDetachedHead
	}
	return branch, nil
}

// splitLines returns the non-empty trimmed lines of s
func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

var _ GitExecutor = (*GitRunner)(nil)
