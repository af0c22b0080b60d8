package git

// GitExecutor defines the interface for git operations.
// This interface allows for mocking git operations in tests.
type GitExecutor interface {
	// Status returns the current git status as a list of StatusEntry
	Status() ([]StatusEntry, error)

	// Add stages files for commit
	Add(paths ...string) error

	// Commit creates a commit with the specified message and author.
	// allowEmpty permits a commit that changes no files.
	Commit(message, user, email string, allowEmpty bool) error

	// Tag creates a tag on HEAD; a non-empty message makes it annotated
	Tag(name, message string) error

	// Tags lists local tag names
	Tags() ([]string, error)

	// Push pushes the current branch to the remote
	Push(remote string) error

	// PushTag pushes a single tag to the remote
	PushTag(remote, tag string) error

	// CurrentBranch returns the checked out branch name
	CurrentBranch() (string, error)

	// WorkDir returns the working directory of the git repository
	WorkDir() string
}
