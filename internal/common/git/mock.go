package git

// MockGitRunner implements GitExecutor for testing.
// Each method can be configured with a custom function to control behavior.
type MockGitRunner struct {
	StatusFunc        func() ([]StatusEntry, error)
	AddFunc           func(paths ...string) error
	CommitFunc        func(message, user, email string, allowEmpty bool) error
	TagFunc           func(name, message string) error
	TagsFunc          func() ([]string, error)
	PushFunc          func(remote string) error
	PushTagFunc       func(remote, tag string) error
	CurrentBranchFunc func() (string, error)
	workDir           string

	// Calls records every invoked method name in order
	Calls []string
}

// NewMockGitRunner creates a new MockGitRunner with the specified working directory
func NewMockGitRunner(workDir string) *MockGitRunner {
	return &MockGitRunner{
		workDir: workDir,
	}
}

// Status returns the current git status as a list of StatusEntry
func (m *MockGitRunner) Status() ([]StatusEntry, error) {
	m.Calls = append(m.Calls, "status")
	if m.StatusFunc != nil {
		return m.StatusFunc()
	}
	return nil, nil
}

// Add stages files for commit
func (m *MockGitRunner) Add(paths ...string) error {
	m.Calls = append(m.Calls, "add")
	if m.AddFunc != nil {
		return m.AddFunc(paths...)
	}
	return nil
}

// Commit creates a git commit with the specified message and author
func (m *MockGitRunner) Commit(message, user, email string, allowEmpty bool) error {
	m.Calls = append(m.Calls, "commit")
	if m.CommitFunc != nil {
		return m.CommitFunc(message, user, email, allowEmpty)
	}
	return nil
}

// Tag creates a tag
func (m *MockGitRunner) Tag(name, message string) error {
	m.Calls = append(m.Calls, "tag")
	if m.TagFunc != nil {
		return m.TagFunc(name, message)
	}
	return nil
}

// Tags lists local tags
func (m *MockGitRunner) Tags() ([]string, error) {
	m.Calls = append(m.Calls, "tags")
	if m.TagsFunc != nil {
		return m.TagsFunc()
	}
	return nil, nil
}

// Push pushes the current branch
func (m *MockGitRunner) Push(remote string) error {
	m.Calls = append(m.Calls, "push")
	if m.PushFunc != nil {
		return m.PushFunc(remote)
	}
	return nil
}

// PushTag pushes a tag
func (m *MockGitRunner) PushTag(remote, tag string) error {
	m.Calls = append(m.Calls, "push-tag")
	if m.PushTagFunc != nil {
		return m.PushTagFunc(remote, tag)
	}
	return nil
}

// CurrentBranch returns the checked out branch
func (m *MockGitRunner) CurrentBranch() (string, error) {
	m.Calls = append(m.Calls, "current-branch")
	if m.CurrentBranchFunc != nil {
		return m.CurrentBranchFunc()
	}
	return "main", nil
}

// WorkDir returns the working directory of the git repository
func (m *MockGitRunner) WorkDir() string {
	return m.workDir
}

var _ GitExecutor = (*MockGitRunner)(nil)
