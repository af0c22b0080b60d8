package version

import (
	"strings"
	"testing"
)

func TestInfoContainsBuildFields(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	Version, Commit = "1.4.0", "abc1234"
	defer func() { Version, Commit = oldVersion, oldCommit }()

	info := Info()
	for _, want := range []string{"imagebump 1.4.0", "commit abc1234"} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() = %q, should contain %q", info, want)
		}
	}
	if Short() != "1.4.0" {
		t.Errorf("Short() = %q, want 1.4.0", Short())
	}
}
