package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/storage/memory"
)

// ErrRemoteList is returned when the remote refs cannot be listed
var ErrRemoteList = errors.New("failed to list remote refs")

// ListRemoteTags returns the tag names advertised by a remote repository,
// like `git ls-remote --tags`, without cloning it.
func ListRemoteTags(ctx context.Context, url string) ([]string, error) {
	remote := gogit.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: DefaultRemote,
		URLs: []string{url},
	})

	refs, err := remote.ListContext(ctx, &gogit.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRemoteList, url, err)
	}

	seen := make(map[string]bool)
	var tags []string
	for _, ref := range refs {
		if !ref.Name().IsTag() {
			continue
		}
		name := strings.TrimSuffix(ref.Name().Short(), "^{}")
		if seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}

	return tags, nil
}
