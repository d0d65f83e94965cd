package gitrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"go.uber.org/zap"
)

// RepoMetadata summarises the advertised refs of a remote repository.
type RepoMetadata struct {
	DefaultBranch string `json:"default_branch,omitempty"`
	HeadCommitSHA string `json:"head_commit_sha,omitempty"`
	Branches      int    `json:"branches"`
	Tags          int    `json:"tags"`
}

// Inspector reads repository metadata with an ls-remote; nothing is cloned.
type Inspector struct {
	registry *Registry
	l        *zap.Logger
}

// NewInspector returns an Inspector. A non-empty token authenticates GitHub requests.
func NewInspector(l *zap.Logger, token string) *Inspector {
	r := NewRegistry()
	r.Register(ProviderWithToken("github", token))

	return &Inspector{
		registry: r,
		l:        l,
	}
}

// Fetch lists the remote refs of ref and summarises them.
func (i *Inspector) Fetch(ctx context.Context, ref Reference) (*RepoMetadata, error) {
	provider := i.registry.Get("github")
	url := provider.CloneURL(ref)

	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})

	i.l.Debug("listing remote refs", zap.String("url", url))

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: provider.Auth()})
	if err != nil {
		return nil, fmt.Errorf("failed to list remote refs: %w", err)
	}

	return summarizeRefs(refs), nil
}

func summarizeRefs(refs []*plumbing.Reference) *RepoMetadata {
	meta := &RepoMetadata{}
	hashes := make(map[plumbing.ReferenceName]plumbing.Hash, len(refs))

	var headTarget plumbing.ReferenceName
	for _, r := range refs {
		name := r.Name()
		switch {
		case name == plumbing.HEAD:
			if r.Type() == plumbing.SymbolicReference {
				headTarget = r.Target()
			} else {
				meta.HeadCommitSHA = r.Hash().String()
			}
		case name.IsBranch():
			meta.Branches++
			hashes[name] = r.Hash()
		case name.IsTag() && !strings.HasSuffix(name.String(), "^{}"):
			meta.Tags++
		}
	}

	if headTarget != "" {
		meta.DefaultBranch = headTarget.Short()
		if h, ok := hashes[headTarget]; ok {
			meta.HeadCommitSHA = h.String()
		}
	}

	return meta
}
