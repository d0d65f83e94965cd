package gitrepo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

var (
	githubOwnerPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)
	githubRepoPattern  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
)

// GitHubProvider implements Provider for GitHub repositories
type GitHubProvider struct {
	pat string // Personal Access Token
}

// NewGitHubProvider creates a new GitHub provider with optional PAT authentication
func NewGitHubProvider(pat string) *GitHubProvider {
	return &GitHubProvider{pat: pat}
}

func (g *GitHubProvider) Name() string {
	return "github"
}

// ParseURL accepts https, http, ssh and scp-style locators as well as the
// scheme-less "github.com/owner/repo" form. The path must be exactly
// owner/repo, optionally followed by ".git", a trailing slash or a query.
func (g *GitHubProvider) ParseURL(locator string) (Reference, error) {
	locator = strings.TrimSpace(locator)

	ep, err := transport.NewEndpoint(locator)
	if err == nil && ep.Protocol == "file" {
		// no scheme and not scp-like, e.g. github.com/owner/repo
		ep, err = transport.NewEndpoint("https://" + locator)
	}
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}

	switch ep.Protocol {
	case "https", "http", "ssh", "git":
	default:
		return Reference{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidReference, ep.Protocol)
	}

	host := strings.ToLower(ep.Host)
	if host != "github.com" && host != "www.github.com" {
		return Reference{}, fmt.Errorf("%w: %q is not a GitHub repository URL", ErrInvalidReference, locator)
	}

	path := ep.Path
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")

	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		return Reference{}, fmt.Errorf("%w: expected https://github.com/<owner>/<repo>, got %q", ErrInvalidReference, locator)
	}

	owner, repo := parts[0], parts[1]
	if !githubOwnerPattern.MatchString(owner) {
		return Reference{}, fmt.Errorf("%w: invalid owner %q", ErrInvalidReference, owner)
	}
	if !githubRepoPattern.MatchString(repo) || repo == "." || repo == ".." {
		return Reference{}, fmt.Errorf("%w: invalid repository name %q", ErrInvalidReference, repo)
	}

	return Reference{Owner: owner, Repo: repo}, nil
}

func (g *GitHubProvider) CloneURL(ref Reference) string {
	return "https://github.com/" + ref.Owner + "/" + ref.Repo + ".git"
}

func (g *GitHubProvider) Auth() transport.AuthMethod {
	if g.pat == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "git", // GitHub uses "git" as username for token auth
		Password: g.pat,
	}
}

func (g *GitHubProvider) MatchesURL(locator string) bool {
	locator = strings.ToLower(locator)
	return strings.Contains(locator, "github.com")
}
