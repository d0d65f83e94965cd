package gitrepo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// ErrInvalidReference is returned when a locator has no identifiable owner and repository.
var ErrInvalidReference = errors.New("invalid repository reference")

// Reference identifies a hosted repository.
type Reference struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// String returns "owner/repo".
func (r Reference) String() string {
	return r.Owner + "/" + r.Repo
}

// Provider defines the interface for git hosting services (GitHub, GitLab, Bitbucket, etc.)
type Provider interface {
	// Name returns the provider name (e.g., "github", "gitlab", "bitbucket")
	Name() string

	// MatchesURL returns true if the locator belongs to this provider
	MatchesURL(locator string) bool

	// ParseURL extracts owner and repository name from a locator
	ParseURL(locator string) (Reference, error)

	// CloneURL returns the canonical https remote for a reference
	CloneURL(ref Reference) string

	// Auth returns the authentication method for this provider (nil if no auth)
	Auth() transport.AuthMethod
}

// Registry holds registered providers and allows auto-detection
type Registry struct {
	providers []Provider
}

// NewRegistry creates a new provider registry
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{
		providers: providers,
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// Detect finds the appropriate provider for a given locator
func (r *Registry) Detect(locator string) Provider {
	for _, p := range r.providers {
		if p.MatchesURL(locator) {
			return p
		}
	}
	return nil
}

// Get returns a provider by name
func (r *Registry) Get(name string) Provider {
	for _, p := range r.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Resolve parses a locator with the first provider that claims it.
// It never touches the network.
func (r *Registry) Resolve(locator string) (Reference, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return Reference{}, fmt.Errorf("%w: locator is empty", ErrInvalidReference)
	}

	p := r.Detect(locator)
	if p == nil {
		return Reference{}, fmt.Errorf("%w: unsupported git provider for %q", ErrInvalidReference, locator)
	}

	return p.ParseURL(locator)
}

// DefaultRegistry is the process-wide registry with common providers pre-registered.
// Providers are registered without authentication.
var DefaultRegistry = NewRegistry(NewGitHubProvider(""))

// Resolve parses a locator using DefaultRegistry.
func Resolve(locator string) (Reference, error) {
	return DefaultRegistry.Resolve(locator)
}

// ProviderWithToken returns a named provider authenticated with token.
func ProviderWithToken(name string, token string) Provider {
	switch name {
	case "github":
		return NewGitHubProvider(token)
	default:
		return nil
	}
}
