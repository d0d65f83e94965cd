package issues

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gomantics/reposcout/config"
	"github.com/gomantics/reposcout/internal/libs/gitrepo"
	"github.com/google/go-github/v72/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Config configures a Publisher.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Publisher files issues through the GitHub REST API. It does not retry,
// so a lost response after a successful create can lead to a duplicate
// issue if the caller tries again.
type Publisher struct {
	client *github.Client
	l      *zap.Logger
	now    func() time.Time
}

// New creates a Publisher. An empty BaseURL targets api.github.com.
func New(l *zap.Logger, cfg Config) (*Publisher, error) {
	httpClient := &http.Client{}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = cfg.Timeout

	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url: %w", err)
		}
	}

	return &Publisher{client: client, l: l, now: time.Now}, nil
}

// NewFromConfig creates a Publisher from the github.* configuration keys.
func NewFromConfig(l *zap.Logger) (*Publisher, error) {
	if config.Github.Token() == "" {
		l.Warn("github token is not configured; issue creation will be rejected upstream")
	}
	return New(l, Config{
		Token:   config.Github.Token(),
		BaseURL: config.Github.BaseURL(),
		Timeout: config.Github.Timeout(),
	})
}

// Publish creates an issue on ref. The payload is validated before any
// network call.
func (p *Publisher) Publish(ctx context.Context, ref gitrepo.Reference, payload Payload) (*Result, error) {
	if ref.Owner == "" || ref.Repo == "" {
		return nil, fmt.Errorf("%w: owner and repository are required", gitrepo.ErrInvalidReference)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	req := &github.IssueRequest{
		Title: github.Ptr(payload.Title),
		Body:  github.Ptr(payload.Body),
	}
	if len(payload.Labels) > 0 {
		labels := payload.Labels
		req.Labels = &labels
	}
	if len(payload.Assignees) > 0 {
		assignees := payload.Assignees
		req.Assignees = &assignees
	}
	if payload.Milestone != nil {
		req.Milestone = payload.Milestone
	}

	l := p.l.With(zap.String("repository", ref.String()))
	l.Info("creating issue", zap.String("title", payload.Title))

	issue, _, err := p.client.Issues.Create(ctx, ref.Owner, ref.Repo, req)
	if err != nil {
		ue := classify(err, p.now())
		l.Warn("issue creation failed",
			zap.Int("status", ue.StatusCode),
			zap.Duration("retry_after", ue.RetryAfter),
			zap.Error(ue),
		)
		return nil, ue
	}

	result := &Result{
		Title:  issue.GetTitle(),
		URL:    issue.GetHTMLURL(),
		Number: issue.GetNumber(),
		State:  issue.GetState(),
	}

	l.Info("issue created", zap.Int("number", result.Number), zap.String("url", result.URL))

	return result, nil
}
