package issue

import (
	"errors"
	"strings"

	"github.com/gomantics/reposcout/internal/api/web"
	"github.com/gomantics/reposcout/internal/domains/issues"
	"github.com/gomantics/reposcout/internal/libs/gitrepo"
	"go.uber.org/zap"
)

// PostRequest is the request body for creating an issue
type PostRequest struct {
	RepoURL   string          `json:"repo_url"`
	IssueData *issues.Payload `json:"issue_data"`
}

// PostResponse is the response for creating an issue
type PostResponse struct {
	Success bool           `json:"success"`
	Issue   *issues.Result `json:"issue"`
}

// Post handles POST /api/create-github-issue
func (h *handler) Post(c web.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("Invalid request body")
	}

	locator := strings.TrimSpace(req.RepoURL)
	if locator == "" || req.IssueData == nil {
		c.L.Warn("repository url or issue data not provided")
		return c.BadRequest("Repository URL and issue data are required")
	}

	ref, err := gitrepo.Resolve(locator)
	if err != nil {
		return c.BadRequest(err.Error())
	}

	l := c.L.With(zap.String("repository", ref.String()))

	res, err := h.publisher.Publish(c.Request().Context(), ref, *req.IssueData)
	if errors.Is(err, issues.ErrInvalidPayload) || errors.Is(err, gitrepo.ErrInvalidReference) {
		return c.BadRequest(err.Error())
	}
	if err != nil {
		l.Error("issue creation failed", zap.Error(err))
		return c.InternalError(err.Error())
	}

	l.Info("issue created", zap.Int("number", res.Number), zap.String("url", res.URL))

	return c.OK(PostResponse{Success: true, Issue: res})
}
