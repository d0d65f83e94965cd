package analyze

import (
	"errors"
	"strings"

	"github.com/gomantics/reposcout/internal/api/web"
	"github.com/gomantics/reposcout/internal/domains/analysis"
	"github.com/gomantics/reposcout/internal/libs/gitrepo"
	"go.uber.org/zap"
)

// PostRequest is the request body for analyzing a repository
type PostRequest struct {
	RepoURL string `json:"repo_url"`
}

// PostResponse flattens the analysis result next to the success flag
type PostResponse struct {
	Success bool `json:"success"`
	*analysis.Result
}

// Post handles POST /api/analyze-repo
func (h *handler) Post(c web.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("Invalid request body")
	}

	locator := strings.TrimSpace(req.RepoURL)
	if locator == "" {
		c.L.Warn("repository url not provided")
		return c.BadRequest("Repository URL is required")
	}

	c.L.Info("analyzing repository", zap.String("repo_url", locator))

	res, err := h.analyzer.Analyze(c.Request().Context(), locator)
	if errors.Is(err, gitrepo.ErrInvalidReference) {
		return c.BadRequest(err.Error())
	}
	if err != nil {
		c.L.Error("repository analysis failed", zap.Error(err))
		return c.InternalError(err.Error())
	}

	c.L.Info("repository analysis completed",
		zap.String("repository", res.Repository),
		zap.Int("suggestions", len(res.Suggestions)),
	)

	return c.OK(PostResponse{Success: true, Result: res})
}
