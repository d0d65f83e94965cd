package issue

import (
	"context"

	"github.com/gomantics/reposcout/internal/api/web"
	"github.com/gomantics/reposcout/internal/domains/issues"
	"github.com/gomantics/reposcout/internal/libs/gitrepo"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Publisher files an issue on a repository.
type Publisher interface {
	Publish(ctx context.Context, ref gitrepo.Reference, payload issues.Payload) (*issues.Result, error)
}

type handler struct {
	publisher Publisher
}

func Configure(e *echo.Echo, l *zap.Logger, p Publisher) {
	h := &handler{publisher: p}
	e.POST("/api/create-github-issue", web.Wrap(h.Post, l))
}
