package analyze

import (
	"context"

	"github.com/gomantics/reposcout/internal/api/web"
	"github.com/gomantics/reposcout/internal/domains/analysis"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Analyzer runs a repository analysis.
type Analyzer interface {
	Analyze(ctx context.Context, locator string) (*analysis.Result, error)
}

type handler struct {
	analyzer Analyzer
}

func Configure(e *echo.Echo, l *zap.Logger, a Analyzer) {
	h := &handler{analyzer: a}
	e.POST("/api/analyze-repo", web.Wrap(h.Post, l))
}
