package ask

import (
	"context"

	"github.com/gomantics/reposcout/internal/api/web"
	"github.com/gomantics/reposcout/internal/domains/conversations"
	"github.com/gomantics/reposcout/internal/domains/llm"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Client sends direct queries to the model.
type Client interface {
	Send(ctx context.Context, conversationID string, msgs ...conversations.Message) (string, error)
	Stream(ctx context.Context, conversationID string, msgs ...conversations.Message) (*llm.Stream, error)
}

type handler struct {
	client Client
}

func Configure(e *echo.Echo, l *zap.Logger, client Client) {
	h := &handler{client: client}
	e.POST("/api/ask-asi-one", web.Wrap(h.Post, l))
}
