package ask

import (
	"strings"

	"github.com/gomantics/reposcout/internal/api/web"
	"github.com/gomantics/reposcout/internal/domains/conversations"
	"github.com/gomantics/reposcout/pkg/logger"
	"go.uber.org/zap"
)

// PostRequest is the request body for a direct query
type PostRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
	Stream         bool   `json:"stream"`
}

// PostResponse is the response for a direct query
type PostResponse struct {
	Success        bool   `json:"success"`
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	Timestamp      string `json:"timestamp"`
}

// Post handles POST /api/ask-asi-one
func (h *handler) Post(c web.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("Invalid request body")
	}

	if strings.TrimSpace(req.Query) == "" {
		c.L.Warn("query not provided")
		return c.BadRequest("Query is required")
	}

	convID := req.ConversationID
	if convID == "" {
		convID = conversations.DefaultID
	}

	c.L = c.L.With(zap.String("conversation_id", convID))
	c.L.Info("direct query", zap.String("query", logger.Preview(req.Query, 100)), zap.Bool("stream", req.Stream))

	if req.Stream {
		return h.stream(c, convID, req.Query)
	}

	reply, err := h.client.Send(c.Request().Context(), convID, conversations.UserMessage(req.Query))
	if err != nil {
		c.L.Error("direct query failed", zap.Error(err))
		return c.InternalError(err.Error())
	}

	c.L.Info("direct query answered",
		zap.Int("length", len(reply)),
		zap.String("preview", logger.Preview(reply, 200)),
	)

	return c.OK(PostResponse{
		Success:        true,
		Response:       reply,
		ConversationID: convID,
		Timestamp:      web.Timestamp(),
	})
}
