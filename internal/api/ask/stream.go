package ask

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gomantics/reposcout/internal/api/web"
	"github.com/gomantics/reposcout/internal/domains/conversations"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type deltaEvent struct {
	Delta string `json:"delta"`
}

type doneEvent struct {
	Done           bool   `json:"done"`
	ConversationID string `json:"conversation_id"`
	Timestamp      string `json:"timestamp"`
}

// stream answers as server-sent events. Upstream failures before the first
// fragment are reported as a regular JSON error.
func (h *handler) stream(c web.Context, convID, query string) error {
	s, err := h.client.Stream(c.Request().Context(), convID, conversations.UserMessage(query))
	if err != nil {
		c.L.Error("direct query stream failed", zap.Error(err))
		return c.InternalError(err.Error())
	}
	defer s.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for s.Next() {
		if err := writeEvent(w, deltaEvent{Delta: s.Current()}); err != nil {
			c.L.Info("client went away mid-stream", zap.Error(err))
			return nil
		}
	}

	if err := s.Err(); err != nil {
		c.L.Error("direct query stream interrupted", zap.Error(err))
		_ = writeEvent(w, web.ErrorResponse{Success: false, Error: err.Error()})
		return nil
	}

	c.L.Info("direct query streamed", zap.Int("length", len(s.Reply())))

	return writeEvent(w, doneEvent{
		Done:           true,
		ConversationID: convID,
		Timestamp:      web.Timestamp(),
	})
}

func writeEvent(w *echo.Response, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
