package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/gomantics/reposcout/config"
	"github.com/gomantics/reposcout/internal/domains/conversations"
	"github.com/gomantics/reposcout/pkg/logger"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SessionHeader carries the per-conversation session id upstream.
const SessionHeader = "x-session-id"

// Config configures a Client.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// Client sends conversations to an OpenAI-compatible chat completion
// endpoint. History lives in the conversation store: a turn is only
// committed once the upstream reply has been received in full.
type Client struct {
	client  openai.Client
	store   *conversations.Store
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	l       *zap.Logger
}

// New creates a Client backed by store.
func New(l *zap.Logger, store *conversations.Store, cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	c := &Client{
		client:  openai.NewClient(opts...),
		store:   store,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		l:       l,
	}

	if cfg.RequestsPerSecond > 0 {
		burst := max(1, int(cfg.RequestsPerSecond))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return c
}

// NewFromConfig creates a Client from the llm.* configuration keys.
func NewFromConfig(l *zap.Logger, store *conversations.Store) *Client {
	return New(l, store, Config{
		APIKey:            config.LLM.APIKey(),
		BaseURL:           config.LLM.BaseURL(),
		Model:             config.LLM.Model(),
		Timeout:           config.LLM.Timeout(),
		MaxRetries:        config.LLM.MaxRetries(),
		RequestsPerSecond: config.LLM.RequestsPerSecond(),
	})
}

// Send appends msgs to the conversation, sends the full history and returns
// the reply. On failure the stored history is left untouched. The turn is
// committed to whatever conversation the store holds under the id at reply
// time, so an eviction while the call is in flight does not drop it.
func (c *Client) Send(ctx context.Context, conversationID string, msgs ...conversations.Message) (string, error) {
	conv := c.store.GetOrCreate(conversationID)
	history := append(conv.Messages(), msgs...)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.wait(ctx); err != nil {
		return "", err
	}

	l := c.l.With(
		zap.String("conversation_id", conv.ID),
		zap.Int("history", len(history)),
	)
	l.Debug("sending chat completion")

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, c.params(history), option.WithHeader(SessionHeader, conv.SessionID))
	if err != nil {
		se := toServiceError(err)
		l.Warn("chat completion failed",
			zap.Int("status", se.StatusCode),
			zap.Bool("retryable", se.Retryable()),
			zap.Error(err),
		)
		return "", se
	}

	if len(resp.Choices) == 0 {
		return "", &ServiceError{Message: "no choices in response"}
	}

	reply := resp.Choices[0].Message.Content
	c.store.Append(conv.ID, turn(msgs, reply)...)

	l.Debug("chat completion received",
		zap.Duration("duration", time.Since(start)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("reply", logger.Preview(reply, 200)),
	)

	return reply, nil
}

// Stream is like Send but yields the reply in fragments. The first fragment
// is read before Stream returns so that upstream failures surface as an
// error here rather than mid-stream. The caller must Close the stream.
func (c *Client) Stream(ctx context.Context, conversationID string, msgs ...conversations.Message) (*Stream, error) {
	conv := c.store.GetOrCreate(conversationID)
	history := append(conv.Messages(), msgs...)

	ctx, cancel := c.withTimeout(ctx)

	if err := c.wait(ctx); err != nil {
		cancel()
		return nil, err
	}

	c.l.Debug("opening chat completion stream",
		zap.String("conversation_id", conv.ID),
		zap.Int("history", len(history)),
	)

	raw := c.client.Chat.Completions.NewStreaming(ctx, c.params(history), option.WithHeader(SessionHeader, conv.SessionID))

	s := &Stream{
		store:   c.store,
		convID:  conv.ID,
		pending: msgs,
		raw:     raw,
		cancel:  cancel,
		l:       c.l.With(zap.String("conversation_id", conv.ID)),
	}
	s.peek()
	if s.err != nil {
		s.Close()
		return nil, s.err
	}

	return s, nil
}

func (c *Client) params(history []conversations.Message) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toOpenAIMessages(history),
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return &ServiceError{Message: fmt.Sprintf("rate limiter: %v", err), Err: err}
	}
	return nil
}

func turn(msgs []conversations.Message, reply string) []conversations.Message {
	out := make([]conversations.Message, 0, len(msgs)+1)
	out = append(out, msgs...)
	return append(out, conversations.AssistantMessage(reply))
}

func toOpenAIMessages(msgs []conversations.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case conversations.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case conversations.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
