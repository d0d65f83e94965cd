package llm

import (
	"context"
	"strings"

	"github.com/gomantics/reposcout/internal/domains/conversations"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/ssestream"
	"go.uber.org/zap"
)

// Stream yields reply fragments in arrival order. The turn is committed to
// the conversation only when the upstream stream ends without error;
// closing early or failing commits nothing.
type Stream struct {
	store   *conversations.Store
	convID  string
	pending []conversations.Message
	raw     *ssestream.Stream[openai.ChatCompletionChunk]
	cancel  context.CancelFunc
	l       *zap.Logger

	reply   strings.Builder
	current string
	err     error
	done    bool

	peeked  bool
	hasPeek bool
}

// Next advances to the next fragment.
func (s *Stream) Next() bool {
	if s.peeked {
		s.peeked = false
		return s.hasPeek
	}
	return s.advance()
}

// Current returns the fragment read by the last call to Next.
func (s *Stream) Current() string {
	return s.current
}

// Err returns the error that stopped the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Reply returns everything received so far.
func (s *Stream) Reply() string {
	return s.reply.String()
}

// Close releases the upstream connection. It is safe to call more than once.
func (s *Stream) Close() error {
	s.done = true
	s.cancel()
	return s.raw.Close()
}

func (s *Stream) peek() {
	s.hasPeek = s.advance()
	s.peeked = true
}

func (s *Stream) advance() bool {
	if s.done {
		return false
	}

	for s.raw.Next() {
		chunk := s.raw.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		s.current = delta
		s.reply.WriteString(delta)
		return true
	}

	s.done = true
	s.current = ""

	if err := s.raw.Err(); err != nil {
		s.err = toServiceError(err)
		s.l.Warn("chat completion stream failed", zap.Error(err))
		return false
	}

	s.store.Append(s.convID, turn(s.pending, s.reply.String())...)
	s.l.Debug("chat completion stream committed", zap.Int("reply_len", s.reply.Len()))
	return false
}
