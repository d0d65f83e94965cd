package conversations

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Store maps conversation ids to their histories. It is bounded: once
// capacity is reached the least recently used conversation is dropped.
type Store struct {
	l     *zap.Logger
	mu    sync.Mutex
	cache *lru.Cache[string, *Conversation]

	newSessionID func() string
}

// NewStore creates a store holding at most capacity conversations.
func NewStore(l *zap.Logger, capacity int) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("conversation store capacity must be positive, got %d", capacity)
	}

	s := &Store{
		l:            l,
		newSessionID: uuid.NewString,
	}

	cache, err := lru.NewWithEvict(capacity, func(id string, c *Conversation) {
		s.l.Debug("conversation evicted",
			zap.String("conversation_id", id),
			zap.Int("messages", c.Len()),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation cache: %w", err)
	}
	s.cache = cache

	return s, nil
}

// GetOrCreate returns the conversation for id, creating an empty one on
// first use. Repeated calls return the same *Conversation.
func (s *Store) GetOrCreate(id string) *Conversation {
	if id == "" {
		id = DefaultID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache.Get(id); ok {
		return c
	}

	c := &Conversation{ID: id, SessionID: s.newSessionID()}
	s.cache.Add(id, c)
	s.l.Debug("conversation created",
		zap.String("conversation_id", id),
		zap.String("session_id", c.SessionID),
	)
	return c
}

// Append adds msgs to the conversation for id, creating it if needed.
func (s *Store) Append(id string, msgs ...Message) {
	s.GetOrCreate(id).Append(msgs...)
}

// Len returns the number of live conversations.
func (s *Store) Len() int {
	return s.cache.Len()
}
