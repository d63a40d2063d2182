package repo

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/ragbot-core/server/internal/bot/model"
)

// MemoryRepository keeps conversation histories in process memory. Sessions
// are created lazily on first use and never evicted. Appends for one session
// are serialized by a per-session lock so concurrent requests cannot
// interleave their read-modify-append sequences.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

type memorySession struct {
	mu       sync.Mutex
	messages []*schema.Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*memorySession)}
}

func (r *MemoryRepository) session(sessionID string) *memorySession {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.sessions[sessionID]; ok {
		return s
	}
	s = &memorySession{}
	r.sessions[sessionID] = s
	return s
}

func (r *MemoryRepository) AddMessages(ctx context.Context, sessionID string, messages ...*schema.Message) error {
	if len(messages) == 0 {
		return nil
	}
	s := r.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, messages...)
	return nil
}

func (r *MemoryRepository) LoadHistory(ctx context.Context, sessionID string) (*model.ConversationHistory, error) {
	s := r.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]*schema.Message, len(s.messages))
	copy(msgs, s.messages)
	return &model.ConversationHistory{SessionID: sessionID, Messages: msgs}, nil
}

func (r *MemoryRepository) ClearHistory(ctx context.Context, sessionID string) error {
	s := r.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	return nil
}

func (r *MemoryRepository) MessageCount(ctx context.Context, sessionID string) (int, error) {
	s := r.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages), nil
}

var _ model.HistoryRepository = (*MemoryRepository)(nil)
