package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/soyeahso/prodbot/internal/domain"
)

// MemoryCheckpointer keeps thread history in process memory.
type MemoryCheckpointer struct {
	mu      sync.RWMutex
	threads map[string]*memThread
}

type memThread struct {
	messages  []domain.Message
	updatedAt time.Time
}

// NewMemoryCheckpointer creates an empty in-memory checkpointer.
func NewMemoryCheckpointer() *MemoryCheckpointer {
	return &MemoryCheckpointer{threads: make(map[string]*memThread)}
}

func (m *MemoryCheckpointer) Load(_ context.Context, threadID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.threads[threadID]
	if !ok {
		return []domain.Message{}, nil
	}
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out, nil
}

func (m *MemoryCheckpointer) Append(_ context.Context, threadID string, msgs ...domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[threadID]
	if !ok {
		t = &memThread{}
		m.threads[threadID] = t
	}
	t.messages = append(t.messages, msgs...)
	t.updatedAt = time.Now()
	return nil
}

func (m *MemoryCheckpointer) Threads(_ context.Context) ([]domain.ThreadInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]domain.ThreadInfo, 0, len(m.threads))
	for id, t := range m.threads {
		infos = append(infos, domain.ThreadInfo{ID: id, Messages: len(t.messages), UpdatedAt: t.updatedAt})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

func (m *MemoryCheckpointer) Close() error { return nil }
