package notificator

import (
	"context"
	"sync"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

const defaultQueueSize = 32

// MemoryInfra buffers notifications per session until a client drains them.
// Oldest entries are dropped past the limit.
type MemoryInfra struct {
	limit int

	mu     sync.Mutex
	queues map[string][]models.Notification
}

var _ Notificator = (*MemoryInfra)(nil)

func NewMemoryInfra(limit int) *MemoryInfra {
	if limit <= 0 {
		limit = defaultQueueSize
	}
	return &MemoryInfra{limit: limit, queues: make(map[string][]models.Notification)}
}

func (m *MemoryInfra) Notify(_ context.Context, sessionID string, n models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := append(m.queues[sessionID], n)
	if len(q) > m.limit {
		q = q[len(q)-m.limit:]
	}
	m.queues[sessionID] = q
	return nil
}

// Drain returns and clears the pending notifications of a session.
func (m *MemoryInfra) Drain(sessionID string) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queues[sessionID]
	delete(m.queues, sessionID)
	return q
}

func (m *MemoryInfra) Forget(sessionID string) {
	m.mu.Lock()
	delete(m.queues, sessionID)
	m.mu.Unlock()
}
