package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vovarama1992/voice_translator/internal/metrics"
)

var ErrSessionNotFound = errors.New("session not found")

// releaseTimeout bounds handle cleanup once the shutdown deadline has passed.
const releaseTimeout = 5 * time.Second

// Factory builds the workflow for a new session id.
type Factory func(sessionID string) (*Workflow, error)

// Sessions is the registry of live workflows (HTTP sessions and Telegram chats).
type Sessions struct {
	factory Factory
	metrics *metrics.Metrics

	mu    sync.Mutex
	items map[string]*Workflow
}

func NewSessions(factory Factory, m *metrics.Metrics) *Sessions {
	return &Sessions{factory: factory, metrics: m, items: make(map[string]*Workflow)}
}

// Create opens a session under a fresh id.
func (s *Sessions) Create() (*Workflow, error) {
	return s.GetOrCreate(uuid.NewString())
}

func (s *Sessions) Get(id string) (*Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return w, nil
}

func (s *Sessions) GetOrCreate(id string) (*Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.items[id]; ok {
		return w, nil
	}
	w, err := s.factory(id)
	if err != nil {
		return nil, err
	}
	s.items[id] = w
	s.metrics.SessionOpened()
	return w, nil
}

// Close removes the session and releases its resources.
func (s *Sessions) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	w, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.metrics.SessionClosed()
	return w.Close(ctx)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// CloseAll tears every session down. In-flight work gets until ctx is done;
// handles are released either way.
func (s *Sessions) CloseAll(ctx context.Context) error {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*Workflow)
	s.mu.Unlock()

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	var errs []error
	for id, w := range items {
		if err := waitFor(ctx, w); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
		s.metrics.SessionClosed()
		if err := w.Close(releaseCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func waitFor(ctx context.Context, w *Workflow) error {
	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
