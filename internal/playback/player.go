package playback

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_translator/internal/metrics"
	"github.com/Vovarama1992/voice_translator/internal/models"
)

type Slot string

const (
	SlotRecording Slot = "recording"
	SlotCloned    Slot = "cloned"
)

func LanguageSlot(l models.Language) Slot { return Slot(l) }

// Player owns the handles of one session, at most one per slot.
// Replacing a slot releases only the handle it supersedes.
type Player struct {
	store   Store
	owner   string
	metrics *metrics.Metrics
	log     *zap.SugaredLogger

	mu     sync.Mutex
	slots  map[Slot]Handle
	closed bool
}

func NewPlayer(store Store, owner string, m *metrics.Metrics, log *zap.SugaredLogger) *Player {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Player{
		store:   store,
		owner:   owner,
		metrics: m,
		log:     log,
		slots:   make(map[Slot]Handle),
	}
}

func (p *Player) Replace(ctx context.Context, slot Slot, data []byte, mimeType string) (Handle, error) {
	h, err := p.store.Put(ctx, p.owner+"_"+string(slot), data, mimeType)
	if err != nil {
		return Handle{}, err
	}
	p.metrics.HandleAcquired()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.release(ctx, h)
		return Handle{}, ErrReleased
	}
	old, hadOld := p.slots[slot]
	p.slots[slot] = h
	p.mu.Unlock()

	if hadOld {
		p.release(ctx, old)
	}
	return h, nil
}

func (p *Player) Get(slot Slot) (Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.slots[slot]
	return h, ok
}

// Snapshot returns a copy of the live handles.
func (p *Player) Snapshot() map[Slot]Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[Slot]Handle, len(p.slots))
	for k, v := range p.slots {
		out[k] = v
	}
	return out
}

func (p *Player) Open(ctx context.Context, slot Slot) (io.ReadCloser, Handle, error) {
	h, ok := p.Get(slot)
	if !ok {
		return nil, Handle{}, ErrReleased
	}
	rc, err := p.store.Open(ctx, h)
	if err != nil {
		return nil, Handle{}, err
	}
	return rc, h, nil
}

// ReleaseAll drops every handle; later Replace calls release immediately.
func (p *Player) ReleaseAll(ctx context.Context) error {
	p.mu.Lock()
	handles := p.slots
	p.slots = make(map[Slot]Handle)
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := p.release(ctx, h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Player) release(ctx context.Context, h Handle) error {
	if err := p.store.Release(ctx, h); err != nil {
		p.log.Warnw("[playback] release failed", "owner", p.owner, "handle", h.ID, "error", err)
		return err
	}
	p.metrics.HandleReleased()
	return nil
}
