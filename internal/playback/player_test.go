package playback

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/voice_translator/internal/metrics"
	"github.com/Vovarama1992/voice_translator/internal/models"
)

func newPlayer(t *testing.T) (*Player, *FileStore, *metrics.Metrics) {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	m := metrics.New()
	return NewPlayer(store, "session-1", m, nil), store, m
}

func readAll(t *testing.T, p *Player, slot Slot) string {
	t.Helper()
	rc, _, err := p.Open(context.Background(), slot)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestReplaceReleasesOnlySupersededSlot(t *testing.T) {
	p, _, m := newPlayer(t)
	ctx := context.Background()

	es1, err := p.Replace(ctx, LanguageSlot(models.Spanish), []byte("es-1"), "audio/wav")
	require.NoError(t, err)
	fr, err := p.Replace(ctx, LanguageSlot(models.French), []byte("fr-1"), "audio/wav")
	require.NoError(t, err)
	es2, err := p.Replace(ctx, LanguageSlot(models.Spanish), []byte("es-2"), "audio/wav")
	require.NoError(t, err)

	_, err = os.Stat(es1.Key)
	assert.True(t, os.IsNotExist(err), "superseded handle must be released")

	_, err = os.Stat(fr.Key)
	assert.NoError(t, err)
	_, err = os.Stat(es2.Key)
	assert.NoError(t, err)

	assert.Equal(t, "es-2", readAll(t, p, LanguageSlot(models.Spanish)))
	assert.Equal(t, "fr-1", readAll(t, p, LanguageSlot(models.French)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LiveHandles))
}

func TestReleaseAll(t *testing.T) {
	p, _, m := newPlayer(t)
	ctx := context.Background()

	rec, err := p.Replace(ctx, SlotRecording, []byte("rec"), "audio/wav")
	require.NoError(t, err)
	cl, err := p.Replace(ctx, SlotCloned, []byte("cl"), "audio/mpeg")
	require.NoError(t, err)

	require.NoError(t, p.ReleaseAll(ctx))

	for _, h := range []Handle{rec, cl} {
		_, err := os.Stat(h.Key)
		assert.True(t, os.IsNotExist(err))
	}
	assert.Empty(t, p.Snapshot())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LiveHandles))

	_, err = p.Replace(ctx, SlotRecording, []byte("late"), "audio/wav")
	assert.ErrorIs(t, err, ErrReleased)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LiveHandles))
}

func TestOpenMissingSlot(t *testing.T) {
	p, _, _ := newPlayer(t)
	_, _, err := p.Open(context.Background(), SlotCloned)
	assert.ErrorIs(t, err, ErrReleased)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	h, err := store.Put(ctx, "chat 42/es", []byte("mp3"), "audio/mpeg")
	require.NoError(t, err)
	assert.Contains(t, h.Key, "chat_42_es_")
	assert.Equal(t, ".mp3", h.Key[len(h.Key)-4:])
	assert.Equal(t, int64(3), h.Size)

	require.NoError(t, store.Release(ctx, h))
	require.NoError(t, store.Release(ctx, h))

	_, err = store.Open(ctx, h)
	assert.ErrorIs(t, err, ErrReleased)
}

func TestNewFileStoreTempDir(t *testing.T) {
	store, err := NewFileStore("")
	require.NoError(t, err)
	defer os.RemoveAll(store.Dir())

	info, err := os.Stat(store.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".mp3", Extension("audio/mpeg"))
	assert.Equal(t, ".wav", Extension("audio/wav"))
	assert.Equal(t, ".ogg", Extension("audio/ogg; codecs=opus"))
	assert.Equal(t, ".bin", Extension("application/octet-stream"))
}
