package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_translator/internal/backend"
	"github.com/Vovarama1992/voice_translator/internal/capture"
	"github.com/Vovarama1992/voice_translator/internal/config"
	"github.com/Vovarama1992/voice_translator/internal/models"
	"github.com/Vovarama1992/voice_translator/internal/notificator"
	"github.com/Vovarama1992/voice_translator/internal/playback"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "record", "translate-file", "clone"} {
		assert.True(t, names[want], "missing command %s", want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))

	clone, _, err := root.Find([]string{"clone"})
	require.NoError(t, err)
	assert.NotNil(t, clone.Flags().Lookup("text"))
	assert.NotNil(t, clone.Flags().Lookup("reference"))

	rec, _, err := root.Find([]string{"record"})
	require.NoError(t, err)
	assert.NotNil(t, rec.Flags().Lookup("duration"))
	assert.NotNil(t, rec.Flags().Lookup("speech-dir"))
}

func TestTranslateFileNeedsArgument(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"translate-file"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func testConfig(t *testing.T, extra map[string]string) *config.Config {
	t.Helper()
	environ := map[string]string{"PLAYBACK_DIR": t.TempDir()}
	for k, v := range extra {
		environ[k] = v
	}
	cfg, err := config.LoadFrom(environ)
	require.NoError(t, err)
	return cfg
}

func TestNewAppDefaults(t *testing.T) {
	cfg := testConfig(t, nil)
	a, err := newApp(context.Background(), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer a.close(context.Background())

	c, ok := a.backend.(*backend.HTTPClient)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:5000", c.BaseURL())

	fs, ok := a.store.(*playback.FileStore)
	require.True(t, ok)
	assert.Equal(t, cfg.Playback.Dir, fs.Dir())
	assert.NotNil(t, a.device)
}

func TestNewAppOpenAIProvider(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"BACKEND_PROVIDER":   "openai",
		"OPENAI_API_KEY":     "sk-test",
		"ELEVENLABS_API_KEY": "el-test",
	})
	a, err := newApp(context.Background(), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer a.close(context.Background())

	_, ok := a.backend.(*backend.OpenAIClient)
	assert.True(t, ok)
}

func TestTelegramSessionsHaveNoMicrophone(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t, nil), zap.NewNop().Sugar())
	require.NoError(t, err)
	defer a.close(context.Background())

	wf, err := a.sessions.GetOrCreate(notificator.TelegramSessionID(7))
	require.NoError(t, err)
	assert.ErrorIs(t, wf.StartRecording(context.Background()), capture.ErrPermissionDenied)
	assert.Equal(t, []models.Language{models.Spanish, models.French, models.Mandarin}, wf.Languages())
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	s := newConsoleSink(&buf)
	require.NoError(t, s.Notify(context.Background(), "s1", models.NewNotification(models.LevelError, "Upload failed")))
	assert.Equal(t, "[error] Upload failed\n", buf.String())
}

func TestSpeechFilenameFollowsMIMEType(t *testing.T) {
	assert.Equal(t, "speech_es.mp3", speechFilename(models.Spanish, playback.Handle{MIMEType: "audio/mpeg"}))
	assert.Equal(t, "speech_zh.wav", speechFilename(models.Mandarin, playback.Handle{MIMEType: "audio/wav"}))
}
