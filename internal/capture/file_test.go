package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

func TestMIMEType(t *testing.T) {
	tests := map[string]string{
		"voice.wav":  "audio/wav",
		"VOICE.MP3":  "audio/mpeg",
		"note.oga":   "audio/ogg",
		"memo.m4a":   "audio/mp4",
		"noext":      "application/octet-stream",
		"clip.webm":  "audio/webm",
		"track.flac": "audio/flac",
	}
	for name, want := range tests {
		assert.Equal(t, want, MIMEType(name), name)
	}
}

func TestAllowedExtension(t *testing.T) {
	assert.True(t, AllowedExtension("a.wav"))
	assert.True(t, AllowedExtension("a.M4A"))
	assert.False(t, AllowedExtension("a.webm"))
	assert.False(t, AllowedExtension("a"))
}

func TestFromFileAcceptsAnything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("definitely not audio"), 0o644))

	rec, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", rec.Filename)
	assert.Equal(t, models.SourceFile, rec.Source)
	assert.Equal(t, "definitely not audio", string(rec.Data))
}

func TestFromReaderEmpty(t *testing.T) {
	_, err := FromReader("a.wav", "audio/wav", strings.NewReader(""))
	assert.ErrorIs(t, err, models.ErrEmptyInput)
}

func TestFromReaderKeepsGivenType(t *testing.T) {
	rec, err := FromReader("a.bin", "audio/ogg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg", rec.MIMEType)
}

func TestEncodeWAVDropsHalfSample(t *testing.T) {
	wav, err := EncodeWAV([]byte{1, 2, 3}, 16000)
	require.NoError(t, err)
	assert.Len(t, wav, wavHeaderSize+2)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))

	_, err = EncodeWAV([]byte{1}, 16000)
	assert.Error(t, err)

	_, err = EncodeWAV([]byte{1, 2}, 0)
	assert.Error(t, err)
}
