package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStore keeps each handle as a file in a private directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates dir if needed; an empty dir means a fresh temp directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := os.MkdirTemp("", "voice-playback-")
		if err != nil {
			return nil, fmt.Errorf("create playback dir: %w", err)
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create playback dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Put(_ context.Context, key string, data []byte, mimeType string) (Handle, error) {
	id := uuid.NewString()
	name := sanitize(key) + "_" + id + Extension(mimeType)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Handle{}, fmt.Errorf("write playback file: %w", err)
	}

	return Handle{
		ID:        id,
		Key:       path,
		MIMEType:  mimeType,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
	}, nil
}

func (s *FileStore) Open(_ context.Context, h Handle) (io.ReadCloser, error) {
	f, err := os.Open(h.Key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrReleased
	}
	return f, err
}

// Release is idempotent: a missing file is already released.
func (s *FileStore) Release(_ context.Context, h Handle) error {
	if err := os.Remove(h.Key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove playback file: %w", err)
	}
	return nil
}

func sanitize(key string) string {
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, key)
	if key == "" {
		return "audio"
	}
	return key
}

// Extension maps an audio MIME type to a file extension, ".bin" when unknown.
func Extension(mimeType string) string {
	switch strings.SplitN(mimeType, ";", 2)[0] {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4":
		return ".m4a"
	case "audio/webm":
		return ".webm"
	}
	return ".bin"
}
