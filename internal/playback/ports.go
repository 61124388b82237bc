package playback

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrReleased = errors.New("playback handle released")

// Handle references a playable audio resource. It stays valid until released.
type Handle struct {
	ID        string    `json:"id"`
	Key       string    `json:"-"`
	MIMEType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store — где физически живут аудио-хэндлы (tmp-файлы или S3)
type Store interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (Handle, error)
	Open(ctx context.Context, h Handle) (io.ReadCloser, error)
	Release(ctx context.Context, h Handle) error
}
