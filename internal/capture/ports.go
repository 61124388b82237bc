package capture

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrPermissionDenied: the microphone could not be opened (declined, missing, busy).
	ErrPermissionDenied = errors.New("microphone access denied")
	ErrAlreadyCapturing = errors.New("capture already in progress")
)

// Device — источник звука (микрофон)
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream delivers audio until Stop is called; after Stop, Read drains and returns io.EOF.
type Stream interface {
	io.Reader
	Stop() error
}
