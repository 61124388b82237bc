package models

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"lukechampine.com/blake3"
)

// ErrEmptyInput — действие запрошено без записи или без текста
var ErrEmptyInput = errors.New("empty input")

type Source string

const (
	SourceMicrophone Source = "microphone"
	SourceFile       Source = "file"
	SourceTelegram   Source = "telegram"
)

// Recording is an immutable audio buffer. A newer recording supersedes it, never mutates it.
type Recording struct {
	ID        string
	Data      []byte
	MIMEType  string
	Filename  string
	Digest    string
	Source    Source
	CreatedAt time.Time
}

func NewRecording(data []byte, mimeType, filename string, src Source) *Recording {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if filename == "" {
		filename = "audio.wav"
	}
	sum := blake3.Sum256(data)
	return &Recording{
		ID:        uuid.NewString(),
		Data:      data,
		MIMEType:  mimeType,
		Filename:  filename,
		Digest:    hex.EncodeToString(sum[:]),
		Source:    src,
		CreatedAt: time.Now(),
	}
}

func (r *Recording) Size() int {
	if r == nil {
		return 0
	}
	return len(r.Data)
}

type TranscribeResult struct {
	Text             string          `json:"transcription"`
	ProcessingTime   decimal.Decimal `json:"processing_time"`
	DetectedLanguage string          `json:"detected_language,omitempty"`
}

type UploadResult struct {
	Path    string `json:"path"`
	Message string `json:"message,omitempty"`
}

// Audio — бинарный ответ бэкенда (synthesize / clone-voice)
type Audio struct {
	Data     []byte
	MIMEType string
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is a transient user-facing message, the toast of the original UI.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func NewNotification(level Level, msg string) Notification {
	return Notification{Level: level, Message: msg, At: time.Now()}
}
