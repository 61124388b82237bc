package capture

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

var audioTypes = map[string]string{
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"m4a":  "audio/mp4",
	"webm": "audio/webm",
	"flac": "audio/flac",
}

// расширения, которые принимает бэкенд; остальное уйдёт как есть
var backendExtensions = map[string]bool{"wav": true, "mp3": true, "ogg": true, "m4a": true}

func ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// MIMEType guesses the content type from the file name.
func MIMEType(name string) string {
	e := ext(name)
	if t, ok := audioTypes[e]; ok {
		return t
	}
	if t := mime.TypeByExtension("." + e); e != "" && t != "" {
		return t
	}
	return "application/octet-stream"
}

// AllowedExtension reports whether the backend is known to accept the file.
// Nothing is rejected on this basis; bad audio surfaces as a backend error.
func AllowedExtension(name string) bool {
	return backendExtensions[ext(name)]
}

// FromReader treats arbitrary user-provided bytes as a Recording, no format validation.
func FromReader(name, mimeType string, r io.Reader) (*models.Recording, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, models.ErrEmptyInput
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = MIMEType(name)
	}
	return models.NewRecording(data, mimeType, filepath.Base(name), models.SourceFile), nil
}

func FromFile(path string) (*models.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()
	return FromReader(path, "", f)
}
