package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/Vovarama1992/voice_translator/internal/models"
	"github.com/Vovarama1992/voice_translator/internal/playback"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseRecording    Phase = "recording"
	PhaseTranscribing Phase = "transcribing"
	PhaseTranslating  Phase = "translating"
)

var ErrInvalidTransition = errors.New("invalid state transition")

// transitions — разрешённые переходы. Новая запись может прийти, пока
// предыдущая ещё переводится: старые запросы не отменяются.
var transitions = map[Phase][]Phase{
	PhaseIdle:         {PhaseRecording, PhaseTranscribing},
	PhaseRecording:    {PhaseIdle},
	PhaseTranscribing: {PhaseTranslating, PhaseIdle, PhaseRecording, PhaseTranscribing},
	PhaseTranslating:  {PhaseIdle, PhaseRecording, PhaseTranscribing},
}

func canTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

func transitionError(from, to Phase) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

type RecordingInfo struct {
	ID        string        `json:"id"`
	Filename  string        `json:"filename"`
	MIMEType  string        `json:"mime_type"`
	Size      int           `json:"size"`
	Digest    string        `json:"digest"`
	Source    models.Source `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
}

func infoOf(rec *models.Recording) *RecordingInfo {
	return &RecordingInfo{
		ID:        rec.ID,
		Filename:  rec.Filename,
		MIMEType:  rec.MIMEType,
		Size:      rec.Size(),
		Digest:    rec.Digest,
		Source:    rec.Source,
		CreatedAt: rec.CreatedAt,
	}
}

// State is an immutable snapshot handed to subscribers.
type State struct {
	SessionID  string `json:"session_id"`
	Phase      Phase  `json:"phase"`
	Generation uint64 `json:"generation"`

	Recording      *RecordingInfo   `json:"recording,omitempty"`
	RecordingAudio *playback.Handle `json:"recording_audio,omitempty"`

	Transcription    string `json:"transcription"`
	ProcessingTime   string `json:"processing_time,omitempty"`
	DetectedLanguage string `json:"detected_language,omitempty"`

	Translations map[models.Language]string          `json:"translations"`
	Synthesizing map[models.Language]bool            `json:"synthesizing"`
	Speech       map[models.Language]playback.Handle `json:"speech"`

	Uploading  bool   `json:"uploading"`
	UploadPath string `json:"upload_path,omitempty"`

	Cloning bool             `json:"cloning"`
	Cloned  *playback.Handle `json:"cloned,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func newState(sessionID string) State {
	return State{
		SessionID:    sessionID,
		Phase:        PhaseIdle,
		Translations: map[models.Language]string{},
		Synthesizing: map[models.Language]bool{},
		Speech:       map[models.Language]playback.Handle{},
		UpdatedAt:    time.Now(),
	}
}

func (s State) clone() State {
	out := s
	out.Translations = make(map[models.Language]string, len(s.Translations))
	for k, v := range s.Translations {
		out.Translations[k] = v
	}
	out.Synthesizing = make(map[models.Language]bool, len(s.Synthesizing))
	for k, v := range s.Synthesizing {
		out.Synthesizing[k] = v
	}
	out.Speech = make(map[models.Language]playback.Handle, len(s.Speech))
	for k, v := range s.Speech {
		out.Speech[k] = v
	}
	if s.Recording != nil {
		r := *s.Recording
		out.Recording = &r
	}
	if s.RecordingAudio != nil {
		h := *s.RecordingAudio
		out.RecordingAudio = &h
	}
	if s.Cloned != nil {
		h := *s.Cloned
		out.Cloned = &h
	}
	return out
}

// Busy reports whether the automatic pipeline is still running.
func (s State) Busy() bool {
	return s.Phase == PhaseTranscribing || s.Phase == PhaseTranslating
}
