package backend

import (
	"context"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

// Client — все операции удалённого бэкенда. Каждая — одна попытка, без ретраев.
type Client interface {
	Upload(ctx context.Context, rec *models.Recording) (models.UploadResult, error)
	Transcribe(ctx context.Context, rec *models.Recording) (models.TranscribeResult, error)
	Translate(ctx context.Context, text string, lang models.Language) (string, error)
	Synthesize(ctx context.Context, text string, lang models.Language) (models.Audio, error)
	CloneVoice(ctx context.Context, text string, reference *models.Recording) (models.Audio, error)
}

const (
	OpUpload     = "upload"
	OpTranscribe = "transcribe"
	OpTranslate  = "translate"
	OpSynthesize = "synthesize"
	OpCloneVoice = "clone-voice"
)
