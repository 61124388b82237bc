package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_translator/internal/backend"
	"github.com/Vovarama1992/voice_translator/internal/capture"
	"github.com/Vovarama1992/voice_translator/internal/metrics"
	"github.com/Vovarama1992/voice_translator/internal/models"
	"github.com/Vovarama1992/voice_translator/internal/playback"
)

// Capturer is the live-capture side of the workflow.
type Capturer interface {
	Start(ctx context.Context) error
	Stop() (*models.Recording, error)
	Active() bool
}

type Notifier interface {
	Notify(ctx context.Context, sessionID string, n models.Notification) error
}

type Deps struct {
	Backend   backend.Client
	Capturer  Capturer // nil: no microphone for this session
	Player    *playback.Player
	Notifier  Notifier
	Languages []models.Language
	// Parallel runs the translate calls concurrently instead of one at a time.
	Parallel bool
	Metrics  *metrics.Metrics
	Log      *zap.SugaredLogger
}

// Workflow drives Idle -> Recording -> Transcribing -> Translating for one session,
// plus the user-triggered per-language speech synthesis.
type Workflow struct {
	id    string
	store *Store
	deps  Deps
	log   *zap.SugaredLogger

	mu        sync.Mutex
	recording *models.Recording
	closed    bool
	// speech serialises GenerateSpeech per language: player slot and state are updated together.
	speech map[models.Language]*sync.Mutex

	tasks sync.WaitGroup
}

func NewWorkflow(sessionID string, deps Deps) *Workflow {
	if len(deps.Languages) == 0 {
		deps.Languages = models.DefaultLanguages
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Workflow{
		id:     sessionID,
		store:  NewStore(sessionID),
		deps:   deps,
		log:    log.With("session", sessionID),
		speech: make(map[models.Language]*sync.Mutex),
	}
}

func (w *Workflow) ID() string { return w.id }

func (w *Workflow) State() State { return w.store.Snapshot() }

func (w *Workflow) Subscribe(fn func(State)) func() { return w.store.Subscribe(fn) }

func (w *Workflow) Languages() []models.Language { return w.deps.Languages }

// Recording returns the current (latest) recording, nil before the first one.
func (w *Workflow) Recording() *models.Recording {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.recording
}

// Wait blocks until every background task started so far has finished.
func (w *Workflow) Wait() { w.tasks.Wait() }

// StartRecording opens the microphone. On failure the phase is unchanged.
func (w *Workflow) StartRecording(ctx context.Context) error {
	if st := w.store.Snapshot(); !canTransition(st.Phase, PhaseRecording) {
		return transitionError(st.Phase, PhaseRecording)
	}

	if w.deps.Capturer == nil {
		w.notifyError(ctx, "Microphone access denied!")
		return capture.ErrPermissionDenied
	}
	if err := w.deps.Capturer.Start(ctx); err != nil {
		w.log.Warnw("[recorder] start capture failed", "error", err)
		w.notifyError(ctx, "Microphone access denied!")
		return err
	}

	if err := w.store.transition(PhaseRecording); err != nil {
		_, _ = w.deps.Capturer.Stop()
		return err
	}
	return nil
}

// StopRecording finalizes capture. An empty capture yields no Recording and
// nothing else happens; otherwise transcription starts automatically.
func (w *Workflow) StopRecording(ctx context.Context) (*models.Recording, error) {
	if w.deps.Capturer == nil || w.store.Snapshot().Phase != PhaseRecording {
		return nil, transitionError(w.store.Snapshot().Phase, PhaseIdle)
	}

	rec, err := w.deps.Capturer.Stop()
	if terr := w.store.transition(PhaseIdle); terr != nil {
		w.log.Warnw("[recorder] stop transition", "error", terr)
	}
	if err != nil {
		w.notifyError(ctx, "Recording failed!")
		return nil, err
	}
	if rec == nil {
		w.log.Infow("[recorder] empty recording ignored")
		return nil, nil
	}

	if err := w.SubmitRecording(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SubmitRecording supersedes the current recording with rec (live capture or a
// selected file) and runs transcribe -> translate in the background.
func (w *Workflow) SubmitRecording(ctx context.Context, rec *models.Recording) error {
	if rec == nil || len(rec.Data) == 0 {
		w.notifyError(ctx, "No audio to transcribe.")
		return models.ErrEmptyInput
	}
	if st := w.store.Snapshot(); !canTransition(st.Phase, PhaseTranscribing) {
		return transitionError(st.Phase, PhaseTranscribing)
	}

	var audio *playback.Handle
	if w.deps.Player != nil {
		h, err := w.deps.Player.Replace(ctx, playback.SlotRecording, rec.Data, rec.MIMEType)
		if err != nil {
			w.log.Warnw("[recorder] playback handle for recording", "error", err)
		} else {
			audio = &h
		}
	}

	gen, err := w.store.setRecording(rec, audio)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.recording = rec
	w.mu.Unlock()

	w.deps.Metrics.ObserveRecording(string(rec.Source), rec.Size())
	w.log.Infow("[recorder] recording submitted", "gen", gen, "recording", rec.ID, "size", rec.Size(), "source", rec.Source)

	bg := context.WithoutCancel(ctx)
	w.tasks.Add(1)
	go func() {
		defer w.tasks.Done()
		w.runPipeline(bg, gen, rec)
	}()
	return nil
}

func (w *Workflow) runPipeline(ctx context.Context, gen uint64, rec *models.Recording) {
	res, err := w.deps.Backend.Transcribe(ctx, rec)
	if err != nil {
		w.log.Warnw("[recorder] transcribe failed", "gen", gen, "error", err)
		w.notifyError(ctx, "Failed to transcribe audio: "+backend.Reason(err))
		w.store.transitionIf(gen, PhaseTranscribing, PhaseIdle)
		return
	}

	if !w.store.setTranscription(gen, res) {
		w.log.Infow("[recorder] stale transcription dropped", "gen", gen)
		return
	}
	w.notifySuccess(ctx, "Transcription successful!")

	if strings.TrimSpace(res.Text) == "" {
		w.notifyInfo(ctx, "No speech recognized, nothing to translate.")
		w.store.transitionIf(gen, PhaseTranscribing, PhaseIdle)
		return
	}

	w.store.transitionIf(gen, PhaseTranscribing, PhaseTranslating)
	w.translateAll(ctx, gen, res.Text)
	w.store.transitionIf(gen, PhaseTranslating, PhaseIdle)
}

// translateAll commits each language as soon as it is done. A failed language
// never blocks or rolls back the others.
func (w *Workflow) translateAll(ctx context.Context, gen uint64, text string) {
	if !w.deps.Parallel {
		for _, lang := range w.deps.Languages {
			if !w.translateOne(ctx, gen, text, lang) {
				return
			}
		}
		return
	}

	var wg sync.WaitGroup
	for _, lang := range w.deps.Languages {
		wg.Add(1)
		go func(lang models.Language) {
			defer wg.Done()
			w.translateOne(ctx, gen, text, lang)
		}(lang)
	}
	wg.Wait()
}

// translateOne returns false once the generation went stale.
func (w *Workflow) translateOne(ctx context.Context, gen uint64, text string, lang models.Language) bool {
	out, err := w.deps.Backend.Translate(ctx, text, lang)
	w.deps.Metrics.ObserveTranslation(string(lang), err)
	if err != nil {
		w.log.Warnw("[recorder] translate failed", "gen", gen, "lang", lang, "error", err)
		w.notifyError(ctx, fmt.Sprintf("Failed to translate to %s: %s", lang.Name(), backend.Reason(err)))
		return w.store.Snapshot().Generation == gen
	}
	if !w.store.putTranslation(gen, lang, out) {
		w.log.Infow("[recorder] stale translation dropped", "gen", gen, "lang", lang)
		return false
	}
	return true
}

// GenerateSpeech synthesizes the current translation for lang. It is
// independent of the pipeline phase and of other languages.
func (w *Workflow) GenerateSpeech(ctx context.Context, lang models.Language) (playback.Handle, error) {
	if !lang.Valid() {
		return playback.Handle{}, fmt.Errorf("%w: %q", models.ErrUnsupportedLanguage, lang)
	}
	lock := w.speechLock(lang)
	lock.Lock()
	defer lock.Unlock()

	text := w.store.Snapshot().Translations[lang]
	if strings.TrimSpace(text) == "" {
		w.notifyError(ctx, fmt.Sprintf("No %s translation to speak yet.", lang.Name()))
		return playback.Handle{}, models.ErrEmptyInput
	}

	ctx = context.WithoutCancel(ctx)
	w.tasks.Add(1)
	defer w.tasks.Done()

	w.store.setSynthesizing(lang, true)
	defer w.store.setSynthesizing(lang, false)

	audio, err := w.deps.Backend.Synthesize(ctx, text, lang)
	w.deps.Metrics.ObserveSpeech(string(lang), err)
	if err != nil {
		w.log.Warnw("[recorder] synthesize failed", "lang", lang, "error", err)
		w.notifyError(ctx, fmt.Sprintf("Failed to generate speech for %s: %s", lang.Name(), backend.Reason(err)))
		return playback.Handle{}, err
	}

	h, err := w.toPlayer(ctx, playback.LanguageSlot(lang), audio)
	if err != nil {
		return playback.Handle{}, err
	}
	w.store.setSpeech(lang, h)
	w.notifySuccess(ctx, fmt.Sprintf("Speech generated for %s!", lang.Name()))
	return h, nil
}

func (w *Workflow) speechLock(lang models.Language) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.speech[lang]
	if !ok {
		m = &sync.Mutex{}
		w.speech[lang] = m
	}
	return m
}

// Upload sends the current recording to the backend's /upload.
func (w *Workflow) Upload(ctx context.Context) (models.UploadResult, error) {
	rec := w.Recording()
	if rec == nil {
		w.notifyError(ctx, "Record or select audio before uploading.")
		return models.UploadResult{}, models.ErrEmptyInput
	}

	ctx = context.WithoutCancel(ctx)
	w.tasks.Add(1)
	defer w.tasks.Done()

	w.store.setUploading(true, "")
	res, err := w.deps.Backend.Upload(ctx, rec)
	if err != nil {
		w.store.setUploading(false, "")
		w.log.Warnw("[recorder] upload failed", "recording", rec.ID, "error", err)
		w.notifyError(ctx, "Upload failed: "+backend.Reason(err))
		return models.UploadResult{}, err
	}
	w.store.setUploading(false, res.Path)
	w.notifySuccess(ctx, "Upload successful!")
	return res, nil
}

// CloneVoice speaks text in the voice of reference. Failures come back as
// errors with their reason; the result goes to the "cloned" playback slot.
func (w *Workflow) CloneVoice(ctx context.Context, text string, reference *models.Recording) (playback.Handle, error) {
	if strings.TrimSpace(text) == "" || reference == nil || len(reference.Data) == 0 {
		w.notifyError(ctx, "Please enter text and upload a reference audio file.")
		return playback.Handle{}, models.ErrEmptyInput
	}

	ctx = context.WithoutCancel(ctx)
	w.tasks.Add(1)
	defer w.tasks.Done()

	w.store.setCloning(true)
	defer w.store.setCloning(false)

	audio, err := w.deps.Backend.CloneVoice(ctx, text, reference)
	if err != nil {
		w.log.Warnw("[recorder] clone voice failed", "error", err)
		w.notifyError(ctx, "Voice cloning failed: "+backend.Reason(err))
		return playback.Handle{}, err
	}

	h, err := w.toPlayer(ctx, playback.SlotCloned, audio)
	if err != nil {
		return playback.Handle{}, err
	}
	w.store.setCloned(h)
	return h, nil
}

// TranslationText is the downloadable text of one translation.
func (w *Workflow) TranslationText(lang models.Language) (string, error) {
	text := w.store.Snapshot().Translations[lang]
	if text == "" {
		return "", models.ErrEmptyInput
	}
	return text, nil
}

func TranslationFilename(lang models.Language) string {
	return "translation_" + lang.Name() + ".txt"
}

// OpenAudio streams the bytes behind a playback slot.
func (w *Workflow) OpenAudio(ctx context.Context, slot playback.Slot) (io.ReadCloser, playback.Handle, error) {
	if w.deps.Player == nil {
		return nil, playback.Handle{}, playback.ErrReleased
	}
	return w.deps.Player.Open(ctx, slot)
}

// Close tears the session down and releases every playback handle. In-flight
// backend calls are not cancelled; whatever they commit later is released at once.
func (w *Workflow) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if w.deps.Capturer != nil && w.deps.Capturer.Active() {
		_, _ = w.deps.Capturer.Stop()
	}
	w.store.unsubscribeAll()

	if w.deps.Player == nil {
		return nil
	}
	return w.deps.Player.ReleaseAll(ctx)
}

func (w *Workflow) toPlayer(ctx context.Context, slot playback.Slot, audio models.Audio) (playback.Handle, error) {
	if w.deps.Player == nil {
		return playback.Handle{}, errors.New("no playback store")
	}
	h, err := w.deps.Player.Replace(ctx, slot, audio.Data, audio.MIMEType)
	if err != nil {
		w.log.Warnw("[recorder] store playback handle", "slot", slot, "error", err)
		if !errors.Is(err, playback.ErrReleased) {
			w.notifyError(ctx, "Could not prepare audio for playback.")
		}
		return playback.Handle{}, err
	}
	return h, nil
}

func (w *Workflow) notify(ctx context.Context, level models.Level, msg string) {
	if w.deps.Notifier == nil {
		return
	}
	if err := w.deps.Notifier.Notify(ctx, w.id, models.NewNotification(level, msg)); err != nil {
		w.log.Warnw("[recorder] notify failed", "error", err)
	}
}

func (w *Workflow) notifySuccess(ctx context.Context, msg string) { w.notify(ctx, models.LevelSuccess, msg) }
func (w *Workflow) notifyInfo(ctx context.Context, msg string)    { w.notify(ctx, models.LevelInfo, msg) }
func (w *Workflow) notifyError(ctx context.Context, msg string)   { w.notify(ctx, models.LevelError, msg) }
