package recorder

import (
	"sync"
	"time"

	"github.com/Vovarama1992/voice_translator/internal/models"
	"github.com/Vovarama1992/voice_translator/internal/playback"
)

// Store holds one session's state. All writes go through the setters below;
// every accepted write publishes a fresh snapshot to subscribers, in order.
// Subscribers must not call back into the store.
type Store struct {
	pub sync.Mutex // serialises publication order
	mu  sync.Mutex

	state  State
	subs   map[int]func(State)
	nextID int
}

func NewStore(sessionID string) *Store {
	return &Store{state: newState(sessionID), subs: make(map[int]func(State))}
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn for every future snapshot and returns the unsubscribe func.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) unsubscribeAll() {
	s.mu.Lock()
	s.subs = make(map[int]func(State))
	s.mu.Unlock()
}

// update applies fn under the lock; fn reports whether it changed anything.
func (s *Store) update(fn func(st *State) bool) bool {
	s.pub.Lock()
	defer s.pub.Unlock()

	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	s.state.UpdatedAt = time.Now()
	snap := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
	return true
}

// transition moves to `to` if the table allows it from the current phase.
func (s *Store) transition(to Phase) error {
	var err error
	s.update(func(st *State) bool {
		if !canTransition(st.Phase, to) {
			err = transitionError(st.Phase, to)
			return false
		}
		st.Phase = to
		return true
	})
	return err
}

// transitionIf moves from -> to only while gen is still current and the
// phase has not been changed by the user in the meantime.
func (s *Store) transitionIf(gen uint64, from, to Phase) bool {
	return s.update(func(st *State) bool {
		if st.Generation != gen || st.Phase != from || !canTransition(from, to) {
			return false
		}
		st.Phase = to
		return true
	})
}

// setRecording supersedes the current recording and starts transcription.
// Earlier transcription and translations stay visible until overwritten.
func (s *Store) setRecording(rec *models.Recording, audio *playback.Handle) (uint64, error) {
	var (
		gen uint64
		err error
	)
	s.update(func(st *State) bool {
		if !canTransition(st.Phase, PhaseTranscribing) {
			err = transitionError(st.Phase, PhaseTranscribing)
			return false
		}
		st.Generation++
		gen = st.Generation
		st.Phase = PhaseTranscribing
		st.Recording = infoOf(rec)
		st.RecordingAudio = audio
		st.UploadPath = ""
		return true
	})
	return gen, err
}

// setTranscription stores the text and resets the translation set.
func (s *Store) setTranscription(gen uint64, res models.TranscribeResult) bool {
	return s.update(func(st *State) bool {
		if st.Generation != gen {
			return false
		}
		st.Transcription = res.Text
		st.ProcessingTime = ""
		if !res.ProcessingTime.IsZero() {
			st.ProcessingTime = res.ProcessingTime.String()
		}
		st.DetectedLanguage = res.DetectedLanguage
		st.Translations = map[models.Language]string{}
		return true
	})
}

func (s *Store) putTranslation(gen uint64, lang models.Language, text string) bool {
	return s.update(func(st *State) bool {
		if st.Generation != gen {
			return false
		}
		st.Translations[lang] = text
		return true
	})
}

func (s *Store) setSynthesizing(lang models.Language, on bool) {
	s.update(func(st *State) bool {
		if st.Synthesizing[lang] == on {
			return false
		}
		if on {
			st.Synthesizing[lang] = true
		} else {
			delete(st.Synthesizing, lang)
		}
		return true
	})
}

func (s *Store) setSpeech(lang models.Language, h playback.Handle) {
	s.update(func(st *State) bool {
		st.Speech[lang] = h
		return true
	})
}

func (s *Store) setUploading(on bool, path string) {
	s.update(func(st *State) bool {
		st.Uploading = on
		if path != "" {
			st.UploadPath = path
		}
		return true
	})
}

func (s *Store) setCloning(on bool) {
	s.update(func(st *State) bool {
		if st.Cloning == on {
			return false
		}
		st.Cloning = on
		return true
	})
}

func (s *Store) setCloned(h playback.Handle) {
	s.update(func(st *State) bool {
		st.Cloned = &h
		return true
	})
}
