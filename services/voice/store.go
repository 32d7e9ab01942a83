package voice

import (
	"sync"

	"github.com/google/uuid"
)

// maxClips bounds the in-memory audio cache; the oldest clip is evicted
// when a new one would exceed it.
const maxClips = 300

// AudioStore holds synthesized clips keyed by id until the telephony
// provider fetches them.
type AudioStore struct {
	mu    sync.Mutex
	clips map[string][]byte
	order []string
}

func NewAudioStore() *AudioStore {
	return &AudioStore{clips: make(map[string][]byte)}
}

// Put caches a clip and returns its id.
func (s *AudioStore) Put(audio []byte) string {
	id := uuid.NewString()
	s.PutNamed(id, audio)
	return id
}

// PutNamed caches a clip under a caller-chosen id, used for the pre-warmed
// filler clips whose ids must be stable.
func (s *AudioStore) PutNamed(id string, audio []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clips[id]; !exists {
		s.order = append(s.order, id)
	}
	s.clips[id] = audio
	for len(s.order) > maxClips {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.clips, oldest)
	}
}

// Get returns a cached clip.
func (s *AudioStore) Get(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	audio, ok := s.clips[id]
	return audio, ok
}

// Len reports the number of cached clips.
func (s *AudioStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
}
