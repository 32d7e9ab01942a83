package voice

import (
	"context"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"voicedesk/utils"
)

// Synthesizer converts a line of text to audio bytes. *TTSClient is the
// production implementation.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// fillerLines buy time while a turn is being worked out in the background.
var fillerLines = []string{
	"One moment.",
	"Let me check that for you.",
	"Just a second.",
	"Okay, one sec.",
}

// RepeatPrompt is spoken when a poll token has expired and the caller needs
// to say it again.
const RepeatPrompt = "Sorry, could you say that again?"

const repeatClipID = "warm-repeat"

// Service bundles synthesis with the clip cache. Warm runs in the
// background while handlers serve calls, so the warmed-clip list is
// mutex-guarded.
type Service struct {
	TTS   Synthesizer
	Store *AudioStore

	mu        sync.Mutex
	fillerIDs []string
}

func NewService(tts Synthesizer, store *AudioStore) *Service {
	return &Service{TTS: tts, Store: store}
}

// Warm pre-synthesizes the filler and repeat clips so the first caller
// never waits on them. Best effort: a failed clip just falls back to text.
func (s *Service) Warm(ctx context.Context) {
	logger := utils.GetLogger()
	for i, line := range fillerLines {
		audio, err := s.TTS.Synthesize(ctx, line)
		if err != nil {
			logger.Warn("Failed to warm filler clip", zap.String("line", line), zap.Error(err))
			continue
		}
		id := "warm-filler-" + string(rune('a'+i))
		s.Store.PutNamed(id, audio)
		s.mu.Lock()
		s.fillerIDs = append(s.fillerIDs, id)
		s.mu.Unlock()
	}
	if audio, err := s.TTS.Synthesize(ctx, RepeatPrompt); err == nil {
		s.Store.PutNamed(repeatClipID, audio)
	} else {
		logger.Warn("Failed to warm repeat clip", zap.Error(err))
	}
}

// FillerClip picks a warmed filler clip id. ok is false when warming failed
// and the caller should fall back to speaking the filler text directly.
func (s *Service) FillerClip() (id, text string, ok bool) {
	text = fillerLines[rand.Intn(len(fillerLines))]
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fillerIDs) == 0 {
		return "", text, false
	}
	return s.fillerIDs[rand.Intn(len(s.fillerIDs))], text, true
}

// RepeatClip returns the warmed repeat-prompt clip id if available.
func (s *Service) RepeatClip() (string, bool) {
	if _, ok := s.Store.Get(repeatClipID); !ok {
		return "", false
	}
	return repeatClipID, true
}

// Say synthesizes a line and caches it, returning the clip id. An error
// means the caller should emit plain text instead.
func (s *Service) Say(ctx context.Context, text string) (string, error) {
	audio, err := s.TTS.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	return s.Store.Put(audio), nil
}
