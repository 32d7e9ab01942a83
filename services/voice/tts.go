package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"voicedesk/utils"
)

const elevenBaseURL = "https://api.elevenlabs.io/v1/text-to-speech"

// TTSClient synthesizes speech through the ElevenLabs streaming endpoint.
type TTSClient struct {
	APIKey  string
	VoiceID string
	Client  *http.Client
}

func NewTTSClient(apiKey, voiceID string) *TTSClient {
	return &TTSClient{
		APIKey:  apiKey,
		VoiceID: voiceID,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to mp3 bytes, retrying once on failure. Callers
// treat an error as a cue to fall back to plain-text speech.
func (t *TTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		audio, err := t.synthesizeOnce(ctx, text)
		if err == nil {
			return audio, nil
		}
		lastErr = err
		utils.GetLogger().Warn("TTS attempt failed",
			zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, lastErr
}

func (t *TTSClient) synthesizeOnce(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: "eleven_turbo_v2",
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode TTS request: %w", err)
	}
	url := fmt.Sprintf("%s/%s/stream?optimize_streaming_latency=3", elevenBaseURL, t.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build TTS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", t.APIKey)
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS returned status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read TTS audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("TTS returned empty audio")
	}
	return audio, nil
}
