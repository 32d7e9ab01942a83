package intelligence

import (
	"context"
	"errors"

	"voicedesk/models"
)

// Generator produces a model completion for a prompt. Satisfied by the
// Gemini client; tests substitute a canned implementation.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// ContextStore persists a call's conversation history between turns.
type ContextStore interface {
	Get(ctx context.Context, callID string) ([]models.ChatMessage, error)
	Set(ctx context.Context, callID string, history []models.ChatMessage) error
	Clear(ctx context.Context, callID string) error
}

// DisabledGenerator stands in when no model is configured; every call
// errs, so replies come from the deterministic fallback line.
type DisabledGenerator struct{}

func (DisabledGenerator) GenerateContent(context.Context, string) (string, error) {
	return "", errors.New("no generative model configured")
}

// ConversationService answers utterances the deterministic flow could not,
// staying inside the booking domain and reporting structured intents.
// EndCall drops the call's stored history once the call is over.
type ConversationService interface {
	Reply(ctx context.Context, callID string, utterance string, known models.BookingDraft) (string, *models.AssistantAction, error)
	EndCall(ctx context.Context, callID string)
}
