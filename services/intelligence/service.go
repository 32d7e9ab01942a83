package intelligence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"voicedesk/models"
	"voicedesk/utils"
)

const maxHistoryMessages = 20

// fallbackReply keeps the call moving when the model is down or slow.
const fallbackReply = "Sorry, I didn't quite catch that. Were you looking to book an appointment?"

// DefaultConversationService wraps the generative model with the salon
// persona, per-call history, and the structured-action contract.
type DefaultConversationService struct {
	Model     Generator
	Store     ContextStore
	SalonName string
	SalonCity string
}

func NewConversationService(model Generator, store ContextStore, salonName, salonCity string) *DefaultConversationService {
	return &DefaultConversationService{Model: model, Store: store, SalonName: salonName, SalonCity: salonCity}
}

// Reply sends the utterance plus history to the model and returns sanitized
// speech and any structured action. Model failure degrades to a canned
// re-engagement line; the turn never errors out to the caller.
func (s *DefaultConversationService) Reply(ctx context.Context, callID string, utterance string, known models.BookingDraft) (string, *models.AssistantAction, error) {
	logger := utils.GetLogger()

	history, err := s.Store.Get(ctx, callID)
	if err != nil {
		logger.Warn("Failed to load conversation history", zap.String("callID", callID), zap.Error(err))
		history = nil
	}

	prompt := s.buildPrompt(history, utterance, known)
	raw, err := s.Model.GenerateContent(ctx, prompt)
	if err != nil {
		logger.Warn("Model reply failed, using fallback", zap.String("callID", callID), zap.Error(err))
		return fallbackReply, nil, nil
	}

	spoken, action := ExtractAction(raw)
	spoken = SanitizeSpoken(spoken)
	if spoken == "" {
		spoken = fallbackReply
	}

	history = append(history,
		models.ChatMessage{Role: models.RoleUser, Content: utterance},
		models.ChatMessage{Role: models.RoleAssistant, Content: spoken},
	)
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	if err := s.Store.Set(ctx, callID, history); err != nil {
		logger.Warn("Failed to persist conversation history", zap.String("callID", callID), zap.Error(err))
	}
	return spoken, action, nil
}

// EndCall discards the call's history so nothing outlives the call beyond
// the store's own TTL safety net.
func (s *DefaultConversationService) EndCall(ctx context.Context, callID string) {
	if err := s.Store.Clear(ctx, callID); err != nil {
		utils.GetLogger().Warn("Failed to clear conversation history",
			zap.String("callID", callID), zap.Error(err))
	}
}

func (s *DefaultConversationService) buildPrompt(history []models.ChatMessage, utterance string, known models.BookingDraft) string {
	var sb strings.Builder
	sb.WriteString("You are the receptionist for ")
	sb.WriteString(s.SalonName)
	sb.WriteString(", a hair salon in ")
	sb.WriteString(s.SalonCity)
	sb.WriteString(". You answer the phone and book appointments. ")
	sb.WriteString("Keep replies to one or two short spoken sentences. ")
	sb.WriteString("Never read dates or times in machine formats. ")
	sb.WriteString("Stay on the topic of the salon and its appointments.\n")

	if fields := knownFields(known); len(fields) > 0 {
		sb.WriteString("Already known, do not ask again: ")
		sb.WriteString(strings.Join(fields, "; "))
		sb.WriteString(".\n")
	}

	sb.WriteString("If the caller commits to a booking detail, append a final line: ")
	sb.WriteString(actionMarker)
	sb.WriteString(` {"action":"book","service":"...","stylist":"...","datetime":"...","name":"...","phone":"..."}`)
	sb.WriteString(" with only the fields the caller just gave. ")
	sb.WriteString("If the caller needs a human, append: ")
	sb.WriteString(actionMarker)
	sb.WriteString(` {"action":"transfer"}` + "\n\n")

	for _, msg := range history {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}
	fmt.Fprintf(&sb, "%s: %s\n%s:", models.RoleUser, utterance, models.RoleAssistant)
	return sb.String()
}

func knownFields(d models.BookingDraft) []string {
	var fields []string
	if d.Service != "" {
		fields = append(fields, "service "+string(d.Service))
	}
	if d.Stylist != "" {
		fields = append(fields, "stylist "+d.Stylist)
	}
	if !d.DateTime.IsZero() {
		fields = append(fields, "appointment time "+d.DateTime.Format("Monday Jan 2 3:04 PM"))
	}
	if d.Name != "" {
		fields = append(fields, "caller name "+d.Name)
	}
	if d.Phone != "" {
		fields = append(fields, "phone number on file")
	}
	return fields
}
