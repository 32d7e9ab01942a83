package intelligence

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voicedesk/models"
)

type cannedModel struct {
	reply string
	err   error
	seen  []string
}

func (m *cannedModel) GenerateContent(_ context.Context, prompt string) (string, error) {
	m.seen = append(m.seen, prompt)
	return m.reply, m.err
}

func TestReplyExtractsActionAndKeepsHistory(t *testing.T) {
	ctx := context.Background()
	model := &cannedModel{reply: "A haircut, lovely.\nACTION_JSON: {\"action\":\"book\",\"service\":\"haircut\"}"}
	store := NewMemoryContextStore()
	svc := NewConversationService(model, store, "Shear Bliss", "Hamilton")

	spoken, action, err := svc.Reply(ctx, "call-1", "do you do haircuts?", models.BookingDraft{})
	if err != nil {
		t.Fatal(err)
	}
	if spoken != "A haircut, lovely." {
		t.Errorf("spoken = %q", spoken)
	}
	if action == nil || action.Action != models.ActionBook || action.Service != "haircut" {
		t.Errorf("action = %+v", action)
	}

	history, _ := store.Get(ctx, "call-1")
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[1].Content != "A haircut, lovely." {
		t.Errorf("assistant history entry = %q", history[1].Content)
	}

	// the second turn's prompt carries the first turn
	if _, _, err := svc.Reply(ctx, "call-1", "and colours?", models.BookingDraft{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(model.seen[1], "do you do haircuts?") {
		t.Error("second prompt missing prior history")
	}
}

func TestReplyModelFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	model := &cannedModel{err: errors.New("model down")}
	svc := NewConversationService(model, NewMemoryContextStore(), "Shear Bliss", "Hamilton")

	spoken, action, err := svc.Reply(ctx, "call-2", "hello?", models.BookingDraft{})
	if err != nil {
		t.Fatalf("model failure surfaced as error: %v", err)
	}
	if action != nil {
		t.Errorf("action on failure = %+v", action)
	}
	if spoken != fallbackReply {
		t.Errorf("spoken = %q, want fallback", spoken)
	}
}

func TestEndCallClearsHistory(t *testing.T) {
	ctx := context.Background()
	model := &cannedModel{reply: "Hello there."}
	store := NewMemoryContextStore()
	svc := NewConversationService(model, store, "Shear Bliss", "Hamilton")

	if _, _, err := svc.Reply(ctx, "call-4", "hi", models.BookingDraft{}); err != nil {
		t.Fatal(err)
	}
	if history, _ := store.Get(ctx, "call-4"); len(history) == 0 {
		t.Fatal("no history recorded before EndCall")
	}

	svc.EndCall(ctx, "call-4")
	if history, _ := store.Get(ctx, "call-4"); len(history) != 0 {
		t.Errorf("history survived EndCall: %d messages", len(history))
	}
}

func TestReplyKnownFieldsSuppressed(t *testing.T) {
	ctx := context.Background()
	model := &cannedModel{reply: "Sure."}
	svc := NewConversationService(model, NewMemoryContextStore(), "Shear Bliss", "Hamilton")

	known := models.BookingDraft{Service: models.ServiceColour, Stylist: "Cassidy"}
	if _, _, err := svc.Reply(ctx, "call-3", "anything", known); err != nil {
		t.Fatal(err)
	}
	prompt := model.seen[0]
	if !strings.Contains(prompt, "do not ask again") ||
		!strings.Contains(prompt, "colour") || !strings.Contains(prompt, "Cassidy") {
		t.Errorf("prompt missing known-field suppression: %q", prompt)
	}
}
