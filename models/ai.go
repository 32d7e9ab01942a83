package models

// Chat roles used for conversation history persisted between turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is one entry of a call's conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Action names the structured intents the assistant may emit alongside speech.
const (
	ActionNone     = ""
	ActionBook     = "book"
	ActionTransfer = "transfer"
)

// AssistantAction is the structured payload extracted from a model reply.
// Fields are partial; empty strings mean the model did not supply them.
type AssistantAction struct {
	Action   string `json:"action"`
	Service  string `json:"service,omitempty"`
	Stylist  string `json:"stylist,omitempty"`
	Datetime string `json:"datetime,omitempty"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}
