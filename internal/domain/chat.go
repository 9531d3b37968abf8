package domain

// Chat roles accepted by the completion endpoint. The system role carries the
// instruction prefix and is never persisted as part of a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and LLM integrations. Immutable once created; a conversation is an ordered
// sequence of these.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
