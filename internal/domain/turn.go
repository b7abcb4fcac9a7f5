package domain

// Role identifies the author of a conversation turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn represents a single role-tagged message in a conversation history
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
