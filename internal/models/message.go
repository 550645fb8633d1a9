package models

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// UserMessage is a single conversation turn. Messages are immutable once
// appended to a flow; insertion order is the timeline authority.
type UserMessage struct {
	Role         Role   `json:"role"`
	Content      string `json:"content"`
	Provider     string `json:"provider,omitempty"`
	UserID       int64  `json:"user_id,omitempty"`
	ContentBlock string `json:"content_block,omitempty"`
}

// Response is the envelope handed back to the transport layer after a turn
// has been processed. A nil Message with Skipped set means the user opted
// out of automation for this turn; a nil Message without Skipped means the
// engine had nothing to say.
type Response struct {
	Message *UserMessage `json:"response"`
	Skipped bool         `json:"skipped"`
}
