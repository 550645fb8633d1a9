package models

import "time"

// HistoryLimit caps the stored conversation length to bound prompt size.
// Appending to a full history drops the oldest turns, they are never
// archived anywhere else.
const HistoryLimit = 20

// ChannelType distinguishes a private conversation from a shared channel.
type ChannelType string

const (
	ChannelDirect ChannelType = "direct"
	ChannelShared ChannelType = "shared"
)

// ConversationFlow is a channel-scoped conversation session. There is at
// most one non-deleted flow per channel at a time; the conversation store
// is the only owner of this document.
type ConversationFlow struct {
	ChannelID     string        `json:"channel_id"`
	ChannelType   ChannelType   `json:"channel_type"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Conversation  []UserMessage `json:"conversation"`
	SocketChannel string        `json:"socket_channel,omitempty"`
}

// Append adds a turn and trims the history to the newest HistoryLimit
// entries.
func (f *ConversationFlow) Append(msg UserMessage) {
	f.Conversation = append(f.Conversation, msg)
	if len(f.Conversation) > HistoryLimit {
		f.Conversation = f.Conversation[len(f.Conversation)-HistoryLimit:]
	}
	f.UpdatedAt = time.Now()
}
