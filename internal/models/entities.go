package models

import "time"

// Alert is a scheduled reminder. The notification pipeline is the only part
// of the engine that mutates it, and the only mutation is flipping Sent.
type Alert struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Date      time.Time `json:"date"`
	Sent      bool      `json:"sent"`
	UserID    int64     `json:"user_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is a to-do item.
type Task struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Resolved    bool       `json:"resolved"`
	Due         *time.Time `json:"due,omitempty"`
	ChannelID   string     `json:"channel_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Note is a free-form memo with optional tags.
type Note struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	ChannelID string    `json:"channel_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageRecord keeps the prompt and resulting URL of a generated image.
type ImageRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Prompt    string    `json:"prompt"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// AssistantPreference holds per-user defaults. Created lazily on first
// customization, read on every snooze-default use.
type AssistantPreference struct {
	UserID               int64     `json:"user_id"`
	DefaultSnoozeMinutes int       `json:"default_snooze_minutes"`
	LastDigest           string    `json:"last_digest,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// PushSubscription is the stored destination for push deliveries.
type PushSubscription struct {
	UserID   int64             `json:"user_id"`
	Endpoint string            `json:"endpoint"`
	Keys     map[string]string `json:"keys,omitempty"`
}
