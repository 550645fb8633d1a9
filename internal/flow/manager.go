package flow

import (
	"time"

	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/convostore"
	"github.com/aidekit/aide/internal/models"
)

const (
	noticeAlreadyRunning = "A conversation is already running in this channel."
	noticeStarted        = "Conversation started. I will remember this channel's history until you end it."
	noticeNotRunning     = "There is no conversation running in this channel."
	noticeEnded          = "Conversation ended. The channel's history has been cleared."
	noticeUnavailable    = "Sorry, I couldn't reach the conversation state. Please try again later."
)

// Result is the outcome of a lifecycle transition. Failed means the backing
// store misbehaved; the caller must treat it as "try again later", not as a
// completed state change.
type Result struct {
	Flow   *models.ConversationFlow
	Notice string
	Failed bool
}

// Manager owns the start/active/end life cycle of a channel's conversation
// session. A channel is "active" exactly when a flow document exists.
type Manager struct {
	store  *convostore.Store
	logger *zap.Logger
}

func NewManager(store *convostore.Store, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Start creates a fresh flow for the channel. Starting an already active
// channel is a no-op that reports the existing flow.
func (m *Manager) Start(channelID string, channelType models.ChannelType) Result {
	existing, err := m.store.GetFlow(channelID)
	if err != nil {
		m.logger.Error("Failed to read flow on start",
			zap.Error(err),
			zap.String("channel_id", channelID))
		return Result{Notice: noticeUnavailable, Failed: true}
	}
	if existing != nil {
		return Result{Flow: existing, Notice: noticeAlreadyRunning}
	}

	now := time.Now()
	fresh := &models.ConversationFlow{
		ChannelID:   channelID,
		ChannelType: channelType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.SaveFlow(fresh); err != nil {
		m.logger.Error("Failed to persist new flow",
			zap.Error(err),
			zap.String("channel_id", channelID))
		return Result{Notice: noticeUnavailable, Failed: true}
	}

	return Result{Flow: fresh, Notice: noticeStarted}
}

// End deletes the channel's flow. Ending an inactive channel is a no-op and
// performs no delete call.
func (m *Manager) End(channelID string) Result {
	existing, err := m.store.GetFlow(channelID)
	if err != nil {
		m.logger.Error("Failed to read flow on end",
			zap.Error(err),
			zap.String("channel_id", channelID))
		return Result{Notice: noticeUnavailable, Failed: true}
	}
	if existing == nil {
		return Result{Notice: noticeNotRunning}
	}

	if err := m.store.DeleteFlow(channelID); err != nil {
		m.logger.Error("Failed to delete flow",
			zap.Error(err),
			zap.String("channel_id", channelID))
		return Result{Notice: noticeUnavailable, Failed: true}
	}

	return Result{Notice: noticeEnded}
}

// Context is a pure read of the channel's flow; it never creates state.
// A nil flow with a nil error means the channel has no active session.
func (m *Manager) Context(channelID string) (*models.ConversationFlow, error) {
	return m.store.GetFlow(channelID)
}
