package convostore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/models"
)

func newTestStore() *Store {
	return New(NewMemoryKV(), zap.NewNop())
}

func TestGetFlowAbsent(t *testing.T) {
	s := newTestStore()

	flow, err := s.GetFlow("C1")
	require.NoError(t, err)
	assert.Nil(t, flow)
}

func TestAppendTurnCreatesFlow(t *testing.T) {
	s := newTestStore()

	err := s.AppendTurn("C1", models.ChannelDirect, models.UserMessage{
		Role:    models.RoleUser,
		Content: "hello",
	})
	require.NoError(t, err)

	flow, err := s.GetFlow("C1")
	require.NoError(t, err)
	require.NotNil(t, flow)
	assert.Equal(t, "C1", flow.ChannelID)
	require.Len(t, flow.Conversation, 1)
	assert.Equal(t, "hello", flow.Conversation[0].Content)
}

func TestAppendTurnCapsHistory(t *testing.T) {
	s := newTestStore()

	for i := 0; i < models.HistoryLimit+5; i++ {
		err := s.AppendTurn("C1", models.ChannelDirect, models.UserMessage{
			Role:    models.RoleUser,
			Content: fmt.Sprintf("turn %d", i),
		})
		require.NoError(t, err)
	}

	flow, err := s.GetFlow("C1")
	require.NoError(t, err)
	require.NotNil(t, flow)
	require.Len(t, flow.Conversation, models.HistoryLimit)
	// oldest turns dropped, newest kept
	assert.Equal(t, "turn 5", flow.Conversation[0].Content)
	assert.Equal(t, fmt.Sprintf("turn %d", models.HistoryLimit+4),
		flow.Conversation[len(flow.Conversation)-1].Content)
}

func TestDeleteFlow(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.AppendTurn("C1", models.ChannelDirect, models.UserMessage{Content: "x"}))
	require.NoError(t, s.DeleteFlow("C1"))

	flow, err := s.GetFlow("C1")
	require.NoError(t, err)
	assert.Nil(t, flow)
}

func TestActiveChannels(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.AppendTurn("C1", models.ChannelDirect, models.UserMessage{Content: "x"}))
	require.NoError(t, s.AppendTurn("C2", models.ChannelShared, models.UserMessage{Content: "y"}))

	channels, err := s.ActiveChannels()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"C1", "C2"}, channels)
}

func TestPreferenceRoundTrip(t *testing.T) {
	s := newTestStore()

	pref, err := s.GetPreference(42)
	require.NoError(t, err)
	assert.Nil(t, pref)

	require.NoError(t, s.SavePreference(&models.AssistantPreference{
		UserID:               42,
		DefaultSnoozeMinutes: 25,
	}))

	pref, err = s.GetPreference(42)
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, 25, pref.DefaultSnoozeMinutes)
	assert.False(t, pref.UpdatedAt.IsZero())
}
