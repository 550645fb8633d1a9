package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/gateway"
	"github.com/aidekit/aide/internal/models"
)

type recordingChat struct {
	calls []string
	fail  bool
}

func (r *recordingChat) Deliver(_ context.Context, channelID, text string) error {
	r.calls = append(r.calls, channelID+": "+text)
	if r.fail {
		return errors.New("chat down")
	}
	return nil
}

type recordingPush struct {
	calls []string
}

func (r *recordingPush) Deliver(_ context.Context, sub *models.PushSubscription, text string) error {
	r.calls = append(r.calls, sub.Endpoint+": "+text)
	return nil
}

type failingAlerts struct {
	gateway.Alerts
}

func (failingAlerts) ListDue(context.Context, time.Time) ([]*models.Alert, error) {
	return nil, errors.New("db down")
}

func seedAlerts(t *testing.T, alerts *gateway.MemoryAlerts, due ...*models.Alert) {
	t.Helper()
	for _, a := range due {
		require.NoError(t, alerts.Create(context.Background(), a))
	}
}

func TestRunOnceDeliversAndMarksBatch(t *testing.T) {
	ctx := context.Background()
	alerts := gateway.NewMemoryAlerts()
	subs := gateway.NewMemorySubscriptions()
	chat := &recordingChat{}
	push := &recordingPush{}

	past := time.Now().Add(-time.Minute)
	seedAlerts(t, alerts,
		&models.Alert{UserID: 1, ChannelID: "C1", Message: "with channel", Date: past},
		&models.Alert{UserID: 2, Message: "no destination", Date: past},
	)

	n := New(alerts, subs, chat, push, time.Minute, zap.NewNop())
	n.RunOnce(ctx)

	// exactly one chat delivery, both alerts marked sent
	require.Len(t, chat.calls, 1)
	assert.Contains(t, chat.calls[0], "with channel")
	assert.Empty(t, push.calls)

	remaining, err := alerts.ListDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRunOnceDeliversPushIndependently(t *testing.T) {
	ctx := context.Background()
	alerts := gateway.NewMemoryAlerts()
	subs := gateway.NewMemorySubscriptions()
	subs.Set(7, &models.PushSubscription{UserID: 7, Endpoint: "https://push.example/7"})
	chat := &recordingChat{fail: true}
	push := &recordingPush{}

	seedAlerts(t, alerts,
		&models.Alert{UserID: 7, ChannelID: "C9", Message: "both destinations", Date: time.Now().Add(-time.Second)},
	)

	n := New(alerts, subs, chat, push, time.Minute, zap.NewNop())
	n.RunOnce(ctx)

	// chat failed but push still went out, and the alert is still marked
	require.Len(t, push.calls, 1)
	assert.Contains(t, push.calls[0], "both destinations")

	remaining, err := alerts.ListDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRunOnceSkipsFutureAlerts(t *testing.T) {
	ctx := context.Background()
	alerts := gateway.NewMemoryAlerts()
	chat := &recordingChat{}

	seedAlerts(t, alerts,
		&models.Alert{UserID: 1, ChannelID: "C1", Message: "later", Date: time.Now().Add(time.Hour)},
	)

	n := New(alerts, gateway.NewMemorySubscriptions(), chat, nil, time.Minute, zap.NewNop())
	n.RunOnce(ctx)

	assert.Empty(t, chat.calls)
	remaining, err := alerts.ListPending(ctx, 1, gateway.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestRunOnceFetchErrorIsNoOp(t *testing.T) {
	chat := &recordingChat{}
	n := New(failingAlerts{}, gateway.NewMemorySubscriptions(), chat, nil, time.Minute, zap.NewNop())

	n.RunOnce(context.Background())

	assert.Empty(t, chat.calls)
}
