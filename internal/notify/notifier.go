package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/gateway"
	"github.com/aidekit/aide/internal/models"
)

// ChatDeliverer posts a notification into a chat channel.
type ChatDeliverer interface {
	Deliver(ctx context.Context, channelID, text string) error
}

// PushDeliverer sends a notification to a stored push subscription.
type PushDeliverer interface {
	Deliver(ctx context.Context, sub *models.PushSubscription, text string) error
}

// Notifier is the timer-driven delivery pipeline for due alerts. It is
// at-least-once: alerts are marked sent only after every delivery attempt,
// so a crash mid-run can duplicate a notification but never silently mark
// an alert nobody was told about.
type Notifier struct {
	alerts        gateway.Alerts
	subscriptions gateway.Subscriptions
	chat          ChatDeliverer
	push          PushDeliverer
	interval      time.Duration
	logger        *zap.Logger

	now func() time.Time
}

func New(alerts gateway.Alerts, subscriptions gateway.Subscriptions, chat ChatDeliverer, push PushDeliverer, interval time.Duration, logger *zap.Logger) *Notifier {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Notifier{
		alerts:        alerts,
		subscriptions: subscriptions,
		chat:          chat,
		push:          push,
		interval:      interval,
		logger:        logger,
		now:           time.Now,
	}
}

// Start runs the pipeline on a ticker until the context is cancelled.
func (n *Notifier) Start(ctx context.Context) {
	ticker := time.NewTicker(n.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce performs a single pipeline pass. A failed alert fetch turns the
// whole run into a logged no-op; per-alert delivery failures are isolated.
func (n *Notifier) RunOnce(ctx context.Context) {
	runID := uuid.New().String()

	due, err := n.alerts.ListDue(ctx, n.now())
	if err != nil {
		n.logger.Error("Failed to fetch due alerts, skipping run",
			zap.Error(err),
			zap.String("run_id", runID))
		return
	}
	if len(due) == 0 {
		return
	}

	delivered := make([]int64, 0, len(due))
	for _, alert := range due {
		n.deliver(ctx, alert)
		delivered = append(delivered, alert.ID)
	}

	// One batched update after all delivery attempts.
	if err := n.alerts.MarkSent(ctx, delivered); err != nil {
		n.logger.Error("Failed to mark alerts sent",
			zap.Error(err),
			zap.Int("count", len(delivered)))
		return
	}

	n.logger.Info("Alert run complete",
		zap.String("run_id", runID),
		zap.Int("due", len(due)),
		zap.Int("marked_sent", len(delivered)))
}

// deliver attempts the chat and push channels independently; the absence or
// failure of one never blocks the other.
func (n *Notifier) deliver(ctx context.Context, alert *models.Alert) {
	text := "⏰ Reminder: " + alert.Message

	if alert.ChannelID != "" && n.chat != nil {
		if err := n.chat.Deliver(ctx, alert.ChannelID, text); err != nil {
			n.logger.Error("Chat delivery failed",
				zap.Error(err),
				zap.Int64("alert_id", alert.ID),
				zap.String("channel_id", alert.ChannelID))
		}
	}

	if n.push == nil || n.subscriptions == nil {
		return
	}
	sub, err := n.subscriptions.Get(ctx, alert.UserID)
	if err != nil {
		n.logger.Error("Subscription lookup failed",
			zap.Error(err),
			zap.Int64("user_id", alert.UserID))
		return
	}
	if sub == nil {
		return
	}
	if err := n.push.Deliver(ctx, sub, text); err != nil {
		n.logger.Error("Push delivery failed",
			zap.Error(err),
			zap.Int64("alert_id", alert.ID),
			zap.Int64("user_id", alert.UserID))
	}
}
