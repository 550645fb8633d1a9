package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/flow"
	"github.com/aidekit/aide/internal/models"
	"github.com/aidekit/aide/internal/processor"
)

// Bot connects the Telegram update stream to the message processor and the
// flow manager.
type Bot struct {
	api       *tgbotapi.BotAPI
	processor *processor.Processor
	flows     *flow.Manager
	logger    *zap.Logger
}

func New(token string, proc *processor.Processor, flows *flow.Manager, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:       api,
		processor: proc,
		flows:     flows,
		logger:    logger,
	}, nil
}

// Start consumes updates until the context is cancelled. Each message is
// handled in its own goroutine; ordering within a channel is only
// guaranteed when the client awaits each turn.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}

	resp := b.processor.Process(ctx, processor.Input{
		Message:        content,
		UserID:         message.From.ID,
		ChannelID:      channelID(message.Chat.ID),
		ChannelContext: !message.Chat.IsPrivate(),
	})
	if resp.Skipped || resp.Message == nil {
		return
	}

	b.send(message.Chat.ID, resp.Message)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	chType := models.ChannelDirect
	if !message.Chat.IsPrivate() {
		chType = models.ChannelShared
	}

	switch message.Command() {
	case "start":
		res := b.flows.Start(channelID(message.Chat.ID), chType)
		b.sendText(message.Chat.ID, res.Notice)
	case "end":
		res := b.flows.End(channelID(message.Chat.ID))
		b.sendText(message.Chat.ID, res.Notice)
	case "help":
		b.sendText(message.Chat.ID, helpText)
	default:
		b.sendText(message.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

const helpText = `I keep your alerts, tasks and notes, and answer questions.

Structured commands:
.alert 10m water the plants
.task prepare deck -description finalize slides
.note call the plumber -tag home
.image a lighthouse at dusk
.q how do tides work

Shorthand: snooze, repeat, alerts, tasks, notes, set snooze 20m,
remind me in 20 minutes to stretch.

Prefix a message with + to store it without any interpretation.
/start begins a conversation session, /end closes it.`

// send renders a processor response as MarkdownV2, escaping the content so
// user-provided text cannot break the formatting.
func (b *Bot) send(chatID int64, msg *models.UserMessage) {
	out := tgbotapi.NewMessage(chatID, escapeMarkdown(msg.Content))
	out.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

// escapeMarkdown escapes the characters MarkdownV2 treats as special.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func channelID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// Deliverer adapts the bot API to the notification pipeline's chat channel.
type Deliverer struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

func NewDeliverer(b *Bot) *Deliverer {
	return &Deliverer{api: b.api, logger: b.logger}
}

func (d *Deliverer) Deliver(_ context.Context, channel, text string) error {
	chatID, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid channel id %q: %w", channel, err)
	}
	if _, err := d.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	return nil
}
