package processor

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/completion"
	"github.com/aidekit/aide/internal/convostore"
	"github.com/aidekit/aide/internal/gateway"
	"github.com/aidekit/aide/internal/models"
	"github.com/aidekit/aide/internal/parser"
)

const (
	skipPrefix     = "+"
	providerEngine = "aide"
)

const (
	msgEmpty          = "I didn't catch that. Say something and I'll do my best."
	msgGenericFailure = "Sorry, something went wrong handling that. Please try again."
	msgBackendDown    = "Sorry, I'm having trouble thinking right now. Please try again in a bit."
	msgNotUnderstood  = "Sorry, I couldn't work out what you want me to do. Try `.alert`, `.task`, `.note`, `.image` or `.question`."
)

// Input is one inbound turn handed to the processor.
type Input struct {
	Message string
	UserID  int64
	// ChannelID identifies the conversation; for direct messages it is the
	// user's private channel.
	ChannelID string
	// ChannelContext is true when the interaction happens inside a shared
	// channel, which scopes domain queries to that channel.
	ChannelContext bool
	// History, when non-nil, overrides the stored conversation history for
	// this turn's completions.
	History []models.UserMessage
}

// Processor orchestrates a single turn: skip-AI detection, deterministic
// shorthand commands, structured-variable dispatch and the intent fallback
// through the completion backend.
type Processor struct {
	store     *convostore.Store
	backend   completion.Backend
	alerts    gateway.Alerts
	tasks     gateway.Tasks
	notes     gateway.Notes
	images    gateway.Images
	generator gateway.Generator
	logger    *zap.Logger

	defaultSnooze time.Duration
	now           func() time.Time
}

// Deps bundles the collaborators a Processor needs.
type Deps struct {
	Store     *convostore.Store
	Backend   completion.Backend
	Alerts    gateway.Alerts
	Tasks     gateway.Tasks
	Notes     gateway.Notes
	Images    gateway.Images
	Generator gateway.Generator
	Logger    *zap.Logger

	DefaultSnooze time.Duration
}

func New(deps Deps) *Processor {
	snooze := deps.DefaultSnooze
	if snooze <= 0 {
		snooze = 10 * time.Minute
	}
	return &Processor{
		store:         deps.Store,
		backend:       deps.Backend,
		alerts:        deps.Alerts,
		tasks:         deps.Tasks,
		notes:         deps.Notes,
		images:        deps.Images,
		generator:     deps.Generator,
		logger:        deps.Logger,
		defaultSnooze: snooze,
		now:           time.Now,
	}
}

// Process handles one turn and returns the response envelope. It never
// panics across the boundary; a malformed turn degrades to a generic
// failure message.
func (p *Processor) Process(ctx context.Context, in Input) (resp models.Response) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Unexpected failure while processing message",
				zap.Any("panic", r),
				zap.Int64("user_id", in.UserID),
				zap.String("channel_id", in.ChannelID))
			resp = models.Response{Message: p.reply(msgGenericFailure)}
		}
	}()

	trimmed := strings.TrimSpace(in.Message)
	if trimmed == "" {
		return models.Response{Message: p.reply(msgEmpty)}
	}

	// Skip-AI escape hatch: store verbatim (prefix stripped), bypass all
	// automation for this turn.
	if strings.HasPrefix(trimmed, skipPrefix) {
		content := strings.TrimSpace(strings.TrimPrefix(trimmed, skipPrefix))
		p.appendTurn(in, models.UserMessage{
			Role:    models.RoleUser,
			Content: content,
			UserID:  in.UserID,
		})
		return models.Response{Skipped: true}
	}

	p.appendTurn(in, models.UserMessage{
		Role:    models.RoleUser,
		Content: trimmed,
		UserID:  in.UserID,
	})

	if msg := p.tryShorthand(ctx, in, trimmed); msg != nil {
		p.appendTurn(in, *msg)
		return models.Response{Message: msg}
	}

	cmd, err := parser.Parse(trimmed)
	if err == nil && cmd.Variable != models.VarNone {
		msg := p.handleVariable(ctx, in, cmd)
		p.appendTurn(in, *msg)
		return models.Response{Message: msg}
	}

	msg := p.classifyAndDispatch(ctx, in, trimmed)
	p.appendTurn(in, *msg)
	return models.Response{Message: msg}
}

// handleVariable dispatches an explicitly prefixed command by its variable.
func (p *Processor) handleVariable(ctx context.Context, in Input, cmd models.ParsedCommand) *models.UserMessage {
	switch cmd.Variable {
	case models.VarAlert:
		return p.handleAlertCommand(ctx, in, cmd)
	case models.VarTask:
		return p.handleTaskCommand(ctx, in, cmd)
	case models.VarNote:
		return p.handleNoteCommand(ctx, in, cmd)
	case models.VarImage:
		return p.handleImageCommand(ctx, in, cmd)
	case models.VarQuestion:
		return p.answerQuestion(ctx, in, cmd.CleanMessage)
	default:
		return p.reply(msgNotUnderstood)
	}
}

func (p *Processor) handleAlertCommand(ctx context.Context, in Input, cmd models.ParsedCommand) *models.UserMessage {
	if strings.EqualFold(cmd.Value, "list") {
		return p.listAlerts(ctx, in, p.scopeChannel(in))
	}
	if cmd.Value == "" {
		return p.reply("Please tell me when to alert you, e.g. `.alert 10m water the plants`.")
	}

	when, err := ParseWhen(cmd.Value, p.now())
	if err != nil {
		return p.reply("Sorry, I couldn't understand the time \"" + cmd.Value + "\". Try something like `10m`, `2h` or `14:30`.")
	}
	if cmd.CleanMessage == "" {
		return p.reply("Please tell me what the alert should say, e.g. `.alert 10m water the plants`.")
	}

	// The alert's channel is its delivery destination, so it is always the
	// originating channel; scopeChannel only governs query filtering.
	channelID := in.ChannelID
	if flagged := cmd.Flags["channel"]; flagged != "" {
		channelID = flagged
	}

	alert := &models.Alert{
		UserID:    in.UserID,
		ChannelID: channelID,
		Message:   cmd.CleanMessage,
		Date:      when,
	}
	if err := p.alerts.Create(ctx, alert); err != nil {
		p.logger.Error("Failed to create alert", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}

	return p.reply("Alert set for " + formatTime(when) + ": " + alert.Message)
}

func (p *Processor) handleTaskCommand(ctx context.Context, in Input, cmd models.ParsedCommand) *models.UserMessage {
	if strings.EqualFold(cmd.Value, "list") {
		return p.listTasks(ctx, in, p.scopeChannel(in))
	}
	if cmd.Value == "" {
		return p.reply("Please give the task a title, e.g. `.task prepare deck -description finalize slides`.")
	}

	task := &models.Task{
		UserID:      in.UserID,
		ChannelID:   p.scopeChannel(in),
		Title:       cmd.Value,
		Description: cmd.Flags["description"],
	}
	if dueExpr := cmd.Flags["due"]; dueExpr != "" {
		due, err := ParseWhen(dueExpr, p.now())
		if err != nil {
			return p.reply("Sorry, I couldn't understand the due time \"" + dueExpr + "\".")
		}
		task.Due = &due
	}

	if err := p.tasks.Create(ctx, task); err != nil {
		p.logger.Error("Failed to create task", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}

	return p.reply("Task added: " + task.Title)
}

func (p *Processor) handleNoteCommand(ctx context.Context, in Input, cmd models.ParsedCommand) *models.UserMessage {
	if strings.EqualFold(cmd.Value, "list") {
		return p.listNotes(ctx, in, p.scopeChannel(in), cmd.Flags["tag"])
	}
	if cmd.Value == "" {
		return p.reply("Please give the note some content, e.g. `.note call the plumber -tag home`.")
	}

	note := &models.Note{
		UserID:    in.UserID,
		ChannelID: p.scopeChannel(in),
		Content:   cmd.Value,
		Tags:      strings.Fields(cmd.Flags["tag"]),
	}
	if err := p.notes.Create(ctx, note); err != nil {
		p.logger.Error("Failed to create note", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}

	return p.reply("Noted: " + note.Content)
}

func (p *Processor) handleImageCommand(ctx context.Context, in Input, cmd models.ParsedCommand) *models.UserMessage {
	if strings.EqualFold(cmd.Value, "list") {
		return p.listImages(ctx, in)
	}

	prompt := strings.TrimSpace(cmd.Value + " " + cmd.CleanMessage)
	if prompt == "" {
		return p.reply("Please describe the image you want, e.g. `.image a lighthouse at dusk`.")
	}
	return p.generateImage(ctx, in, prompt)
}

func (p *Processor) generateImage(ctx context.Context, in Input, prompt string) *models.UserMessage {
	if p.generator == nil {
		return p.reply("Image generation is not configured.")
	}

	url, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return p.reply("Sorry, I couldn't generate that image. Please try again later.")
	}

	record := &models.ImageRecord{UserID: in.UserID, Prompt: prompt, URL: url}
	if err := p.images.Create(ctx, record); err != nil {
		p.logger.Error("Failed to record generated image", zap.Error(err), zap.Int64("user_id", in.UserID))
	}

	return &models.UserMessage{
		Role:         models.RoleAssistant,
		Content:      "Here is your image: " + url,
		ContentBlock: url,
		Provider:     providerEngine,
	}
}

// answerQuestion runs a real completion over the capped channel history.
func (p *Processor) answerQuestion(ctx context.Context, in Input, prompt string) *models.UserMessage {
	if strings.TrimSpace(prompt) == "" {
		return p.reply("Please ask me something, e.g. `.q how do tides work`.")
	}

	messages := []models.UserMessage{{
		Role:    models.RoleSystem,
		Content: "You are a concise personal assistant. Answer the user's question directly.",
	}}
	history := p.history(in)
	// The current turn was already appended to the flow; drop it from the
	// history so the question reaches the backend once.
	if n := len(history); n > 0 && history[n-1].Role == models.RoleUser {
		history = history[:n-1]
	}
	messages = append(messages, history...)
	messages = append(messages, models.UserMessage{Role: models.RoleUser, Content: prompt})

	answer := p.backend.Complete(ctx, messages, nil)
	if answer == nil {
		return p.reply(msgBackendDown)
	}
	return answer
}

// history returns the conversation context for completions, preferring the
// caller-supplied override.
func (p *Processor) history(in Input) []models.UserMessage {
	if in.History != nil {
		return in.History
	}

	flow, err := p.store.GetFlow(in.ChannelID)
	if err != nil {
		p.logger.Warn("Failed to read conversation history",
			zap.Error(err),
			zap.String("channel_id", in.ChannelID))
		return nil
	}
	if flow == nil {
		return nil
	}
	return flow.Conversation
}

func (p *Processor) appendTurn(in Input, msg models.UserMessage) {
	channelType := models.ChannelDirect
	if in.ChannelContext {
		channelType = models.ChannelShared
	}
	if err := p.store.AppendTurn(in.ChannelID, channelType, msg); err != nil {
		p.logger.Warn("Failed to append conversation turn",
			zap.Error(err),
			zap.String("channel_id", in.ChannelID))
	}
}

// scopeChannel returns the channel id used to filter domain queries: only
// shared-channel interactions are scoped.
func (p *Processor) scopeChannel(in Input) string {
	if in.ChannelContext {
		return in.ChannelID
	}
	return ""
}

func (p *Processor) reply(content string) *models.UserMessage {
	return &models.UserMessage{
		Role:     models.RoleAssistant,
		Content:  content,
		Provider: providerEngine,
	}
}

func formatTime(t time.Time) string {
	return t.Format("Mon 15:04")
}
