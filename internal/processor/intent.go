package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/completion"
	"github.com/aidekit/aide/internal/models"
)

const classifierPrompt = `You are the intent classifier of a personal assistant.
Classify the user's message into exactly one of these intents:
alert.create, alert.list, task.create, task.list, note.create, note.list,
image.create, image.list, search, question.

Respond with a single JSON object and nothing else:
{"intent": "<intent>", "when": "<time expression if any>", "text": "<the payload text>", "tag": "<tag if any>"}`

// intentPayload is the JSON shape the classifier is asked to return.
type intentPayload struct {
	Intent string `json:"intent"`
	When   string `json:"when"`
	Text   string `json:"text"`
	Tag    string `json:"tag"`
}

// classifyAndDispatch is the last layer of the pipeline: ask the completion
// backend to classify the free-text message, then route the result. Any
// failure along the way degrades to an apologetic message.
func (p *Processor) classifyAndDispatch(ctx context.Context, in Input, message string) *models.UserMessage {
	messages := []models.UserMessage{
		{Role: models.RoleSystem, Content: classifierPrompt},
		{Role: models.RoleUser, Content: p.buildContextBlock(ctx, in) + "\n\nMessage: " + message},
	}

	raw := p.backend.Complete(ctx, messages, &completion.Options{
		JSONOnly:    true,
		Temperature: completion.TemperatureOf(0),
	})
	if raw == nil {
		return p.reply(msgBackendDown)
	}

	payload, ok := decodeIntentPayload(raw.Content)
	if !ok {
		p.logger.Warn("Classifier returned unusable payload",
			zap.String("response", raw.Content),
			zap.Int64("user_id", in.UserID))
		return p.reply(msgNotUnderstood)
	}

	intent, known := models.KnownIntent(payload.Intent)
	if !known {
		return p.reply(msgNotUnderstood)
	}

	return p.dispatchIntent(ctx, in, intent, payload, message)
}

func (p *Processor) dispatchIntent(ctx context.Context, in Input, intent models.Intent, payload intentPayload, message string) *models.UserMessage {
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		text = message
	}

	switch intent {
	case models.IntentAlertCreate:
		when, err := ParseWhen(payload.When, p.now())
		if err != nil {
			return p.reply("I think you want an alert, but I couldn't work out when. Try `.alert 10m " + text + "`.")
		}
		alert := &models.Alert{
			UserID:    in.UserID,
			ChannelID: in.ChannelID,
			Message:   text,
			Date:      when,
		}
		if err := p.alerts.Create(ctx, alert); err != nil {
			p.logger.Error("Failed to create alert from intent", zap.Error(err), zap.Int64("user_id", in.UserID))
			return p.reply(msgGenericFailure)
		}
		return p.reply("Alert set for " + formatTime(when) + ": " + text)

	case models.IntentAlertList:
		return p.listAlerts(ctx, in, p.scopeChannel(in))

	case models.IntentTaskCreate:
		task := &models.Task{UserID: in.UserID, ChannelID: p.scopeChannel(in), Title: text}
		if err := p.tasks.Create(ctx, task); err != nil {
			p.logger.Error("Failed to create task from intent", zap.Error(err), zap.Int64("user_id", in.UserID))
			return p.reply(msgGenericFailure)
		}
		return p.reply("Task added: " + text)

	case models.IntentTaskList:
		return p.listTasks(ctx, in, p.scopeChannel(in))

	case models.IntentNoteCreate:
		note := &models.Note{
			UserID:    in.UserID,
			ChannelID: p.scopeChannel(in),
			Content:   text,
			Tags:      strings.Fields(payload.Tag),
		}
		if err := p.notes.Create(ctx, note); err != nil {
			p.logger.Error("Failed to create note from intent", zap.Error(err), zap.Int64("user_id", in.UserID))
			return p.reply(msgGenericFailure)
		}
		return p.reply("Noted: " + text)

	case models.IntentNoteList:
		return p.listNotes(ctx, in, p.scopeChannel(in), payload.Tag)

	case models.IntentImageCreate:
		return p.generateImage(ctx, in, text)

	case models.IntentImageList:
		return p.listImages(ctx, in)

	case models.IntentSearch:
		return p.searchNotes(ctx, in, text)

	default: // models.IntentQuestion
		return p.answerQuestion(ctx, in, message)
	}
}

func (p *Processor) searchNotes(ctx context.Context, in Input, query string) *models.UserMessage {
	notes, err := p.notes.Search(ctx, in.UserID, query)
	if err != nil {
		p.logger.Error("Failed to search notes", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}
	if len(notes) == 0 {
		return p.reply("No notes matched \"" + query + "\".")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Notes matching %q:\n", query)
	for _, n := range notes {
		fmt.Fprintf(&b, "• %s\n", n.Content)
	}
	return p.reply(strings.TrimRight(b.String(), "\n"))
}

// buildContextBlock summarizes the user's current state so the classifier
// can disambiguate, without shipping whole entities into the prompt.
func (p *Processor) buildContextBlock(ctx context.Context, in Input) string {
	var alertCount, taskCount, noteCount int
	if alerts, err := p.alerts.ListPending(ctx, in.UserID, listFilter(p.scopeChannel(in), "")); err == nil {
		alertCount = len(alerts)
	}
	if tasks, err := p.tasks.List(ctx, in.UserID, listFilter(p.scopeChannel(in), "")); err == nil {
		taskCount = len(tasks)
	}
	if notes, err := p.notes.List(ctx, in.UserID, listFilter(p.scopeChannel(in), "")); err == nil {
		noteCount = len(notes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Context: %d pending alerts, %d open tasks, %d notes.", alertCount, taskCount, noteCount)

	history := p.history(in)
	if len(history) > contextHistoryTurns {
		history = history[len(history)-contextHistoryTurns:]
	}
	if len(history) > 0 {
		b.WriteString("\nRecent conversation:")
		for _, m := range history {
			b.WriteString("\n" + string(m.Role) + ": " + truncate(m.Content, contextTurnChars))
		}
	}
	return b.String()
}

const (
	contextHistoryTurns = 6
	contextTurnChars    = 200
)

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "…"
}

var (
	fenceRe         = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// decodeIntentPayload defensively parses the classifier output: strip code
// fences, try a direct parse, then the first balanced {...} substring, then
// the same candidates with trailing commas removed. Only when every attempt
// fails does the caller fall back to the generic response.
func decodeIntentPayload(raw string) (intentPayload, bool) {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	base := []string{raw}
	if obj := firstBalancedObject(raw); obj != "" && obj != raw {
		base = append(base, obj)
	}
	candidates := make([]string, 0, len(base)*2)
	candidates = append(candidates, base...)
	for _, c := range base {
		candidates = append(candidates, trailingCommaRe.ReplaceAllString(c, "$1"))
	}

	for _, c := range candidates {
		var payload intentPayload
		if err := json.Unmarshal([]byte(c), &payload); err == nil {
			if payload.Intent == "" {
				continue
			}
			return payload, true
		}
	}
	return intentPayload{}, false
}

// firstBalancedObject extracts the first {...} substring with balanced
// braces, ignoring braces inside JSON strings.
func firstBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
