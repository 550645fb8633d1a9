package processor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/gateway"
	"github.com/aidekit/aide/internal/models"
)

// Shorthand commands are tried in a fixed priority order; the first match
// wins and short-circuits the rest of the pipeline.
var (
	snoozeRe    = regexp.MustCompile(`^(?i)(?:snooze|s)(?:\s+(\d+)\s*([mhd])?)?$`)
	repeatRe    = regexp.MustCompile(`^(?i)(?:repeat|again)$`)
	listScopeRe = regexp.MustCompile(`^(?i)(alerts|tasks|notes|images)(?:\s+(all|channel))?$`)
	setSnoozeRe = regexp.MustCompile(`^(?i)set\s+snooze\s+(?:to\s+)?(\d+)\s*(m|min|mins|minutes|h|hour|hours)?$`)
	remindRe    = regexp.MustCompile(`^(?i)remind\s+me\s+(?:in\s+|at\s+)?(.+?)\s+to\s+(.+)$`)
)

func (p *Processor) tryShorthand(ctx context.Context, in Input, message string) *models.UserMessage {
	if m := snoozeRe.FindStringSubmatch(message); m != nil {
		return p.handleSnooze(ctx, in, m[1], m[2])
	}
	if repeatRe.MatchString(message) {
		return p.handleRepeat(in)
	}
	if m := listScopeRe.FindStringSubmatch(message); m != nil {
		return p.handleScopedList(ctx, in, strings.ToLower(m[1]), strings.ToLower(m[2]))
	}
	if m := setSnoozeRe.FindStringSubmatch(message); m != nil {
		return p.handleSetSnooze(in, m[1], m[2])
	}
	if m := remindRe.FindStringSubmatch(message); m != nil {
		return p.handleRemind(ctx, in, m[1], m[2])
	}
	return nil
}

func (p *Processor) handleSnooze(ctx context.Context, in Input, amount, unit string) *models.UserMessage {
	alert, err := p.alerts.MostRecentPending(ctx, in.UserID)
	if err != nil {
		p.logger.Error("Failed to look up alert for snooze", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}
	if alert == nil {
		return p.reply("You have no pending alerts to snooze.")
	}

	delay := p.snoozeDuration(amount, unit, in.UserID)
	until := p.now().Add(delay)
	if err := p.alerts.Reschedule(ctx, alert.ID, in.UserID, until); err != nil {
		p.logger.Error("Failed to reschedule alert", zap.Error(err), zap.Int64("alert_id", alert.ID))
		return p.reply(msgGenericFailure)
	}

	return p.reply(fmt.Sprintf("Snoozed %q until %s.", alert.Message, formatTime(until)))
}

// snoozeDuration resolves an explicit amount, the user's stored default, or
// the configured fallback, in that order.
func (p *Processor) snoozeDuration(amount, unit string, userID int64) time.Duration {
	if amount != "" {
		if unit == "" {
			unit = "m"
		}
		return unitDuration(amount, unit)
	}

	pref, err := p.store.GetPreference(userID)
	if err != nil {
		p.logger.Warn("Failed to read snooze preference", zap.Error(err), zap.Int64("user_id", userID))
	} else if pref != nil && pref.DefaultSnoozeMinutes > 0 {
		return time.Duration(pref.DefaultSnoozeMinutes) * time.Minute
	}
	return p.defaultSnooze
}

func (p *Processor) handleRepeat(in Input) *models.UserMessage {
	pref, err := p.store.GetPreference(in.UserID)
	if err != nil {
		p.logger.Warn("Failed to read digest snapshot", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}
	if pref == nil || pref.LastDigest == "" {
		return p.reply("There is nothing to repeat yet. Ask for `alerts`, `tasks` or `notes` first.")
	}
	return p.reply(pref.LastDigest)
}

func (p *Processor) handleScopedList(ctx context.Context, in Input, kind, scope string) *models.UserMessage {
	channelID := p.scopeChannel(in)
	switch scope {
	case "all":
		channelID = ""
	case "channel":
		channelID = in.ChannelID
	}

	switch kind {
	case "alerts":
		return p.listAlerts(ctx, in, channelID)
	case "tasks":
		return p.listTasks(ctx, in, channelID)
	case "notes":
		return p.listNotes(ctx, in, channelID, "")
	default:
		return p.listImages(ctx, in)
	}
}

func (p *Processor) handleSetSnooze(in Input, amount, unit string) *models.UserMessage {
	minutes, _ := strconv.Atoi(amount)
	if strings.HasPrefix(unit, "h") {
		minutes *= 60
	}
	if minutes <= 0 {
		return p.reply("The snooze default has to be a positive amount, e.g. `set snooze 20m`.")
	}

	pref, err := p.store.GetPreference(in.UserID)
	if err != nil {
		p.logger.Error("Failed to read preference", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}
	if pref == nil {
		pref = &models.AssistantPreference{UserID: in.UserID}
	}
	pref.DefaultSnoozeMinutes = minutes
	if err := p.store.SavePreference(pref); err != nil {
		p.logger.Error("Failed to save preference", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}

	return p.reply(fmt.Sprintf("Default snooze set to %d minutes.", minutes))
}

func (p *Processor) handleRemind(ctx context.Context, in Input, whenExpr, text string) *models.UserMessage {
	when, err := ParseWhen(whenExpr, p.now())
	if err != nil {
		return p.reply("Sorry, I couldn't understand the time \"" + whenExpr + "\". Try `remind me in 20 minutes to stretch`.")
	}

	alert := &models.Alert{
		UserID:    in.UserID,
		ChannelID: in.ChannelID,
		Message:   text,
		Date:      when,
	}
	if err := p.alerts.Create(ctx, alert); err != nil {
		p.logger.Error("Failed to create reminder", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}

	return p.reply(fmt.Sprintf("I'll remind you at %s to %s.", formatTime(when), text))
}

// List renderers. Each digest is also snapshotted to the user's preference
// so "repeat" can replay it.

func (p *Processor) listAlerts(ctx context.Context, in Input, channelID string) *models.UserMessage {
	alerts, err := p.alerts.ListPending(ctx, in.UserID, listFilter(channelID, ""))
	if err != nil {
		p.logger.Error("Failed to list alerts", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}
	if len(alerts) == 0 {
		return p.reply("You have no pending alerts.")
	}

	var b strings.Builder
	b.WriteString("Your pending alerts:\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "• %s — %s\n", formatTime(a.Date), a.Message)
	}
	digest := strings.TrimRight(b.String(), "\n")
	p.saveDigest(in.UserID, digest)
	return p.reply(digest)
}

func (p *Processor) listTasks(ctx context.Context, in Input, channelID string) *models.UserMessage {
	tasks, err := p.tasks.List(ctx, in.UserID, listFilter(channelID, ""))
	if err != nil {
		p.logger.Error("Failed to list tasks", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}
	if len(tasks) == 0 {
		return p.reply("You have no open tasks.")
	}

	var b strings.Builder
	b.WriteString("Your open tasks:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "• %s", t.Title)
		if t.Description != "" {
			fmt.Fprintf(&b, " — %s", t.Description)
		}
		if t.Due != nil {
			fmt.Fprintf(&b, " (due %s)", formatTime(*t.Due))
		}
		b.WriteString("\n")
	}
	digest := strings.TrimRight(b.String(), "\n")
	p.saveDigest(in.UserID, digest)
	return p.reply(digest)
}

func (p *Processor) listNotes(ctx context.Context, in Input, channelID, tag string) *models.UserMessage {
	notes, err := p.notes.List(ctx, in.UserID, listFilter(channelID, tag))
	if err != nil {
		p.logger.Error("Failed to list notes", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}
	if len(notes) == 0 {
		if tag != "" {
			return p.reply("You have no notes tagged #" + tag + ".")
		}
		return p.reply("You have no notes yet.")
	}

	var b strings.Builder
	b.WriteString("Your notes:\n")
	for _, n := range notes {
		fmt.Fprintf(&b, "• %s", n.Content)
		if len(n.Tags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(n.Tags, ", "))
		}
		b.WriteString("\n")
	}
	digest := strings.TrimRight(b.String(), "\n")
	p.saveDigest(in.UserID, digest)
	return p.reply(digest)
}

func (p *Processor) listImages(ctx context.Context, in Input) *models.UserMessage {
	images, err := p.images.List(ctx, in.UserID)
	if err != nil {
		p.logger.Error("Failed to list images", zap.Error(err), zap.Int64("user_id", in.UserID))
		return p.reply(msgGenericFailure)
	}
	if len(images) == 0 {
		return p.reply("You have no generated images yet.")
	}

	var b strings.Builder
	b.WriteString("Your images:\n")
	for _, img := range images {
		fmt.Fprintf(&b, "• %s — %s\n", img.Prompt, img.URL)
	}
	digest := strings.TrimRight(b.String(), "\n")
	p.saveDigest(in.UserID, digest)
	return p.reply(digest)
}

func (p *Processor) saveDigest(userID int64, digest string) {
	pref, err := p.store.GetPreference(userID)
	if err != nil {
		p.logger.Warn("Failed to read preference for digest", zap.Error(err), zap.Int64("user_id", userID))
		return
	}
	if pref == nil {
		pref = &models.AssistantPreference{UserID: userID}
	}
	pref.LastDigest = digest
	if err := p.store.SavePreference(pref); err != nil {
		p.logger.Warn("Failed to snapshot digest", zap.Error(err), zap.Int64("user_id", userID))
	}
}

func listFilter(channelID, tag string) gateway.ListFilter {
	return gateway.ListFilter{ChannelID: channelID, Tag: tag}
}
