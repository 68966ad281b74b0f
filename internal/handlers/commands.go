package handlers

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-report-bot/internal/models"
	"daily-report-bot/internal/service"
	"daily-report-bot/internal/telegram"
)

// Menu is the command list registered with Telegram.
func Menu(withAdmin bool) []telegram.Command {
	cmds := []telegram.Command{
		{Name: "report", Description: "Submit your daily report"},
		{Name: "status", Description: "Check who has reported today"},
		{Name: "reports", Description: "Read today's reports"},
		{Name: "help", Description: "Show help"},
	}
	if withAdmin {
		cmds = append(cmds,
			telegram.Command{Name: "trigger", Description: "Send the reminder now (admin)"},
			telegram.Command{Name: "settime", Description: "Change reminder time HH:MM (admin)"},
			telegram.Command{Name: "settopic", Description: "Route reminders to a topic (admin)"},
			telegram.Command{Name: "schedule", Description: "Show the reminder schedule (admin)"},
		)
	}
	return cmds
}

func (h *Handler) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	switch cmd {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.reply(ctx, msg, helpText(h.isAdmin(msg.From)))
	case "report":
		h.handleReport(ctx, msg)
	case "status":
		h.handleStatus(ctx, msg)
	case "reports":
		h.handleReports(ctx, msg)
	case "trigger", "settime", "settopic", "schedule":
		if !h.isAdmin(msg.From) {
			h.log.Infow("admin command refused", "command", cmd, "user_id", userID(msg.From), "chat_id", msg.Chat.ID)
			h.reply(ctx, msg, textNotAdmin)
			return
		}
		h.handleAdmin(ctx, cmd, msg)
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	var sch *service.Schedule
	if s, err := h.svc.Schedule(); err == nil {
		sch = &s
	}
	h.reply(ctx, msg, startText(sch))
}

func (h *Handler) handleReport(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	_, err := h.svc.SubmitReport(ctx, service.Submission{
		UserID:    msg.From.ID,
		Username:  displayName(msg.From),
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.CommandArguments(),
	})
	switch {
	case errors.Is(err, models.ErrEmptyReport):
		h.reply(ctx, msg, textReportUsage)
	case err != nil:
		h.log.Errorw("report not saved", "chat_id", msg.Chat.ID, "user_id", msg.From.ID, "error", err)
		h.reply(ctx, msg, textReportFailed)
	default:
		h.reply(ctx, msg, textReportSaved)
	}
}

func (h *Handler) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	users, err := h.svc.Status(ctx, msg.Chat.ID)
	if err != nil {
		h.log.Errorw("status failed", "chat_id", msg.Chat.ID, "error", err)
		h.reply(ctx, msg, textStatusFailed)
		return
	}
	h.reply(ctx, msg, statusText(users))
}

func (h *Handler) handleReports(ctx context.Context, msg *tgbotapi.Message) {
	reports, err := h.svc.Reports(ctx, msg.Chat.ID)
	if err != nil {
		h.log.Errorw("reports listing failed", "chat_id", msg.Chat.ID, "error", err)
		h.reply(ctx, msg, textStatusFailed)
		return
	}
	h.reply(ctx, msg, reportsText(reports, h.clock.Now()))
}

func (h *Handler) handleAdmin(ctx context.Context, cmd string, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())

	switch cmd {
	case "trigger":
		if err := h.svc.TriggerReminder(); err != nil {
			h.log.Errorw("manual trigger failed", "error", err)
			h.reply(ctx, msg, textTriggerFailed)
			return
		}
		h.reply(ctx, msg, textTriggered)

	case "settime":
		if len(args) != 1 {
			h.reply(ctx, msg, textSetTimeUsage)
			return
		}
		at, err := h.svc.SetFireTime(ctx, args[0])
		if err != nil {
			if errors.Is(err, models.ErrValidation) {
				h.reply(ctx, msg, textSetTimeInvalid)
				return
			}
			h.log.Errorw("settime failed", "error", err)
			h.reply(ctx, msg, textSettingsFailed)
			return
		}
		h.reply(ctx, msg, setTimeText(at))

	case "settopic":
		chatID := msg.Chat.ID
		var rawTopic string
		switch len(args) {
		case 1:
			rawTopic = args[0]
		case 2:
			id, err := service.ParseChatID(args[0])
			if err != nil {
				h.replyError(ctx, msg, err)
				return
			}
			chatID, rawTopic = id, args[1]
		default:
			h.reply(ctx, msg, textSetTopicUsage)
			return
		}
		topic, err := h.svc.SetTopic(ctx, chatID, rawTopic)
		if err != nil {
			h.replyError(ctx, msg, err)
			return
		}
		h.reply(ctx, msg, setTopicText(chatID, topic))

	case "schedule":
		sch, err := h.svc.Schedule()
		if err != nil {
			h.log.Errorw("schedule unavailable", "error", err)
			h.reply(ctx, msg, textScheduleMissing)
			return
		}
		h.reply(ctx, msg, scheduleText(sch, h.clock.Now()))
	}
}

func (h *Handler) replyError(ctx context.Context, msg *tgbotapi.Message, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		h.reply(ctx, msg, invalidText(verr))
	case errors.Is(err, models.ErrGroupNotFound):
		h.reply(ctx, msg, textGroupNotFound)
	default:
		h.log.Errorw("admin command failed", "chat_id", msg.Chat.ID, "error", err)
		h.reply(ctx, msg, textSettingsFailed)
	}
}

func userID(u *tgbotapi.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
