package handlers

import (
	"context"
	"time"

	"github.com/duke-git/lancet/v2/slice"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"daily-report-bot/internal/models"
	"daily-report-bot/internal/service"
)

type Service interface {
	SubmitReport(ctx context.Context, sub service.Submission) (models.Report, error)
	Status(ctx context.Context, chatID int64) ([]string, error)
	Reports(ctx context.Context, chatID int64) ([]models.Report, error)
	GroupJoined(ctx context.Context, chatID int64, name string) error
	GroupLeft(ctx context.Context, chatID int64) error
	SetFireTime(ctx context.Context, raw string) (models.ClockTime, error)
	SetTopic(ctx context.Context, chatID int64, rawTopic string) (int64, error)
	TriggerReminder() error
	Schedule() (service.Schedule, error)
}

type Sender interface {
	Send(ctx context.Context, msg models.Outgoing) error
}

type Handler struct {
	svc    Service
	sender Sender
	botID  int64
	admins []int64
	clock  clockwork.Clock
	log    *zap.SugaredLogger
}

type Option func(*Handler)

func WithAdmins(ids []int64) Option { return func(h *Handler) { h.admins = ids } }

func WithClock(c clockwork.Clock) Option { return func(h *Handler) { h.clock = c } }

func WithLogger(l *zap.SugaredLogger) Option {
	return func(h *Handler) { h.log = l.With("component", "handlers") }
}

// New builds a router for the bot whose user id is botID.
func New(svc Service, sender Sender, botID int64, opts ...Option) *Handler {
	h := &Handler{
		svc:    svc,
		sender: sender,
		botID:  botID,
		clock:  clockwork.NewRealClock(),
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleUpdate processes one update. Failures are answered in chat and
// logged; nothing is returned to the poll loop.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	switch {
	case len(msg.NewChatMembers) > 0:
		h.handleJoined(ctx, msg)
	case msg.LeftChatMember != nil:
		h.handleLeft(ctx, msg)
	case msg.IsCommand():
		h.HandleCommand(ctx, msg)
	}
}

func (h *Handler) isAdmin(user *tgbotapi.User) bool {
	return user != nil && slice.Contain(h.admins, user.ID)
}

func (h *Handler) handleJoined(ctx context.Context, msg *tgbotapi.Message) {
	for _, member := range msg.NewChatMembers {
		if member.ID != h.botID {
			continue
		}
		if err := h.svc.GroupJoined(ctx, msg.Chat.ID, msg.Chat.Title); err != nil {
			h.log.Errorw("cannot register group", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		h.send(ctx, models.Outgoing{ChatID: msg.Chat.ID, Text: textJoined})
		return
	}
}

func (h *Handler) handleLeft(ctx context.Context, msg *tgbotapi.Message) {
	if msg.LeftChatMember.ID != h.botID {
		return
	}
	if err := h.svc.GroupLeft(ctx, msg.Chat.ID); err != nil {
		h.log.Errorw("cannot unregister group", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (h *Handler) reply(ctx context.Context, to *tgbotapi.Message, text string) {
	h.send(ctx, models.Outgoing{
		ChatID:    to.Chat.ID,
		ReplyTo:   to.MessageID,
		Text:      text,
		ParseMode: tgbotapi.ModeHTML,
	})
}

func (h *Handler) send(ctx context.Context, out models.Outgoing) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := h.sender.Send(ctx, out); err != nil {
		h.log.Warnw("reply not delivered", "chat_id", out.ChatID, "error", err)
	}
}
