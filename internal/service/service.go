// Package service maps the bot's inbound events onto the ledger, the
// reminder scheduler and the notifier.
package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"daily-report-bot/internal/models"
)

type Ledger interface {
	UpsertGroup(ctx context.Context, g models.Group, loc *time.Location) error
	SetGroupTopic(ctx context.Context, chatID, topicID int64) error
	RemoveGroup(ctx context.Context, chatID int64) error
	AddReport(ctx context.Context, r models.NewReport, loc *time.Location) (models.Report, error)
	ReportedUsers(ctx context.Context, chatID int64, day string) ([]string, error)
	ReportsWithContent(ctx context.Context, chatID int64, day string) ([]models.Report, error)
}

type Scheduler interface {
	SetFireTime(ctx context.Context, raw string) (models.ClockTime, error)
	FireTime() models.ClockTime
	NextRun() (time.Time, error)
	Trigger() error
}

type Service struct {
	ledger       Ledger
	sched        Scheduler
	loc          *time.Location
	defaultTopic int64
	clock        clockwork.Clock
	log          *zap.SugaredLogger
}

type Config struct {
	Location       *time.Location
	DefaultTopicID int64
	Clock          clockwork.Clock
}

func New(ledger Ledger, sched Scheduler, cfg Config, log *zap.SugaredLogger) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Service{
		ledger:       ledger,
		sched:        sched,
		loc:          cfg.Location,
		defaultTopic: cfg.DefaultTopicID,
		clock:        cfg.Clock,
		log:          log.With("component", "service"),
	}
}

func (s *Service) Location() *time.Location { return s.loc }

// Today is the current report partition key.
func (s *Service) Today() string { return models.Day(s.clock.Now(), s.loc) }

// Submission is a member's /report.
type Submission struct {
	UserID    int64
	Username  string
	ChatID    int64
	MessageID int
	Text      string
}

// SubmitReport stores a report. Blank text is rejected with
// models.ErrEmptyReport before the ledger is touched.
func (s *Service) SubmitReport(ctx context.Context, sub Submission) (models.Report, error) {
	content := strings.TrimSpace(sub.Text)
	if content == "" {
		return models.Report{}, models.ErrEmptyReport
	}
	rep, err := s.ledger.AddReport(ctx, models.NewReport{
		UserID:    sub.UserID,
		Username:  sub.Username,
		ChatID:    sub.ChatID,
		MessageID: sub.MessageID,
		Content:   content,
	}, s.loc)
	if err != nil {
		return models.Report{}, err
	}
	s.log.Infow("report submitted", "chat_id", sub.ChatID, "user_id", sub.UserID, "date", rep.ReportDate)
	return rep, nil
}

// Status lists who reported in chatID today, once per user.
func (s *Service) Status(ctx context.Context, chatID int64) ([]string, error) {
	return s.ledger.ReportedUsers(ctx, chatID, s.Today())
}

// Reports lists today's reports in chatID, one entry per submission.
func (s *Service) Reports(ctx context.Context, chatID int64) ([]models.Report, error) {
	return s.ledger.ReportsWithContent(ctx, chatID, s.Today())
}

// GroupJoined registers a chat the bot was added to, routed to the default topic.
func (s *Service) GroupJoined(ctx context.Context, chatID int64, name string) error {
	err := s.ledger.UpsertGroup(ctx, models.Group{ChatID: chatID, Name: name, TopicID: s.defaultTopic}, s.loc)
	if err != nil {
		return err
	}
	s.log.Infow("bot added to group", "chat_id", chatID, "name", name, "topic_id", s.defaultTopic)
	return nil
}

func (s *Service) GroupLeft(ctx context.Context, chatID int64) error {
	if err := s.ledger.RemoveGroup(ctx, chatID); err != nil {
		return err
	}
	s.log.Infow("bot removed from group", "chat_id", chatID)
	return nil
}

func (s *Service) SetFireTime(ctx context.Context, raw string) (models.ClockTime, error) {
	return s.sched.SetFireTime(ctx, raw)
}

// SetTopic routes reminders for chatID to rawTopic ("0" = main thread).
func (s *Service) SetTopic(ctx context.Context, chatID int64, rawTopic string) (int64, error) {
	topic, err := ParseTopicID(rawTopic)
	if err != nil {
		return 0, err
	}
	if err := s.ledger.SetGroupTopic(ctx, chatID, topic); err != nil {
		return 0, err
	}
	s.log.Infow("group topic changed", "chat_id", chatID, "topic_id", topic)
	return topic, nil
}

func (s *Service) TriggerReminder() error {
	if err := s.sched.Trigger(); err != nil {
		return err
	}
	s.log.Infow("manual reminder triggered")
	return nil
}

// Schedule is the current reminder rule.
type Schedule struct {
	FireTime models.ClockTime
	Location *time.Location
	NextRun  time.Time
}

func (s *Service) Schedule() (Schedule, error) {
	next, err := s.sched.NextRun()
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{FireTime: s.sched.FireTime(), Location: s.loc, NextRun: next}, nil
}

func ParseTopicID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	topic, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &models.ValidationError{Field: "topic id", Value: raw, Reason: "must be a number"}
	}
	if topic < 0 {
		return 0, &models.ValidationError{Field: "topic id", Value: raw, Reason: "must not be negative"}
	}
	return topic, nil
}

func ParseChatID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &models.ValidationError{Field: "chat id", Value: raw, Reason: "must be a number"}
	}
	return id, nil
}
