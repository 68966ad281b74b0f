package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the on-disk layout of report_date.
const DateLayout = "2006-01-02"

// Group is a chat the bot sends reminders to.
type Group struct {
	ChatID  int64     `db:"chat_id"    json:"chat_id"`
	Name    string    `db:"group_name" json:"name"`
	TopicID int64     `db:"topic_id"   json:"topic_id"` // 0 -> main thread
	AddedAt time.Time `db:"added_at"   json:"added_at"`
}

// NewReport is what a member submits; the ledger fills in the date and timestamp.
type NewReport struct {
	UserID    int64
	Username  string
	ChatID    int64
	TopicID   int64
	MessageID int
	Content   string
}

// Report is one stored submission.
type Report struct {
	UserID      int64     `db:"user_id"`
	Username    string    `db:"username"`
	ChatID      int64     `db:"chat_id"`
	TopicID     int64     `db:"topic_id"`
	MessageID   int       `db:"message_id"` // 0 -> unknown
	ReportDate  string    `db:"report_date"` // YYYY-MM-DD
	Content     string    `db:"report_content"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// Outgoing is a single message to deliver.
type Outgoing struct {
	ChatID    int64
	TopicID   int64 // 0 -> no thread
	ReplyTo   int   // keeps a command reply in the caller's topic
	Text      string
	ParseMode string
}

// ClockTime is a wall-clock HH:MM.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime accepts a 24h "HH:MM" (a single-digit hour is allowed).
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, &ValidationError{Field: "time", Value: s, Reason: "expected HH:MM (24h)"}
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Day returns the report partition key of t in loc.
func Day(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// IsWeekend reports whether t falls on Saturday or Sunday in loc.
func IsWeekend(t time.Time, loc *time.Location) bool {
	switch t.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}
