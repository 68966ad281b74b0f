package notifier

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"daily-report-bot/internal/models"
)

const (
	WeekdayText = "☀️ Các em yêu ơi report daily nhé"
	WeekendText = "🌅 Cuối tuần vui vẻ! Các em yêu ơi report daily nhé ❤️"
)

type GroupLister interface {
	AllGroups(ctx context.Context) ([]models.Group, error)
}

type Sender interface {
	Send(ctx context.Context, msg models.Outgoing) error
}

// Delivery is the outcome of one firing.
type Delivery struct {
	Text     string
	Sent     []models.Group
	Failures []*models.DeliveryError
	Err      error // group snapshot could not be read
}

// Attempted is the number of groups a send was tried for.
func (d Delivery) Attempted() int { return len(d.Sent) + len(d.Failures) }

type Notifier struct {
	groups GroupLister
	sender Sender
	loc    *time.Location
	log    *zap.SugaredLogger
}

func New(groups GroupLister, sender Sender, loc *time.Location, log *zap.SugaredLogger) *Notifier {
	return &Notifier{groups: groups, sender: sender, loc: loc, log: log.With("component", "notifier")}
}

// Text picks the reminder variant for the day of now.
func (n *Notifier) Text(now time.Time) string {
	if models.IsWeekend(now, n.loc) {
		return WeekendText
	}
	return WeekdayText
}

// Fire sends the reminder to every registered group. A failed group is
// recorded and logged; the remaining groups are still attempted.
func (n *Notifier) Fire(ctx context.Context, now time.Time) Delivery {
	d := Delivery{Text: n.Text(now)}

	groups, err := n.groups.AllGroups(ctx)
	if err != nil {
		n.log.Errorw("reminder skipped: cannot list groups", "error", err)
		d.Err = err
		return d
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			n.log.Warnw("reminder fan-out interrupted", "error", err, "remaining", len(groups)-d.Attempted())
			d.Err = err
			break
		}
		msg := models.Outgoing{ChatID: g.ChatID, TopicID: g.TopicID, Text: d.Text, ParseMode: tgbotapi.ModeHTML}
		if err := n.sender.Send(ctx, msg); err != nil {
			de := &models.DeliveryError{ChatID: g.ChatID, TopicID: g.TopicID, Err: err}
			n.log.Errorw("failed to send reminder", "chat_id", g.ChatID, "topic_id", g.TopicID, "error", err)
			d.Failures = append(d.Failures, de)
			continue
		}
		d.Sent = append(d.Sent, g)
	}

	n.log.Infow("reminder fan-out done",
		"weekend", d.Text == WeekendText, "sent", len(d.Sent), "failed", len(d.Failures))
	return d
}
