package telegram

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"daily-report-bot/internal/models"
)

// Client sends messages through the Bot API.
type Client struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	retries uint64
	backoff func() backoff.BackOff
	log     *zap.SugaredLogger
}

type Option func(*Client)

// WithRate paces outgoing messages to perSecond.
func WithRate(perSecond float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n uint64) Option { return func(c *Client) { c.retries = n } }

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = l.With("component", "telegram") }
}

func withBackOff(f func() backoff.BackOff) Option { return func(c *Client) { c.backoff = f } }

func New(bot *tgbotapi.BotAPI, opts ...Option) *Client {
	c := &Client{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(20), 1),
		retries: 3,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = time.Minute
			return b
		},
		log: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers msg, threading it under msg.TopicID when that is set.
func (c *Client) Send(ctx context.Context, msg models.Outgoing) error {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", msg.ChatID)
	params.AddNonZero64("message_thread_id", msg.TopicID)
	params.AddNonZero("reply_to_message_id", msg.ReplyTo)
	params["text"] = msg.Text
	params.AddNonEmpty("parse_mode", msg.ParseMode)

	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		_, err := c.bot.MakeRequest("sendMessage", params)
		if err == nil {
			return nil
		}
		if !transient(err) {
			return backoff.Permanent(err)
		}
		c.log.Warnw("transient send failure", "chat_id", msg.ChatID, "attempt", attempt, "error", err)
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			// honour flood control before the next backoff tick
			select {
			case <-time.After(time.Duration(apiErr.RetryAfter) * time.Second):
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), c.retries), ctx)
	return backoff.Retry(op, b)
}

// transient reports whether a send may succeed when repeated.
func transient(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	// network level failures carry no API code
	return true
}

// Command is one bot menu entry.
type Command struct {
	Name        string
	Description string
}

// SetCommands registers the bot menu.
func (c *Client) SetCommands(cmds []Command) error {
	bc := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, cmd := range cmds {
		bc = append(bc, tgbotapi.BotCommand{Command: cmd.Name, Description: cmd.Description})
	}
	_, err := c.bot.Request(tgbotapi.NewSetMyCommands(bc...))
	return err
}
