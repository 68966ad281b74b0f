package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"daily-report-bot/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

// Fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const fireTimeKey = "reminder.fire_time"

// DB is the report ledger. Every method logs its own failures and returns
// them as *models.StorageError.
type DB struct {
	*sql.DB
	log   *zap.SugaredLogger
	clock clockwork.Clock
}

type Option func(*DB)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *DB) { d.log = l.With("component", "storage") }
}

// WithClock sets the clock used for report dates and timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(d *DB) { d.clock = c }
}

// New opens the sqlite file at path and brings its schema up to date.
func New(path string, opts ...Option) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, err
	}
	// one handle serialises every statement
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{DB: db, log: zap.NewNop().Sugar(), clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) fail(op string, err error, kv ...any) error {
	if err == nil {
		return nil
	}
	d.log.Errorw("storage operation failed", append([]any{"op", op, "error", err}, kv...)...)
	return &models.StorageError{Op: op, Err: err}
}

func (d *DB) Ping(ctx context.Context) error {
	return d.fail("ping", d.PingContext(ctx))
}

// ---------- groups ----------------------------------------------------------

// UpsertGroup registers chat g.ChatID, replacing any previous row for it.
func (d *DB) UpsertGroup(ctx context.Context, g models.Group, loc *time.Location) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO groups (chat_id, group_name, topic_id, added_at)
        VALUES (?,?,?,?)
        ON CONFLICT(chat_id) DO UPDATE SET group_name=excluded.group_name,
            topic_id=excluded.topic_id,
            added_at=excluded.added_at
    `, g.ChatID, g.Name, g.TopicID, d.clock.Now().In(loc).Format(timeLayout))
	return d.fail("upsert group", err, "chat_id", g.ChatID)
}

// SetGroupTopic returns models.ErrGroupNotFound for an unknown chat.
func (d *DB) SetGroupTopic(ctx context.Context, chatID, topicID int64) error {
	res, err := d.ExecContext(ctx, `UPDATE groups SET topic_id=? WHERE chat_id=?`, topicID, chatID)
	if err != nil {
		return d.fail("set group topic", err, "chat_id", chatID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return d.fail("set group topic", err, "chat_id", chatID)
	}
	if n == 0 {
		return models.ErrGroupNotFound
	}
	return nil
}

func (d *DB) RemoveGroup(ctx context.Context, chatID int64) error {
	_, err := d.ExecContext(ctx, `DELETE FROM groups WHERE chat_id=?`, chatID)
	return d.fail("remove group", err, "chat_id", chatID)
}

func (d *DB) AllGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := d.QueryContext(ctx, `
        SELECT chat_id, COALESCE(group_name, ''), COALESCE(topic_id, 0), added_at
        FROM groups ORDER BY chat_id`)
	if err != nil {
		return nil, d.fail("all groups", err)
	}
	defer rows.Close()

	res := make([]models.Group, 0)
	for rows.Next() {
		var (
			g       models.Group
			addedAt sql.NullString
		)
		if err := rows.Scan(&g.ChatID, &g.Name, &g.TopicID, &addedAt); err != nil {
			return nil, d.fail("all groups", err)
		}
		g.AddedAt = parseTime(addedAt.String)
		res = append(res, g)
	}
	if err := rows.Err(); err != nil {
		return nil, d.fail("all groups", err)
	}
	return res, nil
}

// ---------- reports ---------------------------------------------------------

// AddReport appends a report dated "today" in loc. Content is stored as given;
// rejecting blank reports is the caller's job.
func (d *DB) AddReport(ctx context.Context, r models.NewReport, loc *time.Location) (models.Report, error) {
	now := d.clock.Now().In(loc)
	rep := models.Report{
		UserID:      r.UserID,
		Username:    r.Username,
		ChatID:      r.ChatID,
		TopicID:     r.TopicID,
		MessageID:   r.MessageID,
		ReportDate:  now.Format(models.DateLayout),
		Content:     r.Content,
		SubmittedAt: now,
	}

	var msgID sql.NullInt64
	if r.MessageID != 0 {
		msgID = sql.NullInt64{Int64: int64(r.MessageID), Valid: true}
	}
	_, err := d.ExecContext(ctx, `
        INSERT INTO reports
          (user_id, username, report_date, report_content, submitted_at, chat_id, topic_id, message_id)
        VALUES (?,?,?,?,?,?,?,?)
    `, rep.UserID, rep.Username, rep.ReportDate, rep.Content, now.Format(timeLayout), rep.ChatID, rep.TopicID, msgID)
	if err != nil {
		return models.Report{}, d.fail("add report", err, "chat_id", r.ChatID, "user_id", r.UserID)
	}
	return rep, nil
}

// ReportedUsers lists who reported in chatID on day (YYYY-MM-DD), one entry
// per user in order of their first report that day.
func (d *DB) ReportedUsers(ctx context.Context, chatID int64, day string) ([]string, error) {
	rows, err := d.QueryContext(ctx, `
        SELECT username, MIN(rowid) AS first_row
        FROM reports
        WHERE chat_id = ? AND date(report_date) = date(?)
        GROUP BY user_id
        ORDER BY first_row`, chatID, day)
	if err != nil {
		return nil, d.fail("reported users", err, "chat_id", chatID)
	}
	defer rows.Close()

	res := make([]string, 0)
	for rows.Next() {
		var (
			name  sql.NullString
			first int64
		)
		if err := rows.Scan(&name, &first); err != nil {
			return nil, d.fail("reported users", err, "chat_id", chatID)
		}
		res = append(res, name.String)
	}
	if err := rows.Err(); err != nil {
		return nil, d.fail("reported users", err, "chat_id", chatID)
	}
	return res, nil
}

// ReportsWithContent returns every report in chatID on day, oldest first.
func (d *DB) ReportsWithContent(ctx context.Context, chatID int64, day string) ([]models.Report, error) {
	rows, err := d.QueryContext(ctx, `
        SELECT user_id, COALESCE(username, ''), chat_id, COALESCE(topic_id, 0),
               COALESCE(message_id, 0), date(report_date), COALESCE(report_content, ''), submitted_at
        FROM reports
        WHERE chat_id = ? AND date(report_date) = date(?)
        ORDER BY rowid`, chatID, day)
	if err != nil {
		return nil, d.fail("reports with content", err, "chat_id", chatID)
	}
	defer rows.Close()

	res := make([]models.Report, 0)
	for rows.Next() {
		var (
			r           models.Report
			submittedAt sql.NullString
		)
		if err := rows.Scan(&r.UserID, &r.Username, &r.ChatID, &r.TopicID,
			&r.MessageID, &r.ReportDate, &r.Content, &submittedAt); err != nil {
			return nil, d.fail("reports with content", err, "chat_id", chatID)
		}
		r.SubmittedAt = parseTime(submittedAt.String)
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, d.fail("reports with content", err, "chat_id", chatID)
	}
	return res, nil
}

// ---------- settings --------------------------------------------------------

// LoadFireTime returns the persisted reminder time, ok=false when none is stored.
func (d *DB) LoadFireTime(ctx context.Context) (models.ClockTime, bool, error) {
	var v string
	err := d.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=?`, fireTimeKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ClockTime{}, false, nil
	}
	if err != nil {
		return models.ClockTime{}, false, d.fail("load fire time", err)
	}
	ct, err := models.ParseClockTime(v)
	if err != nil {
		d.log.Warnw("ignoring malformed stored fire time", "value", v)
		return models.ClockTime{}, false, nil
	}
	return ct, true, nil
}

func (d *DB) SaveFireTime(ctx context.Context, ct models.ClockTime) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO settings (key, value, updated_at) VALUES (?,?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
    `, fireTimeKey, ct.String(), d.clock.Now().UTC().Format(timeLayout))
	return d.fail("save fire time", err)
}

// parseTime reads timestamps written by this package, by the sqlite driver,
// or by the legacy deployment. Unparseable values become the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		timeLayout,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
