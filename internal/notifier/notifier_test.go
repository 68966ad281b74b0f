package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"daily-report-bot/internal/models"
)

var bangkok, _ = time.LoadLocation("Asia/Bangkok")

type fakeGroups struct {
	groups []models.Group
	err    error
}

func (f fakeGroups) AllGroups(context.Context) ([]models.Group, error) { return f.groups, f.err }

type fakeSender struct {
	mu     sync.Mutex
	sent   []models.Outgoing
	failOn map[int64]error
}

func (f *fakeSender) Send(_ context.Context, msg models.Outgoing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.failOn[msg.ChatID]
}

func threeGroups() []models.Group {
	return []models.Group{
		{ChatID: -1, Name: "one"},
		{ChatID: -2, Name: "two", TopicID: 9},
		{ChatID: -3, Name: "three", TopicID: 39824},
	}
}

func TestFireContinuesPastFailedGroup(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sender := &fakeSender{failOn: map[int64]error{-2: errors.New("bot was kicked")}}
	n := New(fakeGroups{groups: threeGroups()}, sender, bangkok, zap.New(core).Sugar())

	d := n.Fire(context.Background(), time.Date(2026, 10, 19, 10, 0, 0, 0, bangkok))

	require.NoError(t, d.Err)
	require.Len(t, sender.sent, 3)
	assert.Equal(t, int64(-1), sender.sent[0].ChatID)
	assert.Equal(t, int64(-2), sender.sent[1].ChatID)
	assert.Equal(t, int64(9), sender.sent[1].TopicID)
	assert.Equal(t, int64(-3), sender.sent[2].ChatID)
	assert.Equal(t, int64(39824), sender.sent[2].TopicID)

	require.Len(t, d.Sent, 2)
	require.Len(t, d.Failures, 1)
	assert.Equal(t, int64(-2), d.Failures[0].ChatID)
	assert.True(t, errors.Is(d.Failures[0], models.ErrDelivery))
	assert.Equal(t, 3, d.Attempted())

	failed := logs.FilterMessage("failed to send reminder").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(-2), failed[0].ContextMap()["chat_id"])
}

func TestWeekendAndWeekdayText(t *testing.T) {
	n := New(fakeGroups{}, &fakeSender{}, bangkok, zap.NewNop().Sugar())
	require.NotEqual(t, WeekdayText, WeekendText)

	days := map[time.Weekday]string{
		time.Monday:    WeekdayText,
		time.Tuesday:   WeekdayText,
		time.Wednesday: WeekdayText,
		time.Thursday:  WeekdayText,
		time.Friday:    WeekdayText,
		time.Saturday:  WeekendText,
		time.Sunday:    WeekendText,
	}
	// 2026-10-19 is a Monday.
	for i := 0; i < 7; i++ {
		now := time.Date(2026, 10, 19+i, 10, 0, 0, 0, bangkok)
		assert.Equal(t, days[now.Weekday()], n.Text(now), now.Weekday().String())
		// same answer every time
		assert.Equal(t, n.Text(now), n.Text(now))
	}
}

func TestFireUsesOneTextForAllGroups(t *testing.T) {
	sender := &fakeSender{}
	n := New(fakeGroups{groups: threeGroups()}, sender, bangkok, zap.NewNop().Sugar())

	d := n.Fire(context.Background(), time.Date(2026, 10, 17, 10, 0, 0, 0, bangkok))
	assert.Equal(t, WeekendText, d.Text)
	for _, m := range sender.sent {
		assert.Equal(t, WeekendText, m.Text)
	}
}

func TestFireWithoutGroups(t *testing.T) {
	sender := &fakeSender{}
	n := New(fakeGroups{}, sender, bangkok, zap.NewNop().Sugar())

	d := n.Fire(context.Background(), time.Now())
	assert.NoError(t, d.Err)
	assert.Zero(t, d.Attempted())
	assert.Empty(t, sender.sent)
}

func TestFireReportsSnapshotFailure(t *testing.T) {
	sender := &fakeSender{}
	storageErr := &models.StorageError{Op: "all groups", Err: errors.New("disk I/O error")}
	n := New(fakeGroups{err: storageErr}, sender, bangkok, zap.NewNop().Sugar())

	d := n.Fire(context.Background(), time.Now())
	assert.ErrorIs(t, d.Err, models.ErrStorage)
	assert.Empty(t, sender.sent)
}

func TestFireStopsWhenCancelled(t *testing.T) {
	sender := &fakeSender{}
	n := New(fakeGroups{groups: threeGroups()}, sender, bangkok, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := n.Fire(ctx, time.Now())
	assert.ErrorIs(t, d.Err, context.Canceled)
	assert.Empty(t, sender.sent)
}
