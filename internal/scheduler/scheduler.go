package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"daily-report-bot/internal/logger"
	"daily-report-bot/internal/models"
	"daily-report-bot/internal/notifier"
)

const jobName = "daily-reminder"

var ErrNotStarted = errors.New("scheduler not started")

type Notifier interface {
	Fire(ctx context.Context, now time.Time) notifier.Delivery
}

// FireTimeStore persists the admin-set reminder time across restarts.
type FireTimeStore interface {
	LoadFireTime(ctx context.Context) (models.ClockTime, bool, error)
	SaveFireTime(ctx context.Context, ct models.ClockTime) error
}

// Scheduler owns the single daily reminder job.
type Scheduler struct {
	mu      sync.Mutex
	cron    gocron.Scheduler
	job     gocron.Job
	at      models.ClockTime
	started bool

	state atomic.Int32

	notifier Notifier
	store    FireTimeStore
	loc      *time.Location
	clock    clockwork.Clock
	timeout  time.Duration
	results  chan<- notifier.Delivery
	log      *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Scheduler)

func WithClock(c clockwork.Clock) Option { return func(s *Scheduler) { s.clock = c } }

func WithStore(st FireTimeStore) Option { return func(s *Scheduler) { s.store = st } }

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Scheduler) { s.log = l.With("component", "scheduler") }
}

// WithRunTimeout bounds one fan-out.
func WithRunTimeout(d time.Duration) Option { return func(s *Scheduler) { s.timeout = d } }

// WithResults receives the outcome of every run. Sends never block; a full
// channel drops the result.
func WithResults(ch chan<- notifier.Delivery) Option { return func(s *Scheduler) { s.results = ch } }

// New installs the daily job at the persisted fire time, or at def when none
// is stored. The job does not run until Start.
func New(n Notifier, loc *time.Location, def models.ClockTime, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		notifier: n,
		loc:      loc,
		clock:    clockwork.NewRealClock(),
		timeout:  10 * time.Minute,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.at = def
	if s.store != nil {
		stored, ok, err := s.store.LoadFireTime(s.ctx)
		switch {
		case err != nil:
			s.log.Warnw("cannot load stored fire time, using default", "default", def.String(), "error", err)
		case ok:
			s.at = stored
		}
	}

	cron, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithClock(s.clock),
		gocron.WithLogger(logger.Gocron{L: s.log}),
	)
	if err != nil {
		s.cancel()
		return nil, err
	}
	s.cron = cron

	job, err := cron.NewJob(s.definition(s.at), gocron.NewTask(s.run), s.jobOptions()...)
	if err != nil {
		s.cancel()
		_ = cron.Shutdown()
		return nil, fmt.Errorf("install reminder job: %w", err)
	}
	s.job = job
	s.state.Store(int32(models.StateScheduled))
	s.log.Infow("reminder scheduled", "fire_time", s.at.String(), "timezone", loc.String())
	return s, nil
}

func (s *Scheduler) definition(at models.ClockTime) gocron.JobDefinition {
	return gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(at.Hour), uint(at.Minute), 0)))
}

func (s *Scheduler) jobOptions() []gocron.JobOption {
	return []gocron.JobOption{
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(
			gocron.BeforeJobRuns(func(jobID uuid.UUID, name string) {
				s.log.Debugw("reminder job starting", "job_id", jobID.String(), "job", name)
			}),
			gocron.AfterJobRunsWithError(func(jobID uuid.UUID, name string, err error) {
				s.log.Warnw("reminder job finished with error", "job_id", jobID.String(), "job", name, "error", err)
			}),
		),
	}
}

func (s *Scheduler) run() (err error) {
	s.state.Store(int32(models.StateFiring))
	defer s.state.Store(int32(models.StateScheduled))
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("reminder run panicked", "panic", r)
			err = fmt.Errorf("reminder run panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	d := s.notifier.Fire(ctx, s.clock.Now().In(s.loc))
	if s.results != nil {
		select {
		case s.results <- d:
		default:
			s.log.Debugw("reminder result dropped")
		}
	}
	if d.Err != nil {
		return d.Err
	}
	if len(d.Failures) > 0 {
		return fmt.Errorf("%d of %d groups not reached", len(d.Failures), d.Attempted())
	}
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cron.Start()
	s.started = true
}

// Shutdown stops the job and waits for a running fan-out to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	s.state.Store(int32(models.StateUnset))
	return s.cron.Shutdown()
}

func (s *Scheduler) State() models.State { return models.State(s.state.Load()) }

func (s *Scheduler) FireTime() models.ClockTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.at
}

func (s *Scheduler) Location() *time.Location { return s.loc }

// NextRun is zero until the scheduler has been started.
func (s *Scheduler) NextRun() (time.Time, error) {
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()
	return job.NextRun()
}

// SetFireTime replaces the daily job's time. The job keeps its identity, so
// there is never a moment with zero or two reminder jobs. An invalid raw
// value returns a *models.ValidationError and leaves the schedule untouched.
func (s *Scheduler) SetFireTime(ctx context.Context, raw string) (models.ClockTime, error) {
	at, err := models.ParseClockTime(raw)
	if err != nil {
		return models.ClockTime{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if at == s.at {
		return at, nil
	}

	job, err := s.cron.Update(s.job.ID(), s.definition(at), gocron.NewTask(s.run), s.jobOptions()...)
	if err != nil {
		return s.at, fmt.Errorf("reschedule reminder: %w", err)
	}
	prev := s.at
	s.job, s.at = job, at
	s.log.Infow("reminder rescheduled", "from", prev.String(), "to", at.String())

	if s.store != nil {
		// the new time is already live; a failed save only loses it on restart
		if err := s.store.SaveFireTime(ctx, at); err != nil {
			s.log.Errorw("fire time not persisted", "fire_time", at.String(), "error", err)
		}
	}
	return at, nil
}

// Trigger runs the reminder now without touching the schedule.
func (s *Scheduler) Trigger() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	return s.job.RunNow()
}
