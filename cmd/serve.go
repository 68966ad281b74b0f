package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"daily-report-bot/internal/config"
	"daily-report-bot/internal/handlers"
	"daily-report-bot/internal/httpapi"
	"daily-report-bot/internal/logger"
	"daily-report-bot/internal/notifier"
	"daily-report-bot/internal/scheduler"
	"daily-report-bot/internal/service"
	"daily-report-bot/internal/storage"
	"daily-report-bot/internal/telegram"
	"daily-report-bot/internal/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Serve(cmd.Context(), envFile)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// Serve runs the bot until ctx is cancelled.
func Serve(ctx context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	db, err := storage.New(cfg.DBPath, storage.WithLogger(log))
	utils.Must(log, err, "open report database")
	defer db.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	utils.Must(log, err, "connect to telegram")
	bot.Debug = cfg.Debug
	log.Infow("authorized", "bot", bot.Self.UserName, "id", bot.Self.ID)

	tg := telegram.New(bot,
		telegram.WithRate(cfg.SendRate),
		telegram.WithRetries(cfg.SendRetries),
		telegram.WithLogger(log),
	)
	sched, err := scheduler.New(
		notifier.New(db, tg, cfg.Location, log),
		cfg.Location, cfg.ReminderAt,
		scheduler.WithStore(db),
		scheduler.WithLogger(log),
	)
	utils.Must(log, err, "create reminder scheduler")

	svc := service.New(db, sched, service.Config{Location: cfg.Location, DefaultTopicID: cfg.DefaultTopicID}, log)
	h := handlers.New(svc, tg, bot.Self.ID, handlers.WithAdmins(cfg.AdminIDs), handlers.WithLogger(log))

	if err := tg.SetCommands(handlers.Menu(len(cfg.AdminIDs) > 0)); err != nil {
		log.Warnw("cannot register bot commands", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	sched.Start()
	g.Go(func() error {
		<-ctx.Done()
		return sched.Shutdown()
	})

	g.Go(func() error {
		poll(ctx, bot, h, cfg.PollTimeout, log)
		return nil
	})

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.NewRouter(httpapi.Deps{Ledger: db, Schedule: svc, State: sched, Log: log}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Infow("ops http listening", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	err = g.Wait()
	log.Infow("bye")
	return err
}

// poll feeds long-polled updates to h one at a time.
func poll(ctx context.Context, bot *tgbotapi.BotAPI, h *handlers.Handler, timeout int, log *zap.SugaredLogger) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	updates := bot.GetUpdatesChan(u)
	log.Infow("polling for updates", "timeout", timeout)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}
