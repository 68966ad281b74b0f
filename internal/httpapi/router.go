// Package httpapi serves the operational endpoints next to the bot.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"daily-report-bot/internal/models"
	"daily-report-bot/internal/service"
)

type Ledger interface {
	Ping(ctx context.Context) error
	AllGroups(ctx context.Context) ([]models.Group, error)
}

type Schedule interface {
	Schedule() (service.Schedule, error)
}

type Stater interface {
	State() models.State
}

type Deps struct {
	Ledger   Ledger
	Schedule Schedule
	State    Stater
	Log      *zap.SugaredLogger
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.With("component", "http")

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Ledger.Ping(ctx); err != nil {
			log.Warnw("health check failed", "error", err)
			http.Error(w, "ledger unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/schedule", func(w http.ResponseWriter, r *http.Request) {
		sch, err := d.Schedule.Schedule()
		if err != nil {
			log.Warnw("schedule unavailable", "error", err)
			http.Error(w, "schedule unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, scheduleResp{
			FireTime: sch.FireTime.String(),
			Timezone: sch.Location.String(),
			NextRun:  sch.NextRun.In(sch.Location),
			State:    d.State.State().String(),
		})
	})

	r.Get("/groups", func(w http.ResponseWriter, r *http.Request) {
		groups, err := d.Ledger.AllGroups(r.Context())
		if err != nil {
			http.Error(w, "ledger unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, groups)
	})

	return r
}

type scheduleResp struct {
	FireTime string    `json:"fire_time"`
	Timezone string    `json:"timezone"`
	NextRun  time.Time `json:"next_run"`
	State    string    `json:"state"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
