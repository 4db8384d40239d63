package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const sweepTimeout = 30 * time.Second

// Scheduler runs the periodic notification retry sweep.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler registers the retry sweep of w on spec, e.g. "@every 1m".
func NewScheduler(spec string, w *NotificationWorker, log zerolog.Logger) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		w.RequeueDeferred(ctx)
	}); err != nil {
		return nil, fmt.Errorf("scheduling retry sweep %q: %w", spec, err)
	}
	return &Scheduler{
		cron: c,
		log:  log.With().Str("component", "scheduler").Logger(),
	}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}
