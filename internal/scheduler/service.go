package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RunFunc executes one simulation batch to completion.
type RunFunc func(ctx context.Context) error

// Service drives soak mode: it re-runs the batch at each firing of a cron
// expression until stopped. Descriptor forms like "@every 30s" work too.
type Service struct {
	sched cron.Schedule
	expr  string
	run   RunFunc
	log   zerolog.Logger
	stop  chan struct{}
}

func NewService(expr string, run RunFunc, log zerolog.Logger) (*Service, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron expression %q: %w", expr, err)
	}
	return &Service{
		sched: sched,
		expr:  expr,
		run:   run,
		log:   log,
		stop:  make(chan struct{}),
	}, nil
}

// Start blocks, running a batch at every firing, until ctx ends or Stop is
// called. A failed run is logged and the schedule keeps going.
func (s *Service) Start(ctx context.Context) {
	s.log.Info().Str("cron", s.expr).Msg("soak schedule started")
	for {
		next := s.sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
			if err := s.run(ctx); err != nil {
				s.log.Error().Err(err).Msg("soak run failed")
			}
		}
	}
}

func (s *Service) Stop() {
	close(s.stop)
}

// ValidateExpression checks a cron expression without building a service.
func ValidateExpression(expr string) error {
	_, err := cron.ParseStandard(expr)
	return err
}

// NextRunTime returns the next firing of expr after from.
func NextRunTime(expr string, from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}
