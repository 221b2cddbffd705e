package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"checkoutsim/internal/domain"
	"checkoutsim/internal/report"
	"checkoutsim/internal/runner"
	"checkoutsim/internal/scheduler"
)

func main() {
	var (
		tasks    = flag.Int("tasks", 10, "customers in the batch")
		capacity = flag.Int("capacity", 3, "checkout counters open at once")
		workMin  = flag.Duration("work-min", 2*time.Second, "minimum simulated checkout time")
		workMax  = flag.Duration("work-max", 5*time.Second, "maximum simulated checkout time")
		timeout  = flag.Duration("work-timeout", 4*time.Second, "per-customer budget once admitted")
		ceiling  = flag.Duration("wait-ceiling", 5*time.Second, "how long a customer waits for a counter")
		seed     = flag.Int64("seed", 0, "duration RNG seed (0 = time-based)")
		priMod   = flag.Int("priority-mod", 3, "ids divisible by this get priority (0 disables)")
		arrival  = flag.Duration("arrival-every", 0, "pace between submissions (0 = all at once)")
		cronExpr = flag.String("cron", "", "soak mode: re-run the batch on this cron schedule")
		jsonOut  = flag.Bool("json", false, "machine-readable JSON logs and report")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	if !*jsonOut {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	durations := domain.UniformDurations(rngSeed, *workMin, *workMax)

	runOnce := func(ctx context.Context) error {
		runID := "run_" + uuid.NewString()
		logger := log.With().Str("run_id", runID).Logger()
		r, err := runner.New(runner.Config{
			Tasks:        *tasks,
			Capacity:     *capacity,
			WorkTimeout:  *timeout,
			WaitCeiling:  *ceiling,
			Durations:    durations,
			Priority:     domain.EveryNth(*priMod),
			ArrivalEvery: *arrival,
			Logger:       logger,
		})
		if err != nil {
			return err
		}
		results, err := r.Run(ctx)
		if err != nil {
			return err
		}
		rep := report.Build(runID, r.Ledger().Entries(), results)
		rep.Log(logger)
		if *jsonOut {
			return rep.WriteJSON(os.Stdout)
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("shutting down")
		cancel()
	}()

	if *cronExpr != "" {
		svc, err := scheduler.NewService(*cronExpr, runOnce, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("soak schedule")
		}
		svc.Start(ctx)
		return
	}

	if err := runOnce(ctx); err != nil {
		log.Fatal().Err(err).Msg("batch")
	}
}
