package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"checkoutsim/internal/domain"
	"checkoutsim/internal/gate"
	"checkoutsim/internal/ledger"
)

var ErrNoDurations = errors.New("runner: duration source is required")

// Config holds one batch's knobs. Everything the simulation varies on is
// here rather than hard-coded.
type Config struct {
	Tasks       int           // customers in the batch
	Capacity    int           // open checkout counters (gate slots)
	WorkTimeout time.Duration // per-customer budget once admitted
	WaitCeiling time.Duration // how long a customer waits for a counter

	Durations domain.DurationFn
	Priority  domain.PriorityFn

	// ArrivalEvery paces the submission loop, modelling customers arriving
	// over time instead of all at once. Zero submits everything immediately.
	ArrivalEvery time.Duration

	Logger zerolog.Logger
}

func (c Config) validate() error {
	if c.Tasks < 0 {
		return fmt.Errorf("runner: tasks must be >= 0, got %d", c.Tasks)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("runner: capacity must be >= 0, got %d", c.Capacity)
	}
	if c.WorkTimeout <= 0 {
		return fmt.Errorf("runner: work timeout must be positive, got %s", c.WorkTimeout)
	}
	if c.WaitCeiling <= 0 {
		return fmt.Errorf("runner: wait ceiling must be positive, got %s", c.WaitCeiling)
	}
	if c.Durations == nil {
		return ErrNoDurations
	}
	return nil
}

// Runner executes one customer batch against a shared admission gate and
// completion ledger. The gate and ledger are owned by the runner and handed
// to each task explicitly; nothing is shared through package globals.
type Runner struct {
	cfg     Config
	gate    *gate.Gate
	ledger  *ledger.Ledger
	limiter *rate.Limiter
	log     zerolog.Logger
}

func New(cfg Config) (*Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:    cfg,
		gate:   gate.New(cfg.Capacity),
		ledger: ledger.New(),
		log:    cfg.Logger,
	}
	if cfg.ArrivalEvery > 0 {
		r.limiter = rate.NewLimiter(rate.Every(cfg.ArrivalEvery), 1)
	}
	return r, nil
}

// Gate exposes the admission gate, mainly for diagnostics.
func (r *Runner) Gate() *gate.Gate { return r.gate }

// Ledger exposes the completion ledger.
func (r *Runner) Ledger() *ledger.Ledger { return r.ledger }

// Run builds the batch, submits it in admission order, and blocks until every
// customer reaches a terminal outcome. Results are indexed by submission
// sequence. Individual timeouts and cancellations are normal outcomes, not
// errors; the returned error only covers being unable to run at all.
func (r *Runner) Run(ctx context.Context) ([]domain.Result, error) {
	batch := domain.NewBatch(r.cfg.Tasks, r.cfg.Durations, r.cfg.Priority)
	domain.SortForAdmission(batch)

	results := make([]domain.Result, len(batch))
	var wg sync.WaitGroup
	for seq, c := range batch {
		if r.limiter != nil {
			// A cancelled ctx just stops the pacing; each task still runs
			// and turns the cancellation into its own terminal outcome.
			_ = r.limiter.Wait(ctx)
		}
		r.log.Debug().Int("id", c.ID).Int("seq", seq).Bool("priority", c.Priority).Msg("submitted")
		wg.Add(1)
		go func(seq int, c domain.Customer) {
			defer wg.Done()
			results[seq] = r.serve(ctx, seq, c)
		}(seq, c)
	}
	wg.Wait()

	r.log.Debug().
		Int("admitted", r.gate.Acquires()).
		Int("high_water", r.gate.HighWater()).
		Bool("slots_balanced", r.gate.Balanced()).
		Msg("batch drained")
	return results, nil
}

// serve runs a single customer: wait for a counter, then do the simulated
// work under its own deadline. The slot release is deferred immediately
// after a successful acquire so every exit path returns it exactly once.
func (r *Runner) serve(ctx context.Context, seq int, c domain.Customer) domain.Result {
	res := domain.Result{Customer: c, SubmitSeq: seq}

	waitCtx, cancelWait := context.WithTimeout(ctx, r.cfg.WaitCeiling)
	release, ok := r.gate.Acquire(waitCtx)
	cancelWait()
	if !ok {
		if ctx.Err() != nil {
			res.Outcome = domain.OutcomeCancelled
		} else {
			res.Outcome = domain.OutcomeWaitTimedOut
		}
		r.log.Info().Int("id", c.ID).Stringer("outcome", res.Outcome).Msg("left the line")
		return res
	}
	defer release()

	// The work budget starts at admission; waiting in line doesn't eat it.
	workCtx, cancelWork := context.WithTimeout(ctx, r.cfg.WorkTimeout)
	defer cancelWork()

	start := time.Now()
	timer := time.NewTimer(c.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		res.Outcome = domain.OutcomeCompleted
		res.Elapsed = time.Since(start)
		r.ledger.Append(res)
		r.log.Info().Int("id", c.ID).Dur("elapsed", res.Elapsed).Msg("checked out")
	case <-workCtx.Done():
		// Cooperative stop; partial work is discarded, not reported.
		res.Outcome = domain.OutcomeCancelled
		r.log.Info().Int("id", c.ID).Dur("budget", r.cfg.WorkTimeout).Msg("cancelled mid-service")
	}
	return res
}
