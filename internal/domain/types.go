package domain

import (
	"math/rand"
	"sort"
	"time"
)

// Outcome is the terminal state of a customer's checkout attempt.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCompleted
	OutcomeCancelled
	OutcomeWaitTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeWaitTimedOut:
		return "wait_timed_out"
	default:
		return "pending"
	}
}

// Customer is one entry in the simulated checkout batch. All fields are
// assigned at construction and never mutated afterwards.
type Customer struct {
	ID       int
	Priority bool
	Duration time.Duration // simulated checkout work
}

// Result records a customer's terminal outcome. Each task writes its own
// result exactly once; Elapsed is zero unless the outcome is Completed.
type Result struct {
	Customer  Customer
	Outcome   Outcome
	Elapsed   time.Duration
	SubmitSeq int // position in the admission submission order
}

// DurationFn assigns a simulated work duration to a customer id.
type DurationFn func(id int) time.Duration

// PriorityFn decides whether a customer id gets priority submission.
type PriorityFn func(id int) bool

// UniformDurations draws durations uniformly from [min, max], deterministic
// for a given seed. The returned fn is stateful and meant to be called from
// single-threaded batch construction, not concurrently.
func UniformDurations(seed int64, min, max time.Duration) DurationFn {
	if max < min {
		min, max = max, min
	}
	rng := rand.New(rand.NewSource(seed))
	return func(int) time.Duration {
		if max == min {
			return min
		}
		return min + time.Duration(rng.Int63n(int64(max-min)+1))
	}
}

// FixedDurations assigns ds[id-1] to each customer; ids past the end of the
// list get the last entry.
func FixedDurations(ds []time.Duration) DurationFn {
	return func(id int) time.Duration {
		if len(ds) == 0 {
			return 0
		}
		i := id - 1
		if i < 0 {
			i = 0
		}
		if i >= len(ds) {
			i = len(ds) - 1
		}
		return ds[i]
	}
}

// EveryNth marks every id divisible by n as priority. n <= 0 marks none.
func EveryNth(n int) PriorityFn {
	return func(id int) bool { return n > 0 && id%n == 0 }
}

// NewBatch builds n customers with ids 1..n.
func NewBatch(n int, durations DurationFn, priority PriorityFn) []Customer {
	if priority == nil {
		priority = func(int) bool { return false }
	}
	batch := make([]Customer, 0, n)
	for id := 1; id <= n; id++ {
		batch = append(batch, Customer{
			ID:       id,
			Priority: priority(id),
			Duration: durations(id),
		})
	}
	return batch
}

// SortForAdmission orders the batch for admission attempts: priority
// customers first, ties broken by ascending id. This only fixes the order in
// which customers are submitted to the gate; the gate grants slots
// first-come-first-served, so under contention it is a submission-order
// preference, not a strict priority queue.
func SortForAdmission(batch []Customer) {
	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].Priority != batch[j].Priority {
			return batch[i].Priority
		}
		return batch[i].ID < batch[j].ID
	})
}
