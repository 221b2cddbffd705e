package report

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"checkoutsim/internal/domain"
)

// Report is the batch summary: every completed checkout ranked by service
// time, plus diagnostic counts for the declined outcomes.
type Report struct {
	RunID        string
	Completed    []domain.Result // ascending by elapsed, ties by lowest id
	Cancelled    int
	WaitTimedOut int
}

// Build assembles a report from the ledger's completions and the full result
// set. Zero completions is a valid, reportable state.
func Build(runID string, completed []domain.Result, results []domain.Result) Report {
	rep := Report{RunID: runID, Completed: append([]domain.Result(nil), completed...)}
	sort.SliceStable(rep.Completed, func(i, j int) bool {
		if rep.Completed[i].Elapsed != rep.Completed[j].Elapsed {
			return rep.Completed[i].Elapsed < rep.Completed[j].Elapsed
		}
		return rep.Completed[i].Customer.ID < rep.Completed[j].Customer.ID
	})
	for _, res := range results {
		switch res.Outcome {
		case domain.OutcomeCancelled:
			rep.Cancelled++
		case domain.OutcomeWaitTimedOut:
			rep.WaitTimedOut++
		}
	}
	return rep
}

// Fastest returns the completed checkout with the smallest elapsed time,
// ties broken by lowest id. ok is false when nothing completed.
func (r Report) Fastest() (domain.Result, bool) {
	if len(r.Completed) == 0 {
		return domain.Result{}, false
	}
	return r.Completed[0], true
}

// Log writes one line per ranked checkout and a closing summary. It always
// emits the summary, even for an empty ranking.
func (r Report) Log(log zerolog.Logger) {
	for rank, res := range r.Completed {
		log.Info().
			Int("rank", rank+1).
			Int("id", res.Customer.ID).
			Bool("priority", res.Customer.Priority).
			Dur("elapsed", res.Elapsed).
			Msg("checkout time")
	}
	ev := log.Info().
		Int("completed", len(r.Completed)).
		Int("cancelled", r.Cancelled).
		Int("wait_timed_out", r.WaitTimedOut)
	if fastest, ok := r.Fastest(); ok {
		ev = ev.Int("fastest_id", fastest.Customer.ID).Dur("fastest_elapsed", fastest.Elapsed)
	}
	ev.Msg("batch summary")
}

type jsonEntry struct {
	ID        int   `json:"id"`
	Priority  bool  `json:"priority"`
	ElapsedMS int64 `json:"elapsed_ms"`
}

type jsonReport struct {
	RunID        string      `json:"run_id"`
	Completed    []jsonEntry `json:"completed"`
	Cancelled    int         `json:"cancelled"`
	WaitTimedOut int         `json:"wait_timed_out"`
	Fastest      *jsonEntry  `json:"fastest,omitempty"`
}

// WriteJSON renders the report for machine consumption.
func (r Report) WriteJSON(w io.Writer) error {
	out := jsonReport{
		RunID:        r.RunID,
		Completed:    make([]jsonEntry, 0, len(r.Completed)),
		Cancelled:    r.Cancelled,
		WaitTimedOut: r.WaitTimedOut,
	}
	for _, res := range r.Completed {
		out.Completed = append(out.Completed, jsonEntry{
			ID:        res.Customer.ID,
			Priority:  res.Customer.Priority,
			ElapsedMS: int64(res.Elapsed / time.Millisecond),
		})
	}
	if fastest, ok := r.Fastest(); ok {
		out.Fastest = &jsonEntry{
			ID:        fastest.Customer.ID,
			Priority:  fastest.Customer.Priority,
			ElapsedMS: int64(fastest.Elapsed / time.Millisecond),
		}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}
