// Package stats tracks per-run pipeline counters. The counters are owned by
// the coordinating goroutine and mutated only there; workers never touch
// them.
package stats

import (
	"time"

	"go.uber.org/zap"

	"github.com/corpuslab/crossqa/internal/model"
)

// Counters accumulates progress over one pipeline run.
type Counters struct {
	started     time.Time
	pulled      int
	deduped     int
	submitted   int
	kept        int
	degraded    int
	skips       map[model.SkipReason]int
	inFlight    int
	maxInFlight int
}

// New creates a zeroed counter set with the run clock started.
func New() *Counters {
	return &Counters{
		started: time.Now().UTC(),
		skips:   make(map[model.SkipReason]int),
	}
}

// Pulled records an item read from the input stream.
func (c *Counters) Pulled() { c.pulled++ }

// Deduped records an item skipped because the ledger already has it.
func (c *Counters) Deduped() { c.deduped++ }

// Submitted records an item handed to the worker pool.
func (c *Counters) Submitted() {
	c.submitted++
	c.inFlight++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
}

// Drained records a retrieved result and its outcome.
func (c *Counters) Drained(res model.Result) {
	c.inFlight--
	if res.Skipped() {
		c.skips[res.Skip]++
		return
	}
	c.kept++
	if res.Row.Degraded {
		c.degraded++
	}
}

// InFlight returns the number of submitted-but-undrained tasks.
func (c *Counters) InFlight() int { return c.inFlight }

// Kept returns the rows kept so far this run.
func (c *Counters) Kept() int { return c.kept }

// Snapshot is a point-in-time view of the run, used for the end-of-run
// summary and by tests.
type Snapshot struct {
	Pulled      int                      `json:"pulled"`
	Deduped     int                      `json:"deduped"`
	Submitted   int                      `json:"submitted"`
	Kept        int                      `json:"kept"`
	Degraded    int                      `json:"degraded"`
	Skips       map[model.SkipReason]int `json:"skips"`
	MaxInFlight int                      `json:"max_in_flight"`
	Elapsed     time.Duration            `json:"elapsed"`
}

// Snapshot captures the current counter values.
func (c *Counters) Snapshot() Snapshot {
	skips := make(map[model.SkipReason]int, len(c.skips))
	for k, v := range c.skips {
		skips[k] = v
	}
	return Snapshot{
		Pulled:      c.pulled,
		Deduped:     c.deduped,
		Submitted:   c.submitted,
		Kept:        c.kept,
		Degraded:    c.degraded,
		Skips:       skips,
		MaxInFlight: c.maxInFlight,
		Elapsed:     time.Since(c.started),
	}
}

// LogFields renders the snapshot as zap fields for the summary line.
func (s Snapshot) LogFields() []zap.Field {
	fields := []zap.Field{
		zap.Int("pulled", s.Pulled),
		zap.Int("deduped", s.Deduped),
		zap.Int("submitted", s.Submitted),
		zap.Int("kept", s.Kept),
		zap.Int("degraded", s.Degraded),
		zap.Int("max_in_flight", s.MaxInFlight),
		zap.Duration("elapsed", s.Elapsed),
	}
	for reason, n := range s.Skips {
		fields = append(fields, zap.Int("skip_"+string(reason), n))
	}
	return fields
}
