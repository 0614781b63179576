// Package pipeline implements the resumable, bounded-concurrency enrichment
// run: a single coordinating goroutine pulls the input stream, filters it
// through the ledger, fans eligible items out to a fixed worker pool, and
// writes completed rows to the sink as they finish.
package pipeline

import (
	"context"
	"io"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/corpuslab/crossqa/internal/ledger"
	"github.com/corpuslab/crossqa/internal/model"
	"github.com/corpuslab/crossqa/internal/stats"
)

// Stream yields source items one at a time. Next returns io.EOF when the
// input is exhausted. Implemented by kilt.Stream.
type Stream interface {
	Next() (model.SourceItem, error)
}

// Sink receives completed rows. Implemented by sink.Sink; only the
// coordinating goroutine calls it.
type Sink interface {
	Append(row *model.EnrichedRow) error
	Kept() int
}

// Options tunes the run.
type Options struct {
	// Workers is the size of the enrichment pool. Default 8.
	Workers int
	// FanOut multiplies Workers to size the in-flight cap, keeping the
	// pool fed while individual calls stall on the network. Default 4.
	FanOut int
	// MaxKeep stops pulling from the stream once this many rows were
	// newly kept this run. Zero means unlimited. Results already in
	// flight when the cutoff trips are still drained and written.
	MaxKeep int
	// Progress, when set, is called with a delta of 1 for every item
	// accounted for (deduped or drained).
	Progress func(delta int)
}

// Pipeline wires the enricher, ledger, and sink for one run.
type Pipeline struct {
	enricher Enricher
	ledger   *ledger.Ledger
	sink     Sink
	opts     Options
}

// New creates a pipeline. The ledger must already be loaded from the sink's
// current contents.
func New(enricher Enricher, led *ledger.Ledger, out Sink, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.FanOut <= 0 {
		opts.FanOut = 4
	}
	return &Pipeline{enricher: enricher, ledger: led, sink: out, opts: opts}
}

// Run consumes the stream until it is exhausted, the MaxKeep cutoff trips,
// or ctx is cancelled. It returns the run counters; rows already written
// stay durable regardless of how the run ends.
func (p *Pipeline) Run(ctx context.Context, stream Stream) (stats.Snapshot, error) {
	capacity := p.opts.Workers * p.opts.FanOut

	// jobs is buffered to the full in-flight cap so submission never
	// blocks: the coordinator only submits when in-flight < capacity,
	// so the buffer can always take the item.
	jobs := make(chan model.SourceItem, capacity)
	results := make(chan model.Result, capacity)

	var wg sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				results <- p.enricher.Enrich(ctx, item)
			}
		}()
	}

	counters := stats.New()

	// drainOne blocks until the next completed result arrives, then
	// retrieves it, advances progress, and forwards kept rows to the
	// sink. Bounded by worker completion, never by the stream.
	drainOne := func() error {
		res := <-results
		counters.Drained(res)
		p.progress(1)
		if res.Skipped() {
			return nil
		}
		if err := p.sink.Append(res.Row); err != nil {
			return eris.Wrapf(err, "pipeline: write row %s", res.ID)
		}
		return nil
	}

	var runErr error
	for runErr == nil {
		if ctx.Err() != nil {
			break
		}
		if p.opts.MaxKeep > 0 && counters.Kept() >= p.opts.MaxKeep {
			break
		}

		item, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			runErr = eris.Wrap(err, "pipeline: read stream")
			break
		}
		counters.Pulled()

		if p.ledger.Has(p.ledger.Key(item.ID, item.Question)) {
			counters.Deduped()
			p.progress(1)
			continue
		}

		// Backpressure: at capacity, free a slot by draining one
		// completed result before submitting more.
		if counters.InFlight() >= capacity {
			if err := drainOne(); err != nil {
				runErr = err
				break
			}
		}

		counters.Submitted()
		jobs <- item
	}
	close(jobs)

	// Drain everything still in flight. Keep draining even after an
	// error so no worker is left blocked on the results channel.
	for counters.InFlight() > 0 {
		if err := drainOne(); err != nil && runErr == nil {
			runErr = err
		}
	}
	wg.Wait()

	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}

	snap := counters.Snapshot()
	zap.L().Info("pipeline: run finished", snap.LogFields()...)
	return snap, runErr
}

func (p *Pipeline) progress(delta int) {
	if p.opts.Progress != nil {
		p.opts.Progress(delta)
	}
}
