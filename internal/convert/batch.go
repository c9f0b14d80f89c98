// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/doc2md/pkg/types"
)

const defaultWorkers = 4

// Runner executes a single job. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, job types.ConversionJob) Outcome
}

// BatchResult collects one Outcome per input. It is safe for concurrent
// use while a batch is running.
type BatchResult struct {
	RunID string

	mu       sync.Mutex
	outcomes map[string]Outcome
}

func newBatchResult(runID string) *BatchResult {
	return &BatchResult{RunID: runID, outcomes: make(map[string]Outcome)}
}

func (r *BatchResult) record(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o.Input] = o
}

// Outcomes returns every outcome sorted by input path.
func (r *BatchResult) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, 0, len(r.outcomes))
	for _, o := range r.outcomes {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b Outcome) int { return strings.Compare(a.Input, b.Input) })
	return out
}

func (r *BatchResult) count(match func(Outcome) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		if match(o) {
			n++
		}
	}
	return n
}

// Total returns the number of inputs with an outcome.
func (r *BatchResult) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// Succeeded counts jobs that wrote output, degraded ones included.
func (r *BatchResult) Succeeded() int {
	return r.count(func(o Outcome) bool {
		return o.Status == types.StatusConverted || o.Status == types.StatusDegraded
	})
}

// Degraded counts jobs whose AI formatting fell back to unformatted text.
func (r *BatchResult) Degraded() int {
	return r.count(Outcome.Degraded)
}

// Failed counts jobs that produced no output.
func (r *BatchResult) Failed() int {
	return r.count(func(o Outcome) bool { return o.Status == types.StatusFailed })
}

// HasFailures reports whether any job failed outright.
func (r *BatchResult) HasFailures() bool { return r.Failed() > 0 }

// Summary is the one-line aggregate printed at the end of a run.
func (r *BatchResult) Summary() string {
	return fmt.Sprintf("Batch summary: %d converted (%d degraded), %d failed (total: %d)",
		r.Succeeded(), r.Degraded(), r.Failed(), r.Total())
}

// Batch runs jobs over a bounded worker pool.
type Batch struct {
	Runner  Runner
	Workers int
	Log     logrus.FieldLogger
	// Out receives one status line per job and the summary; nil discards.
	Out io.Writer
}

// Run executes every job and returns once each has an outcome. A failing
// or panicking job never affects its siblings. Outcomes in pre are
// recorded as-is, which is how planning rejections reach the result.
func (b *Batch) Run(ctx context.Context, jobs []types.ConversionJob, pre ...Outcome) *BatchResult {
	result := newBatchResult(uuid.NewString())
	log := b.logger().WithField("run_id", result.RunID)

	workers := b.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	log.WithFields(logrus.Fields{"jobs": len(jobs), "workers": workers}).Info("starting batch")
	start := time.Now()

	var outMu sync.Mutex
	report := func(o Outcome) {
		result.record(o)
		if b.Out != nil {
			outMu.Lock()
			fmt.Fprintln(b.Out, o.Describe())
			outMu.Unlock()
		}
		entry := log.WithFields(logrus.Fields{"input": o.Input, "status": o.Status, "duration": o.Duration})
		switch o.Status {
		case types.StatusFailed:
			entry.WithError(o.Err).Error("job failed")
		case types.StatusDegraded:
			entry.Warn(strings.Join(o.Notes, "; "))
		default:
			entry.Info("job done")
		}
	}

	for _, o := range pre {
		report(o)
	}

	wp := workerpool.New(workers)
	for _, job := range jobs {
		wp.Submit(func() {
			report(b.runJob(ctx, job))
		})
	}
	wp.StopWait()

	log.WithField("elapsed", time.Since(start)).Info(result.Summary())
	if b.Out != nil {
		fmt.Fprintf(b.Out, "\n%s\n", result.Summary())
	}
	return result
}

// runJob converts a panic inside the runner into a failed outcome.
func (b *Batch) runJob(ctx context.Context, job types.ConversionJob) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			b.logger().WithField("input", job.Input).Debugf("panic: %v\n%s", r, debug.Stack())
			out = Outcome{
				Input:  job.Input,
				Output: job.Output,
				Kind:   job.Kind,
				Status: types.StatusFailed,
				Err:    fmt.Errorf("%w: panic: %v", ErrConversionFailed, r),
			}
		}
	}()
	return b.Runner.Run(ctx, job)
}

func (b *Batch) logger() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}
