// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/doc2md/internal/formatter"
	"github.com/pdiddy/doc2md/internal/sink"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Outcome is the result of one job.
type Outcome struct {
	Input  string
	Output string
	Kind   types.FileKind
	Status types.JobStatus
	// Err is set when Status is StatusFailed.
	Err error
	// Notes carry warnings, including why formatting was degraded.
	Notes    []string
	Duration time.Duration
}

// Degraded reports whether the output was written without a complete AI
// formatting pass.
func (o Outcome) Degraded() bool { return o.Status == types.StatusDegraded }

// Pipeline runs one job: classify, convert, optionally format, write.
type Pipeline struct {
	Dispatcher *Dispatcher
	// Formatter is nil when AI formatting is off for the run.
	Formatter *formatter.Formatter
	// AIExtensions limits formatting to these extensions; empty allows all.
	AIExtensions []string
	Sink         sink.Sink
	// DetectContent sniffs files whose extension is not recognized.
	DetectContent bool
	Log           logrus.FieldLogger
}

// Run executes job and reports how it ended. It never returns an error:
// failures are recorded in the Outcome.
func (p *Pipeline) Run(ctx context.Context, job types.ConversionJob) Outcome {
	start := time.Now()
	out := p.run(ctx, job)
	out.Duration = time.Since(start)
	return out
}

func (p *Pipeline) run(ctx context.Context, job types.ConversionJob) Outcome {
	out := Outcome{Input: job.Input, Output: job.Output, Kind: job.Kind}
	fail := func(err error) Outcome {
		out.Status = types.StatusFailed
		out.Err = err
		return out
	}

	if job.Kind == "" {
		if err := ClassifyJob(&job, p.DetectContent); err != nil {
			return fail(err)
		}
		out.Kind = job.Kind
	}
	if job.Ext == "" {
		job.Ext = extOf(job.Input)
	}
	log := p.logger().WithFields(logrus.Fields{"input": job.Input, "kind": job.Kind})

	doc, err := p.Dispatcher.Convert(ctx, job)
	if err != nil {
		return fail(err)
	}
	text := doc.Render()
	out.Status = types.StatusConverted

	if job.UseAI {
		switch {
		case p.Formatter == nil:
			out.Notes = append(out.Notes, "AI formatting requested but no provider is configured")
		case !p.aiEligible(job.Ext):
			log.Debugf("AI formatting not enabled for %s files", job.Ext)
		default:
			res, err := p.Formatter.Format(ctx, doc, job.Ext, job.Kind)
			switch {
			case err != nil && ctx.Err() != nil:
				return fail(ctx.Err())
			case err != nil:
				log.WithError(err).Warn("AI formatting aborted, keeping unformatted markdown")
				out.Status = types.StatusDegraded
				out.Notes = append(out.Notes, "AI formatting skipped: "+err.Error())
			default:
				text = res.Document.Render()
				out.Notes = append(out.Notes, res.Warnings...)
				if res.Degraded() {
					out.Status = types.StatusDegraded
				}
				log.WithFields(logrus.Fields{
					"chunks":    res.Chunks,
					"formatted": res.Formatted,
					"fallbacks": len(res.Fallbacks),
				}).Debug("AI formatting done")
			}
		}
	}

	if err := p.Sink.Write(ctx, job.Output, []byte(text)); err != nil {
		return fail(wrap(ErrOutputWrite, err))
	}
	return out
}

func (p *Pipeline) aiEligible(ext string) bool {
	if len(p.AIExtensions) == 0 {
		return true
	}
	for _, e := range p.AIExtensions {
		if normalizeExt(e) == ext {
			return true
		}
	}
	return false
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Describe renders an outcome as one status line.
func (o Outcome) Describe() string {
	switch o.Status {
	case types.StatusFailed:
		return fmt.Sprintf("failed:    %s (%v)", o.Input, o.Err)
	case types.StatusDegraded:
		return fmt.Sprintf("degraded:  %s -> %s (%s)", o.Input, o.Output, strings.Join(o.Notes, "; "))
	case types.StatusSkipped:
		return fmt.Sprintf("skipped:   %s", o.Input)
	}
	return fmt.Sprintf("converted: %s -> %s", o.Input, o.Output)
}
