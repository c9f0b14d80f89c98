// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc2md/internal/formatter"
	"github.com/pdiddy/doc2md/internal/sink"
	"github.com/pdiddy/doc2md/pkg/types"
)

type scriptedProvider struct {
	calls  atomic.Int32
	submit func(req formatter.Request) (string, error)
}

func (p *scriptedProvider) Name() string  { return "fake" }
func (p *scriptedProvider) Model() string { return "fake-model" }
func (p *scriptedProvider) Submit(_ context.Context, req formatter.Request) (string, error) {
	p.calls.Add(1)
	return p.submit(req)
}

func newPipeline(t *testing.T, p formatter.Provider) *Pipeline {
	t.Helper()
	log, _ := test.NewNullLogger()
	pl := &Pipeline{
		Dispatcher: &Dispatcher{},
		Sink:       sink.Local{},
		Log:        log,
	}
	if p != nil {
		pl.Formatter = formatter.New(p, formatter.NewGate(0), formatter.DefaultPrompts(), nil,
			formatter.Options{MaxTokens: 3000, MaxRetries: 1}, log)
	}
	return pl
}

func TestPipeline_MarkdownCopyWithoutAI(t *testing.T) {
	dir := t.TempDir()
	content := "# Title\n\n|a|b|\n|-|-|\n|1|2|\n\ntrailing  spaces  \n"
	in := writeFile(t, dir, "in.md", content)
	out := filepath.Join(dir, "out", "in.md")

	o := newPipeline(t, nil).Run(context.Background(), types.ConversionJob{Input: in, Output: out})
	require.NoError(t, o.Err)
	assert.Equal(t, types.StatusConverted, o.Status)
	assert.Equal(t, types.KindMarkdown, o.Kind)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestPipeline_FormatsWithAI(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.md", "# Title\n\nbody text\n")
	out := filepath.Join(dir, "in_out.md")
	p := &scriptedProvider{submit: func(formatter.Request) (string, error) { return "# Title\n\nBetter body text.", nil }}

	o := newPipeline(t, p).Run(context.Background(), types.ConversionJob{Input: in, Output: out, UseAI: true})
	require.NoError(t, o.Err)
	assert.Equal(t, types.StatusConverted, o.Status)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBetter body text.\n", string(got))
	assert.Equal(t, int32(1), p.calls.Load())
}

// An authentication failure aborts formatting; the unformatted markdown is
// still written and the job succeeds with a note.
func TestPipeline_AuthFailureWritesUnformattedMarkdown(t *testing.T) {
	dir := t.TempDir()
	csv := writeFile(t, dir, "data.csv", "name,qty\napple,3\n")
	out := filepath.Join(dir, "data.md")
	p := &scriptedProvider{submit: func(formatter.Request) (string, error) {
		return "", &formatter.ProviderError{Provider: "fake", Status: 401, Err: errors.New("invalid api key")}
	}}

	o := newPipeline(t, p).Run(context.Background(), types.ConversionJob{Input: csv, Output: out, UseAI: true})
	require.NoError(t, o.Err)
	assert.Equal(t, types.StatusDegraded, o.Status)
	assert.True(t, o.Degraded())
	require.NotEmpty(t, o.Notes)
	assert.Contains(t, o.Notes[0], "AI formatting skipped")
	assert.Contains(t, o.Notes[0], "401")

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "|name|qty|\n|---|---|\n|apple|3|\n", string(got))
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestPipeline_AIExtensionsLimitFormatting(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.md", "text\n")
	p := &scriptedProvider{submit: func(formatter.Request) (string, error) { return "TEXT", nil }}
	pl := newPipeline(t, p)
	pl.AIExtensions = []string{"xlsx", ".PDF"}

	o := pl.Run(context.Background(), types.ConversionJob{Input: in, Output: filepath.Join(dir, "o.md"), UseAI: true})
	require.NoError(t, o.Err)
	assert.Equal(t, types.StatusConverted, o.Status)
	assert.Equal(t, int32(0), p.calls.Load())

	pl.AIExtensions = []string{"md"}
	o = pl.Run(context.Background(), types.ConversionJob{Input: in, Output: filepath.Join(dir, "o.md"), UseAI: true})
	require.NoError(t, o.Err)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestPipeline_Failures(t *testing.T) {
	dir := t.TempDir()
	md := writeFile(t, dir, "ok.md", "x\n")
	blocker := writeFile(t, dir, "blocker", "")

	tests := []struct {
		name string
		job  types.ConversionJob
		is   error
	}{
		{"unsupported", types.ConversionJob{Input: writeFile(t, dir, "a.txt", "x"), Output: filepath.Join(dir, "a.md")}, ErrUnsupportedFormat},
		{"corrupt", types.ConversionJob{Input: writeFile(t, dir, "bad.xlsx", "zip?"), Output: filepath.Join(dir, "bad.md")}, ErrConversionFailed},
		{"missing", types.ConversionJob{Input: filepath.Join(dir, "gone.md"), Output: filepath.Join(dir, "gone_out.md")}, ErrConversionFailed},
		{"write", types.ConversionJob{Input: md, Output: filepath.Join(blocker, "ok.md")}, ErrOutputWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newPipeline(t, nil).Run(context.Background(), tt.job)
			assert.Equal(t, types.StatusFailed, o.Status)
			assert.ErrorIs(t, o.Err, tt.is)
			assert.Contains(t, o.Describe(), "failed:")
		})
	}
}

func TestBatch_IsolatesFailures(t *testing.T) {
	in := t.TempDir()
	good := []string{
		writeXLSX(t, in, "one.xlsx", [][]any{{"a", "b"}, {1, 2}}),
		writeFile(t, in, "two.csv", "x,y\n3,4\n"),
		writeFile(t, in, "three.md", "# Three\n"),
	}
	bad := []string{
		writeFile(t, in, "broken.xlsx", "definitely not a zip archive"),
		writeFile(t, in, "truncated.xlsx", "PK\x03\x04"),
	}
	out := filepath.Join(t.TempDir(), "out")

	plan, err := Plan(in, out, PlanOptions{})
	require.NoError(t, err)
	require.Len(t, plan.Jobs, 5)

	var buf bytes.Buffer
	log, _ := test.NewNullLogger()
	b := &Batch{Runner: newPipeline(t, nil), Workers: 2, Log: log, Out: &buf}
	res := b.Run(context.Background(), plan.Jobs, plan.Rejected...)

	assert.Equal(t, 5, res.Total())
	assert.Equal(t, 3, res.Succeeded())
	assert.Equal(t, 2, res.Failed())
	assert.True(t, res.HasFailures())
	assert.NotEmpty(t, res.RunID)

	for _, p := range good {
		_, err := os.Stat(filepath.Join(out, mdName(filepath.Base(p))))
		assert.NoError(t, err, p)
	}
	for _, p := range bad {
		_, err := os.Stat(filepath.Join(out, mdName(filepath.Base(p))))
		assert.True(t, os.IsNotExist(err), p)
	}

	outcomes := res.Outcomes()
	require.Len(t, outcomes, 5)
	for i := 1; i < len(outcomes); i++ {
		assert.Less(t, outcomes[i-1].Input, outcomes[i].Input)
	}
	assert.Contains(t, buf.String(), "Batch summary: 3 converted (0 degraded), 2 failed (total: 5)")
}

type funcRunner func(ctx context.Context, job types.ConversionJob) Outcome

func (f funcRunner) Run(ctx context.Context, job types.ConversionJob) Outcome { return f(ctx, job) }

func TestBatch_RecoversPanics(t *testing.T) {
	runner := funcRunner(func(_ context.Context, job types.ConversionJob) Outcome {
		if strings.Contains(job.Input, "boom") {
			panic("index out of range")
		}
		return Outcome{Input: job.Input, Status: types.StatusConverted}
	})
	log, _ := test.NewNullLogger()
	res := (&Batch{Runner: runner, Log: log}).Run(context.Background(), []types.ConversionJob{
		{Input: "a.md"}, {Input: "boom.md"}, {Input: "c.md"},
	})

	assert.Equal(t, 2, res.Succeeded())
	assert.Equal(t, 1, res.Failed())
	for _, o := range res.Outcomes() {
		if o.Input == "boom.md" {
			assert.ErrorIs(t, o.Err, ErrConversionFailed)
			assert.ErrorContains(t, o.Err, "index out of range")
		}
	}
}

func TestBatch_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	runner := funcRunner(func(_ context.Context, job types.ConversionJob) Outcome {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return Outcome{Input: job.Input, Status: types.StatusConverted}
	})

	var jobs []types.ConversionJob
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		jobs = append(jobs, types.ConversionJob{Input: name})
	}
	log, _ := test.NewNullLogger()
	res := (&Batch{Runner: runner, Workers: 3, Log: log}).Run(context.Background(), jobs)

	assert.Equal(t, 8, res.Succeeded())
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestBatch_DegradedCountsAsSuccess(t *testing.T) {
	in := t.TempDir()
	writeFile(t, in, "a.md", "alpha\n")
	writeFile(t, in, "b.md", "beta\n")
	p := &scriptedProvider{submit: func(formatter.Request) (string, error) {
		return "", &formatter.ProviderError{Provider: "fake", Status: 403, Err: errors.New("forbidden")}
	}}

	plan, err := Plan(in, filepath.Join(t.TempDir(), "o"), PlanOptions{UseAI: true})
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	res := (&Batch{Runner: newPipeline(t, p), Log: log}).Run(context.Background(), plan.Jobs)

	assert.Equal(t, 2, res.Succeeded())
	assert.Equal(t, 2, res.Degraded())
	assert.False(t, res.HasFailures())
}

func TestBatchResult_ConcurrentRecord(t *testing.T) {
	r := newBatchResult("run")
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.record(Outcome{Input: string(rune('a' + i%26)) + strings.Repeat("x", i), Status: types.StatusConverted})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Total())
}
