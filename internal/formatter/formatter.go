// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formatter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/doc2md/internal/markdown"
	"github.com/pdiddy/doc2md/pkg/types"
)

const (
	// promptReserve is held back from the model's token window for the
	// response framing.
	promptReserve = 500
	// minContentBudget keeps chunks usable when prompts are long.
	minContentBudget = 256

	defaultChunkWorkers = 4
	defaultMaxRetries   = 3
)

// Options tunes a Formatter.
type Options struct {
	// MaxTokens is the model's token window for one request.
	MaxTokens      int
	ChunkWorkers   int
	MaxRetries     int
	RequestTimeout time.Duration

	// Count estimates tokens; nil uses markdown.EstimateTokens.
	Count markdown.Counter
}

// Formatter runs documents through one provider. A Formatter is safe for
// concurrent use; all documents share its gate and cache.
type Formatter struct {
	provider Provider
	gate     *Gate
	prompts  Prompts
	cache    *Cache
	opts     Options
	log      logrus.FieldLogger
}

// New returns a Formatter. gate must be the run's gate for p; cache may be
// nil to disable response caching.
func New(p Provider, gate *Gate, prompts Prompts, cache *Cache, opts Options, log logrus.FieldLogger) *Formatter {
	if opts.ChunkWorkers <= 0 {
		opts.ChunkWorkers = defaultChunkWorkers
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if gate == nil {
		gate = NewGate(0)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Formatter{
		provider: p,
		gate:     gate,
		prompts:  prompts,
		cache:    cache,
		opts:     opts,
		log:      log.WithField("provider", p.Name()),
	}
}

// Provider returns the provider the formatter submits to.
func (f *Formatter) Provider() Provider { return f.provider }

// Result is the outcome of a formatting pass.
type Result struct {
	Document *markdown.Document
	// Chunks is the number of chunks the document was split into.
	Chunks int
	// Formatted counts chunks replaced by a provider response.
	Formatted int
	// Fallbacks lists chunks that kept their original text after retries
	// ran out.
	Fallbacks []int
	Warnings  []string
}

// Degraded reports whether any chunk kept its unformatted text.
func (r *Result) Degraded() bool { return len(r.Fallbacks) > 0 }

// ContentBudget is the token budget left for chunk content once the system
// prompt, the fixed part of the user template and a reserve are paid for.
func ContentBudget(maxTokens int, p Prompt, count markdown.Counter) int {
	if count == nil {
		count = markdown.EstimateTokens
	}
	budget := maxTokens - count(p.System) - count(p.Template()) - promptReserve
	return max(budget, minContentBudget)
}

// Format formats doc, choosing the prompt by file extension and kind.
//
// Chunks are submitted concurrently and reassembled in index order. A chunk
// whose transient failures outlast the retry budget keeps its original
// text and is listed in Result.Fallbacks. A non-transient failure aborts
// the pass and is returned as a *ProviderError; the caller keeps doc.
func (f *Formatter) Format(ctx context.Context, doc *markdown.Document, ext string, kind types.FileKind) (*Result, error) {
	prompt, key := f.prompts.For(ext, kind)
	budget := ContentBudget(f.opts.MaxTokens, prompt, f.opts.Count)
	chunker := &markdown.Chunker{MaxTokens: budget, Count: f.opts.Count}
	chunks := chunker.Split(doc.Render())

	log := f.log.WithFields(logrus.Fields{"prompt": key, "chunks": len(chunks), "budget": budget})
	log.Debug("formatting document")

	res := &Result{Chunks: len(chunks)}
	out := make([]string, len(chunks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.ChunkWorkers)
	for _, ch := range chunks {
		g.Go(func() error {
			text, warn, err := f.formatChunk(gctx, ch, prompt, log)
			if err != nil {
				var te *TransientError
				if !errors.As(err, &te) || gctx.Err() != nil {
					return err
				}
				log.WithField("chunk", ch.Index).Warnf("keeping original text: %v", err)
				mu.Lock()
				res.Fallbacks = append(res.Fallbacks, ch.Index)
				res.Warnings = append(res.Warnings, fmt.Sprintf("chunk %d kept unformatted: %v", ch.Index, err))
				mu.Unlock()
				out[ch.Index] = ch.Text
				return nil
			}
			mu.Lock()
			res.Formatted++
			if warn != "" {
				res.Warnings = append(res.Warnings, warn)
			}
			mu.Unlock()
			out[ch.Index] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var pe *ProviderError
		if !errors.As(err, &pe) {
			err = &ProviderError{Provider: f.provider.Name(), Err: err}
		}
		return nil, err
	}

	slices.Sort(res.Fallbacks)
	slices.Sort(res.Warnings)
	res.Document = markdown.Verbatim(strings.Join(out, ""))
	return res, nil
}

// formatChunk returns the reassembled text for one chunk and an optional
// warning about the response.
func (f *Formatter) formatChunk(ctx context.Context, ch markdown.Chunk, prompt Prompt, log logrus.FieldLogger) (string, string, error) {
	body := strings.TrimSpace(ch.Text)
	if body == "" {
		return ch.Text, "", nil
	}

	req := Request{
		Index:     ch.Index,
		System:    prompt.System,
		User:      prompt.Render(body),
		MaxTokens: f.opts.MaxTokens,
	}

	key := cacheKey(f.provider.Name(), f.provider.Model(), req)
	resp, ok := f.cache.get(key)
	if !ok {
		var err error
		resp, err = submitWithRetry(ctx, f.provider, f.gate, req, f.opts.MaxRetries, f.opts.RequestTimeout, log)
		if err != nil {
			return "", "", err
		}
		f.cache.set(key, resp)
	} else {
		log.WithField("chunk", ch.Index).Debug("response served from cache")
	}

	formatted := strings.TrimSpace(resp)
	if !strings.HasPrefix(body, "```") {
		formatted = unwrapFence(formatted)
	}
	var warn string
	if in, got := markdown.Inspect(body).Tables, markdown.Inspect(formatted).Tables; got < in {
		warn = fmt.Sprintf("chunk %d: response has %d of %d tables", ch.Index, got, in)
		log.WithField("chunk", ch.Index).Warn(warn)
	}

	lead := ch.Text[:strings.Index(ch.Text, body)]
	trail := ch.Text[len(lead)+len(body):]
	return lead + formatted + trail, warn, nil
}

// unwrapFence strips a code fence that wraps the entire response, which
// chat models often add around markdown answers.
func unwrapFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	first := strings.IndexByte(s, '\n')
	if first < 0 {
		return s
	}
	info := strings.TrimSpace(strings.TrimLeft(s[:first], "`"))
	if info != "" && info != "markdown" && info != "md" {
		return s
	}
	inner := s[first+1 : len(s)-3]
	if strings.Contains(inner, "\n```") {
		return s
	}
	return strings.TrimSpace(inner)
}
