// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"iter"
	"regexp"
	"strings"
)

// Chunk is a contiguous slice of a markdown document sized for one model
// request. Concatenating the Text of all chunks in Index order reproduces
// the input exactly.
type Chunk struct {
	Index  int
	Text   string
	Tokens int
}

// Chunker splits markdown into chunks of at most MaxTokens estimated
// tokens, cutting at section boundaries first, then between blocks, then
// between the lines of tables and lists. Paragraphs, fenced code blocks and
// single table rows are never cut; one that alone exceeds MaxTokens becomes
// a chunk of its own.
type Chunker struct {
	MaxTokens int

	// Count estimates tokens; nil uses EstimateTokens.
	Count Counter
}

var (
	headingRe  = regexp.MustCompile(`^ {0,3}#{1,6}(\s|$)`)
	fenceRe    = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
	listItemRe = regexp.MustCompile(`^\s*([-*+]|\d{1,9}[.)])\s`)
)

// Chunks returns a lazy sequence over the chunks of text. The sequence can
// be ranged over more than once and yields the same chunks each time.
func (c *Chunker) Chunks(text string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		if text == "" {
			return
		}
		p := &packer{max: c.MaxTokens, yield: yield}
		if p.max <= 0 {
			p.max = 1
		}
		root := c.parse(text)
		p.add(root)
		p.flush()
	}
}

// Split collects Chunks(text) into a slice.
func (c *Chunker) Split(text string) []Chunk {
	var out []Chunk
	for ch := range c.Chunks(text) {
		out = append(out, ch)
	}
	return out
}

func (c *Chunker) count(text string) int {
	if c.Count != nil {
		return c.Count(text)
	}
	return EstimateTokens(text)
}

// unit is a node of the split hierarchy. Atomic units have no parts; a
// composite unit's text is the concatenation of its parts and its token
// count is their sum.
type unit struct {
	text   string
	tokens int
	parts  []unit
}

func (c *Chunker) leaf(text string) unit {
	return unit{text: text, tokens: c.count(text)}
}

func composite(parts []unit) unit {
	if len(parts) == 1 {
		return parts[0]
	}
	var b strings.Builder
	total := 0
	for _, p := range parts {
		b.WriteString(p.text)
		total += p.tokens
	}
	return unit{text: b.String(), tokens: total, parts: parts}
}

// line is one input line (newline included) with its classification.
type line struct {
	text    string
	blank   bool
	heading bool
	inFence bool
}

func classify(text string) []line {
	raw := strings.SplitAfter(text, "\n")
	if raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	lines := make([]line, 0, len(raw))
	fence := ""
	for _, t := range raw {
		trimmed := strings.TrimRight(t, "\r\n")
		l := line{text: t}
		switch {
		case fence != "":
			l.inFence = true
			if closesFence(trimmed, fence) {
				fence = ""
			}
		case fenceRe.MatchString(trimmed):
			l.inFence = true
			fence = fenceRe.FindStringSubmatch(trimmed)[1]
		default:
			l.blank = strings.TrimSpace(trimmed) == ""
			l.heading = headingRe.MatchString(trimmed)
		}
		lines = append(lines, l)
	}
	return lines
}

func closesFence(s, open string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, open) {
		return false
	}
	return strings.Trim(s, open[:1]) == ""
}

func (c *Chunker) parse(text string) unit {
	lines := classify(text)

	var sections []unit
	start := 0
	for i, l := range lines {
		if l.heading && i > start {
			sections = append(sections, c.section(lines[start:i]))
			start = i
		}
	}
	sections = append(sections, c.section(lines[start:]))
	return composite(sections)
}

// section splits the lines of one section into blocks. A block is a run of
// content lines followed by its trailing blank lines; fenced code, blank
// lines included, always stays inside one block.
func (c *Chunker) section(lines []line) unit {
	var blocks []unit
	start := 0
	sawGap := false
	for i, l := range lines {
		if l.blank {
			sawGap = true
			continue
		}
		if sawGap && hasContent(lines[start:i]) {
			blocks = append(blocks, c.block(lines[start:i]))
			start = i
		}
		sawGap = false
	}
	blocks = append(blocks, c.block(lines[start:]))
	return composite(blocks)
}

func hasContent(lines []line) bool {
	for _, l := range lines {
		if !l.blank {
			return true
		}
	}
	return false
}

// block returns a splittable unit when the block holds a table or a list,
// and an atomic unit otherwise. Lines before the first row or item stay
// together; from there a new part starts at each row or item, so wrapped
// continuation lines and fenced code travel with the item above them.
func (c *Chunker) block(lines []line) unit {
	first := -1
	for i, l := range lines {
		if startsPart(l) {
			first = i
			break
		}
	}
	if first < 0 {
		return c.leaf(join(lines))
	}

	var parts []unit
	if first > 0 {
		parts = append(parts, c.leaf(join(lines[:first])))
	}
	cur := []line{lines[first]}
	for _, l := range lines[first+1:] {
		if startsPart(l) {
			parts = append(parts, c.leaf(join(cur)))
			cur = nil
		}
		cur = append(cur, l)
	}
	parts = append(parts, c.leaf(join(cur)))
	return composite(parts)
}

// startsPart reports whether l is a table row or list item outside a fence.
func startsPart(l line) bool {
	return !l.blank && !l.inFence && isLineSplittable(l.text)
}

func isLineSplittable(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "|") || listItemRe.MatchString(s)
}

func join(lines []line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.text)
	}
	return b.String()
}

// packer greedily fills chunks with units, descending into a composite unit
// only when it cannot fit into an empty chunk.
type packer struct {
	max     int
	yield   func(Chunk) bool
	index   int
	cur     strings.Builder
	tokens  int
	stopped bool
}

func (p *packer) add(u unit) {
	if p.stopped {
		return
	}
	if p.cur.Len() > 0 && p.tokens+u.tokens <= p.max {
		p.append(u)
		return
	}
	if u.tokens > p.max && len(u.parts) > 0 {
		for _, part := range u.parts {
			p.add(part)
		}
		return
	}
	p.flush()
	p.append(u)
	if p.tokens > p.max {
		p.flush()
	}
}

func (p *packer) append(u unit) {
	p.cur.WriteString(u.text)
	p.tokens += u.tokens
}

func (p *packer) flush() {
	if p.stopped || p.cur.Len() == 0 {
		return
	}
	ch := Chunk{Index: p.index, Text: p.cur.String(), Tokens: p.tokens}
	p.index++
	p.cur.Reset()
	p.tokens = 0
	if !p.yield(ch) {
		p.stopped = true
	}
}
