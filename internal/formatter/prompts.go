// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formatter

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doc2md/pkg/types"
)

// ContentPlaceholder is replaced by the chunk text in a user template.
const ContentPlaceholder = "{content}"

// DefaultPromptKey names the entry used when nothing more specific matches.
const DefaultPromptKey = "default"

// Prompt is one system prompt and user template pair.
type Prompt struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Render substitutes content into the user template.
func (p Prompt) Render(content string) string {
	return strings.ReplaceAll(p.User, ContentPlaceholder, content)
}

// Template returns the user template with the placeholder removed, which
// is the part of the prompt that does not depend on the chunk.
func (p Prompt) Template() string {
	return strings.ReplaceAll(p.User, ContentPlaceholder, "")
}

// Prompts maps a file extension or kind alias to its prompt.
type Prompts map[string]Prompt

// kindAliases are the lookup keys tried after the bare extension.
var kindAliases = map[types.FileKind]string{
	types.KindSpreadsheet:  "excel",
	types.KindWord:         "word",
	types.KindPresentation: "presentation",
	types.KindPDF:          "pdf",
	types.KindMarkdown:     "markdown",
	types.KindHTML:         "html",
}

// DefaultPrompts is used when no prompts file is present.
func DefaultPrompts() Prompts {
	return Prompts{
		DefaultPromptKey: {
			System: "You are a markdown formatting expert. Improve the structure and readability of the markdown you are given without adding, removing or changing any information. Keep every table. Reply with markdown only.",
			User:   "Format the following markdown content:\n\n{content}",
		},
		"excel": {
			System: "You are a markdown formatting expert working on tables extracted from spreadsheets. Keep every table and every cell value exactly. You may fix headers and alignment. Reply with markdown only.",
			User:   "Format the following markdown tables:\n\n{content}",
		},
	}
}

// LoadPrompts reads and validates a YAML prompts file.
func LoadPrompts(path string) (Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file %s: %w", path, err)
	}
	p, err := ParsePrompts(data)
	if err != nil {
		return nil, fmt.Errorf("prompts file %s: %w", path, err)
	}
	return p, nil
}

// ParsePrompts decodes and validates YAML prompt definitions.
func ParsePrompts(data []byte) (Prompts, error) {
	var raw map[string]Prompt
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing prompts: %w", err)
	}
	p := make(Prompts, len(raw))
	for k, v := range raw {
		p[strings.ToLower(strings.TrimPrefix(k, "."))] = v
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that a default entry exists and that every entry has a
// system prompt and a user template containing the content placeholder.
func (p Prompts) Validate() error {
	if _, ok := p[DefaultPromptKey]; !ok {
		return fmt.Errorf("missing %q prompt", DefaultPromptKey)
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := p[k]
		if strings.TrimSpace(v.System) == "" {
			return fmt.Errorf("prompt %q: empty system prompt", k)
		}
		if !strings.Contains(v.User, ContentPlaceholder) {
			return fmt.Errorf("prompt %q: user template lacks %s", k, ContentPlaceholder)
		}
	}
	return nil
}

// For selects the prompt for a file: the extension first, then the alias
// of its kind, then the default. It also returns the key that matched.
func (p Prompts) For(ext string, kind types.FileKind) (Prompt, string) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if v, ok := p[ext]; ok && ext != "" {
		return v, ext
	}
	if alias, ok := kindAliases[kind]; ok {
		if v, ok := p[alias]; ok {
			return v, alias
		}
	}
	return p[DefaultPromptKey], DefaultPromptKey
}
