// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formatter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc2md/pkg/types"
)

const promptsYAML = `
default:
  system: You are a markdown formatting expert.
  user: |
    Format the following markdown content:

    {content}
excel:
  system: You format spreadsheet tables.
  user: "Tables:\n{content}"
.PDF:
  system: You clean up PDF text.
  user: "{content}"
`

func TestParsePrompts(t *testing.T) {
	p, err := ParsePrompts([]byte(promptsYAML))
	require.NoError(t, err)
	assert.Len(t, p, 3)
	assert.Contains(t, p, "pdf", "keys are normalized")
	assert.Equal(t, "Format the following markdown content:\n\nbody\n", p[DefaultPromptKey].Render("body"))
}

func TestParsePrompts_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"not yaml", "::: [", "parsing prompts"},
		{"no default", "excel:\n  system: s\n  user: '{content}'\n", `missing "default"`},
		{"empty system", "default:\n  system: ''\n  user: '{content}'\n", "empty system prompt"},
		{"no placeholder", "default:\n  system: s\n  user: format this\n", "lacks {content}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrompts([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(promptsYAML), 0o644))

	p, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Len(t, p, 3)

	_, err = LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPromptsFor(t *testing.T) {
	p, err := ParsePrompts([]byte(promptsYAML))
	require.NoError(t, err)

	tests := []struct {
		ext  string
		kind types.FileKind
		want string
	}{
		{".pdf", types.KindPDF, "pdf"},
		{"xlsx", types.KindSpreadsheet, "excel"},
		{".XLS", types.KindSpreadsheet, "excel"},
		{".docx", types.KindWord, DefaultPromptKey},
		{"", types.KindMarkdown, DefaultPromptKey},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, key := p.For(tt.ext, tt.kind)
			assert.Equal(t, tt.want, key)
			assert.Equal(t, p[tt.want], got)
		})
	}
}

func TestDefaultPromptsAreValid(t *testing.T) {
	require.NoError(t, DefaultPrompts().Validate())
}

func TestPromptTemplate(t *testing.T) {
	p := Prompt{User: "before {content} after"}
	assert.Equal(t, "before  after", p.Template())
	assert.Equal(t, "before X after", p.Render("X"))
}
