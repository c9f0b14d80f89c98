// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Store
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OpenAIKey, "  sk-abc123  \n")
				writeFile(t, dir, DeepSeekKey, "ds-xyz789")
				return dir
			},
			want: Store{OpenAIKey: "sk-abc123", DeepSeekKey: "ds-xyz789"},
		},
		{
			name: "returns empty store for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Store{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OpenAIKey, "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: Store{OpenAIKey: "valid-key"},
		},
		{
			name: "skips dotfiles and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				writeFile(t, dir, MinioAccessKey, "minio")
				return dir
			},
			want: Store{MinioAccessKey: "minio"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()
			got, err := Load(tt.setup(t), log)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, filepath.Dir(file), "file", "x")

	_, err := Load(file, nil)
	assert.Error(t, err)
}

func TestStore_Fill(t *testing.T) {
	s := Store{OpenAIKey: "from-file"}

	empty := ""
	assert.True(t, s.Fill(&empty, OpenAIKey))
	assert.Equal(t, "from-file", empty)

	set := "from-env"
	assert.False(t, s.Fill(&set, OpenAIKey))
	assert.Equal(t, "from-env", set)

	missing := ""
	assert.False(t, s.Fill(&missing, DeepSeekKey))
	assert.Equal(t, "", missing)
	assert.Equal(t, "", s.Get(DeepSeekKey))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
