// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc2md/pkg/types"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, closer, err := New(types.LogConfig{Level: tt.level})
			require.NoError(t, err)
			defer closer.Close()
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	_, _, err := New(types.LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(types.LogConfig{Format: "xml"})
	assert.ErrorContains(t, err, "xml")
}

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "doc2md.log")
	log, closer, err := New(types.LogConfig{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	log.WithField("input", "a.xlsx").Info("job done")
	log.Debug("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "job done", entry["msg"])
	assert.Equal(t, "a.xlsx", entry["input"])
	assert.Equal(t, "info", entry["level"])
}
