// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files.
// The file name is the key and the trimmed file contents are the value.
//
// Recognized keys: openai-api-key, deepseek-api-key, minio-access-key,
// minio-secret-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

const (
	OpenAIKey      = "openai-api-key"
	DeepSeekKey    = "deepseek-api-key"
	MinioAccessKey = "minio-access-key"
	MinioSecretKey = "minio-secret-key"
)

// Store holds loaded secrets by key.
type Store map[string]string

// Get returns the secret for key, or "" when absent.
func (s Store) Get(key string) string { return s[key] }

// Fill sets *dst to the secret for key when *dst is empty. It reports
// whether a value was taken from the store.
func (s Store) Fill(dst *string, key string) bool {
	if *dst != "" {
		return false
	}
	v, ok := s[key]
	if ok {
		*dst = v
	}
	return ok
}

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty store. Unreadable files are logged and skipped.
func Load(dir string, log logrus.FieldLogger) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	store := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if log != nil {
				log.WithError(err).WithField("secret", name).Warn("could not read secret")
			}
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			store[name] = value
		}
	}
	return store, nil
}
