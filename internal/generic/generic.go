// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generic converts word-processing documents, presentations, PDFs
// and HTML pages into markdown. Two backends exist: the markitdown
// container image, and native readers built on pdfcpu, archive/zip and
// html-to-markdown.
package generic

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/doc2md/internal/container"
	"github.com/pdiddy/doc2md/internal/markdown"
	"github.com/pdiddy/doc2md/pkg/types"
)

// DefaultImage is the markitdown container image used when none is configured.
const DefaultImage = "markitdown:latest"

// ErrNoContent is returned when a document yields no text at all.
var ErrNoContent = errors.New("no text content found")

// Extractor turns one document into markdown. ext is the document's
// format as a lower-case extension; it differs from the file name's
// extension when the format was detected from content.
type Extractor interface {
	Extract(ctx context.Context, path, ext string) (*markdown.Document, error)
}

// detectRuntime is replaced in tests.
var detectRuntime = container.DetectRuntime

// New selects the extractor for the configured backend. In auto mode the
// markitdown container is used when a runtime and the image are present,
// and the native readers otherwise.
func New(ctx context.Context, cfg types.GenericConfig, log logrus.FieldLogger) (Extractor, error) {
	image := cfg.Image
	if image == "" {
		image = DefaultImage
	}

	switch cfg.Backend {
	case types.BackendNative:
		return Native{}, nil

	case types.BackendMarkitdown:
		rt, err := detectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewMarkitdown(ctx, rt, image)

	case types.BackendAuto, "":
		rt, err := detectRuntime(ctx)
		if err == nil {
			m, mErr := NewMarkitdown(ctx, rt, image)
			if mErr == nil {
				log.WithFields(logrus.Fields{"runtime": rt.Name(), "image": image}).Debug("using markitdown backend")
				return m, nil
			}
			err = mErr
		}
		log.WithError(err).Debug("markitdown unavailable, using native readers")
		return Native{}, nil
	}

	return nil, fmt.Errorf("unknown generic backend %q", cfg.Backend)
}

// Native dispatches to the built-in reader for the format.
type Native struct{}

// Extract implements Extractor. An empty ext means the file name's
// extension.
func (Native) Extract(ctx context.Context, path, ext string) (*markdown.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ext == "" {
		ext = filepath.Ext(path)
	}
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDocx(path)
	case ".pptx":
		return extractPptx(path)
	case ".html", ".htm":
		return extractHTML(path)
	}
	return nil, fmt.Errorf("no native reader for %q files", ext)
}
