// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generic

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/doc2md/internal/container"
	"github.com/pdiddy/doc2md/internal/markdown"
)

// Markitdown converts documents by piping them through the markitdown
// container image.
type Markitdown struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdown verifies that image exists in rt and returns an extractor
// that runs it.
func NewMarkitdown(ctx context.Context, rt container.Runtime, image string) (*Markitdown, error) {
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &Markitdown{runtime: rt, image: image}, nil
}

// Extract implements Extractor. The container output is taken as-is.
// The container sniffs the format itself, so ext is not used.
func (m *Markitdown) Extract(ctx context.Context, path, _ string) (*markdown.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, m.image, f, &out); err != nil {
		return nil, fmt.Errorf("converting %s with markitdown: %w", path, err)
	}

	if strings.TrimSpace(out.String()) == "" {
		return nil, fmt.Errorf("markitdown output for %s: %w", path, ErrNoContent)
	}
	return markdown.Verbatim(out.String()), nil
}
