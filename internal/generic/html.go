// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generic

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pdiddy/doc2md/internal/markdown"
)

var (
	htmlOnce      sync.Once
	htmlPolicy    *bluemonday.Policy
	htmlConverter *converter.Converter
)

func htmlTools() (*bluemonday.Policy, *converter.Converter) {
	htmlOnce.Do(func() {
		htmlPolicy = bluemonday.UGCPolicy()
		htmlConverter = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		)
	})
	return htmlPolicy, htmlConverter
}

// extractHTML strips scripts, styles and event handlers, then converts the
// remaining markup to CommonMark with tables.
func extractHTML(path string) (*markdown.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	policy, conv := htmlTools()
	clean := policy.Sanitize(string(data))

	md, err := conv.ConvertString(clean)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoContent)
	}
	return markdown.Verbatim(md + "\n"), nil
}
