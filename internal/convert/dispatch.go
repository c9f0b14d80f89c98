// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert routes input files to the converter for their kind, runs
// the optional AI formatting pass, writes the result, and orchestrates
// batches of such jobs over a bounded worker pool.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/pdiddy/doc2md/internal/generic"
	"github.com/pdiddy/doc2md/internal/markdown"
	"github.com/pdiddy/doc2md/internal/tabular"
	"github.com/pdiddy/doc2md/pkg/types"
)

// extensionKinds maps lower-case extensions to file kinds.
var extensionKinds = map[string]types.FileKind{
	".xlsx":     types.KindSpreadsheet,
	".xlsm":     types.KindSpreadsheet,
	".xls":      types.KindSpreadsheet,
	".csv":      types.KindSpreadsheet,
	".docx":     types.KindWord,
	".pptx":     types.KindPresentation,
	".pdf":      types.KindPDF,
	".md":       types.KindMarkdown,
	".markdown": types.KindMarkdown,
	".html":     types.KindHTML,
	".htm":      types.KindHTML,
}

// SupportedExtensions returns every recognized extension, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionKinds))
	for ext := range extensionKinds {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Classify returns the kind of path from its extension. It performs no I/O.
func Classify(path string) (types.FileKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := extensionKinds[ext]; ok {
		return kind, nil
	}
	if ext == "" {
		return "", fmt.Errorf("%s: no extension: %w", path, ErrUnsupportedFormat)
	}
	return "", fmt.Errorf("%s: extension %s: %w", path, ext, ErrUnsupportedFormat)
}

// Sniff classifies path by content and returns the kind together with the
// extension implied by the detected MIME type.
func Sniff(path string) (types.FileKind, string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", fmt.Errorf("detecting type of %s: %w", path, err)
	}
	for m := mt; m != nil; m = m.Parent() {
		if kind, ok := extensionKinds[m.Extension()]; ok {
			return kind, m.Extension(), nil
		}
	}
	return "", "", fmt.Errorf("%s: content type %s: %w", path, mt.String(), ErrUnsupportedFormat)
}

// ClassifyJob fills in job.Kind. With detect set, files with unknown
// extensions are sniffed by content.
func ClassifyJob(job *types.ConversionJob, detect bool) error {
	kind, err := Classify(job.Input)
	if err != nil && detect {
		kind, job.Ext, err = Sniff(job.Input)
	}
	if err != nil {
		return err
	}
	job.Kind = kind
	if job.Ext == "" {
		job.Ext = strings.ToLower(filepath.Ext(job.Input))
	}
	return nil
}

// Dispatcher hands a job to the converter for its kind.
type Dispatcher struct {
	Tabular tabular.Converter
	Generic generic.Extractor
}

// Convert produces the pre-AI markdown for job. Markdown inputs are read
// verbatim. Converter failures are wrapped in ErrConversionFailed.
func (d *Dispatcher) Convert(ctx context.Context, job types.ConversionJob) (*markdown.Document, error) {
	var (
		doc *markdown.Document
		err error
	)
	switch job.Kind {
	case types.KindSpreadsheet:
		conv := d.Tabular
		conv.IncludeTitles = job.IncludeTitles
		doc, err = conv.ConvertAs(job.Input, job.Ext)
	case types.KindWord, types.KindPresentation, types.KindPDF, types.KindHTML:
		if d.Generic == nil {
			return nil, fmt.Errorf("%s: no converter for %s files: %w", job.Input, job.Kind, ErrUnsupportedFormat)
		}
		doc, err = d.Generic.Extract(ctx, job.Input, job.Ext)
	case types.KindMarkdown:
		var data []byte
		data, err = os.ReadFile(job.Input)
		if err == nil {
			doc = markdown.Verbatim(string(data))
		}
	default:
		return nil, fmt.Errorf("%s: kind %q: %w", job.Input, job.Kind, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, wrap(ErrConversionFailed, err)
	}
	return doc, nil
}
