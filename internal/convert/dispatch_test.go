// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/doc2md/internal/markdown"
	"github.com/pdiddy/doc2md/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeXLSX saves a one-sheet workbook with the given rows.
func writeXLSX(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want types.FileKind
	}{
		{"a.xlsx", types.KindSpreadsheet},
		{"a.XLSM", types.KindSpreadsheet},
		{"dir/a.xls", types.KindSpreadsheet},
		{"a.csv", types.KindSpreadsheet},
		{"a.docx", types.KindWord},
		{"a.pptx", types.KindPresentation},
		{"a.pdf", types.KindPDF},
		{"a.md", types.KindMarkdown},
		{"a.markdown", types.KindMarkdown},
		{"a.html", types.KindHTML},
		{"a.htm", types.KindHTML},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Classify(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"a.txt", "a.doc", "README", "archive.tar.gz"} {
		_, err := Classify(bad)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, bad)
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	assert.IsNonDecreasing(t, exts)
	assert.Contains(t, exts, ".xlsx")
	assert.Contains(t, exts, ".pdf")
	assert.NotContains(t, exts, ".txt")
}

func TestClassifyJob_DetectContent(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "scan", "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	text := writeFile(t, dir, "notes.txt", "just some words\n")

	job := types.ConversionJob{Input: pdf}
	assert.ErrorIs(t, ClassifyJob(&job, false), ErrUnsupportedFormat)

	require.NoError(t, ClassifyJob(&job, true))
	assert.Equal(t, types.KindPDF, job.Kind)
	assert.Equal(t, ".pdf", job.Ext)

	job = types.ConversionJob{Input: text}
	assert.ErrorIs(t, ClassifyJob(&job, true), ErrUnsupportedFormat)

	job = types.ConversionJob{Input: filepath.Join(dir, "Book.XLSX")}
	require.NoError(t, ClassifyJob(&job, false))
	assert.Equal(t, ".xlsx", job.Ext)
}

type fakeExtractor struct {
	gotExt string
	err    error
}

func (f *fakeExtractor) Extract(_ context.Context, path, ext string) (*markdown.Document, error) {
	f.gotExt = ext
	if f.err != nil {
		return nil, f.err
	}
	return markdown.Verbatim("# " + filepath.Base(path) + "\n"), nil
}

func TestDispatcher_Convert(t *testing.T) {
	dir := t.TempDir()
	md := writeFile(t, dir, "notes.md", "# Notes\n\n  keep   spacing\n")
	csv := writeFile(t, dir, "data.csv", "a,b\n1,2\n")
	ex := &fakeExtractor{}
	d := &Dispatcher{Generic: ex}

	doc, err := d.Convert(context.Background(), types.ConversionJob{Input: md, Kind: types.KindMarkdown})
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n\n  keep   spacing\n", doc.Render())

	doc, err = d.Convert(context.Background(), types.ConversionJob{Input: csv, Kind: types.KindSpreadsheet, Ext: ".csv"})
	require.NoError(t, err)
	assert.Equal(t, "|a|b|\n|---|---|\n|1|2|\n", doc.Render())

	doc, err = d.Convert(context.Background(), types.ConversionJob{Input: "scan", Kind: types.KindPDF, Ext: ".pdf"})
	require.NoError(t, err)
	assert.Equal(t, "# scan\n", doc.Render())
	assert.Equal(t, ".pdf", ex.gotExt)
}

func TestDispatcher_ConversionFailedKeepsCause(t *testing.T) {
	cause := errors.New("corrupt stream")
	d := &Dispatcher{Generic: &fakeExtractor{err: cause}}

	_, err := d.Convert(context.Background(), types.ConversionJob{Input: "x.docx", Kind: types.KindWord, Ext: ".docx"})
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.ErrorIs(t, err, cause)

	bad := writeFile(t, t.TempDir(), "bad.xlsx", "not a workbook")
	_, err = d.Convert(context.Background(), types.ConversionJob{Input: bad, Kind: types.KindSpreadsheet, Ext: ".xlsx"})
	assert.ErrorIs(t, err, ErrConversionFailed)

	_, err = d.Convert(context.Background(), types.ConversionJob{Input: "x", Kind: "video"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = (&Dispatcher{}).Convert(context.Background(), types.ConversionJob{Input: "x.pdf", Kind: types.KindPDF})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
