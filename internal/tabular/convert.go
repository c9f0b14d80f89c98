// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tabular

import (
	"path/filepath"

	"github.com/pdiddy/doc2md/internal/markdown"
)

// Converter turns a workbook into a markdown document with one section per
// sheet.
type Converter struct {
	// IncludeTitles renders a "## <sheet>" heading above each table.
	IncludeTitles bool
}

// Convert reads the workbook at path and renders each sheet, in workbook
// order, as a compact pipe table. Sheets are separated by a horizontal
// rule. A sheet with no content yields a section with only its heading.
func (c Converter) Convert(path string) (*markdown.Document, error) {
	return c.ConvertAs(path, filepath.Ext(path))
}

// ConvertAs is Convert for a file whose format ext was detected from its
// content rather than its name.
func (c Converter) ConvertAs(path, ext string) (*markdown.Document, error) {
	reader, err := ReaderForExt(ext)
	if err != nil {
		return nil, err
	}
	tables, err := reader.Read(path)
	if err != nil {
		return nil, err
	}
	return c.Render(tables), nil
}

// Render builds the document for already-read tables.
func (c Converter) Render(tables []Table) *markdown.Document {
	doc := &markdown.Document{Separator: markdown.SheetSeparator}
	for i := range tables {
		sec := markdown.Section{Body: Markdown(Normalize(&tables[i]))}
		if c.IncludeTitles {
			sec.Title = tables[i].Name
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}
