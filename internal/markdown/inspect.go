// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// Outline summarizes the block structure of a markdown text.
type Outline struct {
	Headings int
	Tables   int
	Rows     int
}

// Inspect parses text and counts its headings, tables and table rows.
func Inspect(text string) Outline {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(text))

	var o Outline
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch node.(type) {
		case *ast.Heading:
			o.Headings++
		case *ast.Table:
			o.Tables++
		case *ast.TableRow:
			o.Rows++
		}
		return ast.GoToNext
	})
	return o
}
