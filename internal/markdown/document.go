// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown holds the in-memory markdown document produced by the
// converters, the token estimator, and the structure-aware chunker used by
// the AI formatting pass.
package markdown

import "strings"

// SheetSeparator is the horizontal rule placed between spreadsheet tables.
const SheetSeparator = "---"

// Section is one titled part of a document: a sheet, a slide, a page.
type Section struct {
	// Title is rendered as a heading when non-empty.
	Title string

	// Level is the heading depth; zero means 2.
	Level int

	// Body is the markdown content under the heading.
	Body string
}

// Document is an ordered sequence of sections. Section order is source
// order and is preserved by Render.
type Document struct {
	Sections []Section

	// Separator, when set, is placed on its own line between sections.
	Separator string

	verbatim bool
}

// Verbatim wraps already-written markdown so that Render returns it
// byte for byte.
func Verbatim(text string) *Document {
	return &Document{
		Sections: []Section{{Body: text}},
		verbatim: true,
	}
}

// Render serializes the document. Sections are joined by a blank line, or
// by the separator surrounded by blank lines. Sections with neither title
// nor body are omitted.
func (d *Document) Render() string {
	if d.verbatim {
		if len(d.Sections) == 0 {
			return ""
		}
		return d.Sections[0].Body
	}

	var parts []string
	for _, s := range d.Sections {
		if r := s.render(); r != "" {
			parts = append(parts, r)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	joiner := "\n\n"
	if d.Separator != "" {
		joiner = "\n\n" + d.Separator + "\n\n"
	}
	return strings.Join(parts, joiner) + "\n"
}

func (s Section) render() string {
	body := strings.Trim(s.Body, "\n")
	if s.Title == "" {
		return body
	}
	level := s.Level
	if level <= 0 {
		level = 2
	}
	heading := strings.Repeat("#", level) + " " + s.Title
	if strings.TrimSpace(body) == "" {
		return heading
	}
	return heading + "\n\n" + body
}
