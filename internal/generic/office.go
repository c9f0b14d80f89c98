// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generic

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	pathpkg "path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/doc2md/internal/markdown"
	"github.com/pdiddy/doc2md/internal/tabular"
)

// block is a paragraph or a table read from an Office Open XML part.
type block struct {
	text  string
	level int  // heading level, 0 for body text
	list  bool // paragraph carries numbering
	rows  [][]string
}

func (b block) render() string {
	switch {
	case b.rows != nil:
		return strings.TrimRight(tabular.Markdown(tabular.Normalize(&tabular.Table{Rows: b.rows})), "\n")
	case b.level > 0:
		return strings.Repeat("#", min(b.level, 6)) + " " + b.text
	case b.list:
		return "- " + b.text
	}
	return b.text
}

// renderBlocks joins blocks with blank lines; consecutive list items are
// kept on adjacent lines.
func renderBlocks(blocks []block) string {
	var b strings.Builder
	for i, blk := range blocks {
		if i > 0 {
			if blk.list && blocks[i-1].list {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(blk.render())
	}
	return b.String()
}

// parseParts walks WordprocessingML or DrawingML. Both use the local names
// p, t, tbl, tr and tc, so one walker serves documents and slides.
func parseParts(r io.Reader) ([]block, error) {
	dec := xml.NewDecoder(r)

	var (
		blocks   []block
		para     strings.Builder
		inText   bool
		style    string
		numbered bool
		tblDepth int
		rows     [][]string
		cell     []string
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
				if tblDepth == 1 {
					rows = [][]string{}
				}
			case "tr":
				if tblDepth == 1 {
					rows = append(rows, nil)
				}
			case "tc":
				if tblDepth == 1 {
					cell = nil
				}
			case "p":
				para.Reset()
				style, numbered = "", false
			case "pStyle":
				style = attr(t, "val")
			case "numPr", "buChar", "buAutoNum":
				numbered = true
			case "t":
				inText = true
			case "tab":
				para.WriteByte(' ')
			case "br":
				para.WriteByte('\n')
			}

		case xml.CharData:
			if inText {
				para.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				if text == "" {
					continue
				}
				if tblDepth > 0 {
					cell = append(cell, text)
					continue
				}
				blocks = append(blocks, block{text: text, level: headingLevel(style), list: numbered})
			case "tc":
				if tblDepth == 1 && len(rows) > 0 {
					rows[len(rows)-1] = append(rows[len(rows)-1], strings.Join(cell, "\n"))
				}
			case "tbl":
				tblDepth--
				if tblDepth == 0 && len(rows) > 0 {
					blocks = append(blocks, block{rows: rows})
					rows = nil
				}
			}
		}
	}
	return blocks, nil
}

func attr(e xml.StartElement, local string) string {
	for _, a := range e.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// headingLevel maps paragraph style ids such as "Heading2" or "Title" to a
// heading depth.
func headingLevel(style string) int {
	lower := strings.ToLower(style)
	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	for _, prefix := range []string{"heading", "titre", "überschrift", "見出し"} {
		if rest, ok := strings.CutPrefix(lower, prefix); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && n >= 1 && n <= 6 {
				return n
			}
		}
	}
	return 0
}

func openPart(f *zip.File) ([]block, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()
	blocks, err := parseParts(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	return blocks, nil
}

// extractDocx reads word/document.xml into a single section.
func extractDocx(path string) (*markdown.Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		blocks, err := openPart(f)
		if err != nil {
			return nil, err
		}
		if len(blocks) == 0 {
			return nil, fmt.Errorf("%s: %w", path, ErrNoContent)
		}
		return &markdown.Document{Sections: []markdown.Section{{Body: renderBlocks(blocks)}}}, nil
	}
	return nil, fmt.Errorf("%s: word/document.xml not found", path)
}

var slideRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPptx reads the slides in deck order, one section per slide,
// titled by position. Deck order comes from the sldIdLst of
// ppt/presentation.xml; without it the slide file numbers decide.
func extractPptx(path string) (*markdown.Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	slides, err := deckOrder(files)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(slides) == 0 {
		slides = numericOrder(zr.File)
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("%s: no slides found", path)
	}

	doc := &markdown.Document{}
	for i, f := range slides {
		blocks, err := openPart(f)
		if err != nil {
			return nil, err
		}
		doc.Sections = append(doc.Sections, markdown.Section{
			Title: "Slide " + strconv.Itoa(i+1),
			Body:  renderBlocks(blocks),
		})
	}
	return doc, nil
}

func numericOrder(all []*zip.File) []*zip.File {
	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	for _, f := range all {
		if m := slideRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{n: n, f: f})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	out := make([]*zip.File, len(slides))
	for i, s := range slides {
		out[i] = s.f
	}
	return out
}

// deckOrder resolves the relationship ids listed in sldIdLst to slide parts.
// It returns nil when the presentation part or its relationships are
// missing, or when no listed id resolves to a slide in the archive.
func deckOrder(files map[string]*zip.File) ([]*zip.File, error) {
	pres, rels := files["ppt/presentation.xml"], files["ppt/_rels/presentation.xml.rels"]
	if pres == nil || rels == nil {
		return nil, nil
	}

	var ids []string
	err := walkXML(pres, func(e xml.StartElement) {
		if e.Name.Local != "sldId" {
			return
		}
		for _, a := range e.Attr {
			if a.Name.Local == "id" && a.Name.Space != "" {
				ids = append(ids, a.Value)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	targets := make(map[string]string)
	err = walkXML(rels, func(e xml.StartElement) {
		if e.Name.Local == "Relationship" {
			targets[attr(e, "Id")] = attr(e, "Target")
		}
	})
	if err != nil {
		return nil, err
	}

	var out []*zip.File
	for _, id := range ids {
		target, ok := targets[id]
		if !ok {
			continue
		}
		name := strings.TrimPrefix(target, "/")
		if !strings.HasPrefix(target, "/") {
			name = pathpkg.Join("ppt", target)
		}
		if f := files[name]; f != nil {
			out = append(out, f)
		}
	}
	return out, nil
}

// walkXML calls fn for every start element of the part.
func walkXML(f *zip.File, fn func(xml.StartElement)) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: parsing xml: %w", f.Name, err)
		}
		if e, ok := tok.(xml.StartElement); ok {
			fn(e)
		}
	}
}
