// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generic

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/doc2md/internal/markdown"
)

// extractPDF returns one section per page. Each page body starts with a
// <!-- page N --> marker so page boundaries survive rendering.
func extractPDF(path string) (*markdown.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	pctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("reading pdf %s: %w", path, err)
	}

	doc := &markdown.Document{}
	found := false
	for page := 1; page <= pctx.PageCount; page++ {
		r, err := pdfcpu.ExtractPageContent(pctx, page)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading page %d of %s: %w", page, path, err)
		}
		text := contentText(data)
		if text != "" {
			found = true
		}
		doc.Sections = append(doc.Sections, markdown.Section{
			Body: "<!-- page " + strconv.Itoa(page) + " -->\n\n" + text,
		})
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", path, ErrNoContent)
	}
	return doc, nil
}

// contentText pulls the shown strings out of a page content stream. Text
// operators Tj, TJ, ' and " emit their string operands; T*, ET and vertical
// Td/TD moves start a new line.
func contentText(data []byte) string {
	var out strings.Builder
	var strs []string
	var nums []float64
	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isPDFSpace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			s, n := literalString(data[i:])
			strs = append(strs, s)
			i += n
		case (c == '<' || c == '>') && i+1 < len(data) && data[i+1] == c:
			i += 2
		case c == '<':
			s, n := hexString(data[i:])
			strs = append(strs, s)
			i += n
		case c == '[' || c == ']' || c == '<' || c == '>' || c == '{' || c == '}':
			i++
		case c == '/':
			i++
			for i < len(data) && !isPDFSpace(data[i]) && !isPDFDelim(data[i]) {
				i++
			}
		default:
			start := i
			for i < len(data) && !isPDFSpace(data[i]) && !isPDFDelim(data[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			tok := string(data[start:i])
			if f, err := strconv.ParseFloat(tok, 64); err == nil {
				nums = append(nums, f)
				continue
			}
			switch tok {
			case "Tj", "TJ":
				out.WriteString(strings.Join(strs, ""))
			case "'", `"`:
				newline()
				out.WriteString(strings.Join(strs, ""))
			case "T*", "ET":
				newline()
			case "Td", "TD":
				if len(nums) >= 2 && nums[len(nums)-1] != 0 {
					newline()
				} else if out.Len() > 0 {
					out.WriteByte(' ')
				}
			}
			strs, nums = strs[:0], nums[:0]
		}
	}
	return cleanLines(strings.ToValidUTF8(out.String(), ""))
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

// literalString decodes a (...) string with nested parentheses and
// escapes. It returns the text and the number of bytes consumed.
func literalString(data []byte) (string, int) {
	var b strings.Builder
	depth := 0
	i := 0
	for ; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '\\' && i+1 < len(data):
			i++
			switch e := data[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 'r', 'b', 'f':
			case 't':
				b.WriteByte(' ')
			case '\n', '\r':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '7'; k++ {
						i++
						v = v*8 + int(data[i]-'0')
					}
					b.WriteByte(byte(v))
				} else {
					b.WriteByte(e)
				}
			}
		case c == '(':
			if depth > 0 {
				b.WriteByte(c)
			}
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), i
}

// hexString decodes a <...> string, keeping printable ASCII only. Glyph ids
// of CID fonts carry no text without the font's ToUnicode map.
func hexString(data []byte) (string, int) {
	end := 1
	for end < len(data) && data[end] != '>' {
		end++
	}
	var digits []byte
	for _, c := range data[1:min(end, len(data))] {
		if !isPDFSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	var b strings.Builder
	for k := 0; k+1 < len(digits); k += 2 {
		v, err := strconv.ParseUint(string(digits[k:k+2]), 16, 8)
		if err != nil {
			return "", end + 1
		}
		if v >= 0x20 && v < 0x7f {
			b.WriteByte(byte(v))
		}
	}
	return b.String(), end + 1
}

// cleanLines collapses runs of spaces and drops blank lines.
func cleanLines(s string) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}
