// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import "unicode"

// Counter estimates the number of model tokens in a piece of text.
type Counter func(text string) int

// Per-rune weights in tenths of a token.
const (
	weightCJK   = 6
	weightASCII = 3
	weightOther = 4
)

// EstimateTokens approximates the token count of text without a model
// tokenizer: Japanese and Chinese script counts 0.6 per rune, ASCII 0.3,
// everything else 0.4. The result is rounded up so that any non-empty text
// costs at least one token.
func EstimateTokens(text string) int {
	tenths := 0
	for _, r := range text {
		switch {
		case r < unicode.MaxASCII+1:
			tenths += weightASCII
		case isCJK(r):
			tenths += weightCJK
		default:
			tenths += weightOther
		}
	}
	return (tenths + 9) / 10
}

func isCJK(r rune) bool {
	switch {
	case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana):
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK symbols and punctuation
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // halfwidth and fullwidth forms
		return true
	}
	return false
}
