// Package textstat derives character and word counts from synthesis input text.
package textstat

import (
	"strings"
	"unicode/utf8"
)

// Analyze returns the rune count and whitespace-delimited word count of text.
// Empty input yields (0, 0).
func Analyze(text string) (chars, words int) {
	return utf8.RuneCountInString(text), len(strings.Fields(text))
}
