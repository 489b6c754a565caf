// Package preprocess turns a raw question into the normalized text sent to the model.
package preprocess

import (
	"strings"
	"unicode"
)

// Normalized is the cleaned form of a question and its whitespace tokens.
type Normalized struct {
	Cleaned string
	Tokens  []string
}

// Normalize lower-cases text, removes everything that is not a letter, digit,
// underscore or whitespace, and splits the rest on whitespace runs.
func Normalize(text string) Normalized {
	text = strings.ToLower(text)

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if keep(r) {
			sb.WriteRune(r)
		}
	}

	tokens := strings.Fields(sb.String())
	if tokens == nil {
		tokens = []string{}
	}
	return Normalized{
		Cleaned: strings.Join(tokens, " "),
		Tokens:  tokens,
	}
}

// Empty reports whether nothing survived cleaning.
func (n Normalized) Empty() bool {
	return len(n.Tokens) == 0
}

func keep(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r)
}
