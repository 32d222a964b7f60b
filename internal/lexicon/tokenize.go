package lexicon

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// apostrophes maps typographic apostrophes to ASCII so that "don’t" and
// "don't" tokenize the same way.
var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Tokenize splits text into lowercase word tokens.
//
// Text is NFKC-normalized and case-folded first. A token is a run of
// letters and digits; an apostrophe is kept only between two word runes,
// so "can't" is one token and "'quoted'" yields "quoted".
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	s := norm.NFKC.String(text)
	s = apostrophes.Replace(s)
	s = cases.Fold().String(s)

	runes := []rune(s)
	var tokens []string
	var b strings.Builder
	for i, r := range runes {
		switch {
		case isWordRune(r):
			b.WriteRune(r)
		case r == '\'' && b.Len() > 0 && i+1 < len(runes) && isWordRune(runes[i+1]):
			b.WriteRune(r)
		default:
			if b.Len() > 0 {
				tokens = append(tokens, b.String())
				b.Reset()
			}
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
