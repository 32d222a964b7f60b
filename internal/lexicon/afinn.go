package lexicon

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"
)

//go:embed data/afinn.tsv
var afinnData []byte

// AFINN scores text by summing the valence of the words and phrases it
// contains. Valences range from -5 (very negative) to +5 (very positive).
type AFINN struct {
	terms     map[string]float64
	maxPhrase int
}

// NewAFINN loads the embedded lexicon.
func NewAFINN() (*AFINN, error) {
	return LoadAFINN(bytes.NewReader(afinnData))
}

// LoadAFINN reads a lexicon of "<term>\t<integer score>" lines.
// A term may be a phrase; phrases are matched before their single words.
func LoadAFINN(r io.Reader) (*AFINN, error) {
	a := &AFINN{terms: make(map[string]float64), maxPhrase: 1}
	err := readEntries(r, func(term, value string) error {
		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("score %q for %q", value, term)
		}
		a.terms[term] = score
		if n := strings.Count(term, " ") + 1; n > a.maxPhrase {
			a.maxPhrase = n
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load AFINN lexicon: %w", err)
	}
	return a, nil
}

// Len returns the number of terms in the lexicon.
func (a *AFINN) Len() int {
	return len(a.terms)
}

// Score returns the summed valence of text. Empty text scores 0.
//
// At each position the longest matching phrase wins, so "not good" scores
// as the phrase rather than as "good".
func (a *AFINN) Score(text string) float64 {
	tokens := Tokenize(text)
	var total float64
	for i := 0; i < len(tokens); {
		matched := 1
		for n := min(a.maxPhrase, len(tokens)-i); n >= 1; n-- {
			if v, ok := a.terms[strings.Join(tokens[i:i+n], " ")]; ok {
				total += v
				matched = n
				break
			}
		}
		i += matched
	}
	return total
}
