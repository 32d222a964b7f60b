package lexicon

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedEntry is returned when a lexicon line cannot be parsed.
var ErrMalformedEntry = errors.New("malformed lexicon entry")

// readEntries reads "<term>\t<value>" records. Lines starting with '#' and
// blank lines are ignored. Terms are normalized with Tokenize so lookups
// match tokenized input.
func readEntries(r io.Reader, fn func(term, value string) error) error {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = 2
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEntry, err)
		}
		line, _ := cr.FieldPos(0)

		term := strings.Join(Tokenize(record[0]), " ")
		if term == "" {
			return fmt.Errorf("%w: line %d: empty term", ErrMalformedEntry, line)
		}
		if err := fn(term, strings.TrimSpace(record[1])); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformedEntry, line, err)
		}
	}
}
