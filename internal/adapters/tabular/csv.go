package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/target/balancedesk/internal/domain/model"
)

var candidateDelimiters = []rune{',', ';', '\t'}

const sniffLines = 10

func csvRecords(data []byte) (recordSeq, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &model.ParseError{Format: string(FormatCSV), Reason: "file is not valid UTF-8 text"}
	}
	delim := sniffDelimiter(data)

	return func(yield func(record, error) bool) {
		r := csv.NewReader(bytes.NewReader(data))
		r.Comma = delim
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		for {
			cells, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			var perr *csv.ParseError
			switch {
			case errors.As(err, &perr):
				if !yield(record{line: perr.StartLine, malformed: perr.Err.Error()}, nil) {
					return
				}
				continue
			case err != nil:
				yield(record{}, err)
				return
			}
			line, _ := r.FieldPos(0)
			if !yield(record{line: line, cells: cells}, nil) {
				return
			}
		}
	}, nil
}

// sniffDelimiter picks the candidate that occurs most often outside quotes
// across the first few non-blank lines. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	counts := make(map[rune]int, len(candidateDelimiters))
	seen := 0
	for line := range bytes.Lines(data) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		inQuotes := false
		for _, r := range string(line) {
			switch {
			case r == '"':
				inQuotes = !inQuotes
			case !inQuotes:
				counts[r]++
			}
		}
		seen++
		if seen == sniffLines {
			break
		}
	}
	best := ','
	for _, d := range candidateDelimiters {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}
