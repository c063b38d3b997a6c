package normalize

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ParseError reports malformed delimiter structure in a source payload.
// One bad file fails its own item only; the harvester records and moves on.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Reason)
	}
	return "parse error: " + e.Reason
}

// Table is a parsed delimited payload. Column order matches the input header
// exactly, and every cell is kept as opaque text: the source mixes numeric
// codes with free text in the same columns, so inferred typing would silently
// corrupt values.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ParsePipeDelimited decodes a pipe-delimited payload with a header row.
// A row whose field count differs from the header's is a ParseError.
func ParsePipeDelimited(raw []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = '|'
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, &ParseError{Reason: "empty payload"}
	}
	if err != nil {
		return nil, asParseError(err)
	}

	t := &Table{Columns: header}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, asParseError(err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func asParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Reason: pe.Err.Error()}
	}
	return &ParseError{Reason: err.Error()}
}
