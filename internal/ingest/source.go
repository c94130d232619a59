package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is a raw tabular source: a header row and string cells
type Table struct {
	Header  []string
	Records [][]string
	// Malformed lists the source lines of records that could not be tokenised
	Malformed []int
}

// TableSource produces a raw table for ingestion
type TableSource interface {
	ReadTable(ctx context.Context) (*Table, error)
}

// CSVSource reads a comma separated file with a header row
type CSVSource struct {
	r     io.Reader
	comma rune
}

// NewCSVSource creates a CSV source reading from r
func NewCSVSource(r io.Reader) *CSVSource {
	return &CSVSource{r: r, comma: ','}
}

// WithComma changes the field delimiter
func (s *CSVSource) WithComma(comma rune) *CSVSource {
	s.comma = comma
	return s
}

// ReadTable parses the whole file. Short rows are kept; missing cells read as empty.
// A record with broken quoting is skipped and its line recorded in Table.Malformed.
func (s *CSVSource) ReadTable(ctx context.Context) (*Table, error) {
	reader := csv.NewReader(s.r)
	reader.Comma = s.comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv header: empty input")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := &Table{Header: header}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			table.Malformed = append(table.Malformed, parseErr.StartLine)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}

// Fetcher downloads a remote document
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// URLSource downloads a CSV document and parses it like CSVSource
type URLSource struct {
	fetcher Fetcher
	url     string
}

// NewURLSource creates a source reading url through fetcher
func NewURLSource(fetcher Fetcher, url string) *URLSource {
	return &URLSource{fetcher: fetcher, url: url}
}

// ReadTable fetches and parses the document
func (s *URLSource) ReadTable(ctx context.Context) (*Table, error) {
	body, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	return NewCSVSource(bytes.NewReader(body)).ReadTable(ctx)
}

// StaticSource serves an in-memory table
type StaticSource struct {
	Table *Table
}

// ReadTable returns the wrapped table
func (s StaticSource) ReadTable(_ context.Context) (*Table, error) {
	if s.Table == nil {
		return nil, fmt.Errorf("static source has no table")
	}
	return s.Table, nil
}
