package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/schemasense/schemasense-engine/pkg/apperrors"
	"github.com/schemasense/schemasense-engine/pkg/models"
)

// TableData is the column-oriented output of one read: normalized header
// names and one value slice per column, all the same length.
type TableData struct {
	Header   []string
	Columns  [][]string
	RowCount int
	Warnings models.ReadWarnings
}

// TabularReader streams rows using a detected dialect and produces
// column-oriented data.
//
// Malformed-row policy: rows with fewer fields than the header are padded
// with empty cells; rows with more fields are truncated to the header width.
// Both events are counted as warnings and are never fatal.
type TabularReader interface {
	Read(text string, dialect models.Dialect) (*TableData, error)
}

type tabularReader struct {
	logger *zap.Logger
}

// NewTabularReader creates a new tabular reader.
func NewTabularReader(logger *zap.Logger) TabularReader {
	return &tabularReader{logger: logger.Named("reader")}
}

var _ TabularReader = (*tabularReader)(nil)

// Read parses the decoded text into a header and column-oriented values.
func (r *tabularReader) Read(text string, dialect models.Dialect) (*TableData, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = dialect.Separator
	cr.FieldsPerRecord = -1 // row width normalized below
	cr.LazyQuotes = true

	header, err := r.readHeader(cr)
	if err != nil {
		return nil, err
	}

	width := len(header)
	columns := make([][]string, width)
	var warnings models.ReadWarnings
	rows := 0

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// encoding/csv only errors here on unrecoverable input (e.g. bare
			// quotes it cannot resynchronize from even with LazyQuotes).
			return nil, fmt.Errorf("read row %d: %w", rows+1, err)
		}

		if isBlankRecord(record) {
			continue
		}

		switch {
		case len(record) < width:
			warnings.ShortRows++
			padded := make([]string, width)
			copy(padded, record)
			record = padded
		case len(record) > width:
			warnings.LongRows++
			record = record[:width]
		}

		for i := range width {
			columns[i] = append(columns[i], record[i])
		}
		rows++
	}

	if rows == 0 {
		return nil, apperrors.ErrEmptyFile
	}

	if warnings.Total() > 0 {
		r.logger.Warn("Malformed rows normalized",
			zap.Int("short_rows", warnings.ShortRows),
			zap.Int("long_rows", warnings.LongRows))
	}

	return &TableData{
		Header:   header,
		Columns:  columns,
		RowCount: rows,
		Warnings: warnings,
	}, nil
}

// readHeader reads and normalizes the header row: cells are trimmed, blank
// cells become positional placeholders, and duplicates get numeric suffixes.
func (r *tabularReader) readHeader(cr *csv.Reader) ([]string, error) {
	record, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	header := make([]string, len(record))
	for i, cell := range record {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		header[i] = name
	}

	return dedupeNames(header), nil
}

// dedupeNames disambiguates duplicate names with _2, _3, ... suffixes,
// preserving the first occurrence unchanged.
func dedupeNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		seen[name]++
		if seen[name] == 1 {
			out[i] = name
			continue
		}
		candidate := fmt.Sprintf("%s_%d", name, seen[name])
		for seen[candidate] > 0 {
			seen[name]++
			candidate = fmt.Sprintf("%s_%d", name, seen[name])
		}
		seen[candidate]++
		out[i] = candidate
	}
	return out
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
