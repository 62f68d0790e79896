package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/garnizeh/worklog/internal/textutil"
)

// candidate delimiters, checked against the first line.
var delimiters = []rune{',', ';', '\t', '|'}

// defaultDelimiter is used when the first line carries no candidate at all.
const defaultDelimiter = ';'

// Table is a parsed CSV file: cleaned header names, one map per surviving
// data row, and the row-level warnings collected along the way.
type Table struct {
	Headers   []string
	Rows      []map[string]string
	Warnings  []string
	Delimiter rune
	Encoding  string
}

// DetectDelimiter counts candidate separators in the first line and picks the
// most frequent one.
func DetectDelimiter(line string) rune {
	best := defaultDelimiter
	bestCount := 0
	for _, d := range delimiters {
		if c := strings.Count(line, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

// ParseCSV decodes, sniffs the delimiter and parses the whole file. Rows
// whose column count does not match the header are skipped with a warning.
// An empty file or unreadable header is a file-level error.
func ParseCSV(data []byte) (*Table, error) {
	decoded, encName := DecodeText(data)

	firstLine := decoded
	if i := bytes.IndexByte(decoded, '\n'); i >= 0 {
		firstLine = decoded[:i]
	}
	delim := DetectDelimiter(string(firstLine))

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: no header row")
		}
		return nil, fmt.Errorf("read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = cleanHeader(h)
	}

	t := &Table{Headers: headers, Delimiter: delim, Encoding: encName}
	headerCount := len(headers)
	rowNum := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			t.Warnings = append(t.Warnings, fmt.Sprintf("row %d: parse error: %v", rowNum, err))
			continue
		}
		if len(row) != headerCount {
			t.Warnings = append(t.Warnings, fmt.Sprintf("row %d: has %d columns, expected %d; skipped", rowNum, len(row), headerCount))
			continue
		}

		record := make(map[string]string, headerCount)
		for i, h := range headers {
			record[h] = CleanCell(row[i])
		}
		t.Rows = append(t.Rows, record)
	}

	return t, nil
}

// cleanHeader strips BOM remnants, whitespace and surrounding quotes from a
// column name.
func cleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	h = strings.Trim(h, `"'`)
	return strings.TrimSpace(h)
}

// CleanCell trims a cell, strips surrounding quote characters and collapses
// internal whitespace and control characters to single spaces.
func CleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `"'`)
	return textutil.CollapseSpaces(v)
}

// pickColumn finds the first record key whose normalized form equals, or
// contains, one of the candidate names, and returns its value.
func pickColumn(rec map[string]string, candidates ...string) (string, bool) {
	for _, cand := range candidates {
		want := textutil.Normalize(cand)
		for k, v := range rec {
			if textutil.Normalize(k) == want {
				return v, true
			}
		}
	}
	for _, cand := range candidates {
		want := textutil.Normalize(cand)
		for k, v := range rec {
			if strings.Contains(textutil.Normalize(k), want) {
				return v, true
			}
		}
	}
	return "", false
}
