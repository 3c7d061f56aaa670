package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Columns required in the CSV header, in no particular order. Extra columns
// are ignored.
var requiredColumns = []string{
	"ID",
	"Project Key",
	"Summary",
	"Description",
	"Issue Type",
	"Subtask Summary",
	"Subtask Description",
}

// ReadFile reads and validates every row of the named CSV file.
//
// All row errors are collected and returned joined together, so a caller can
// report every bad line in one pass. A non-nil error means the rows must not
// be uploaded.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read reads and validates CSV rows from r. The first record must be the
// header.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // short rows read as empty cells

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	var rowErrs []error
	line := 1 // header consumed

	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: %w", line, err))
			continue
		}

		row, err := NewRow(line,
			cell(fields, index["ID"]),
			cell(fields, index["Project Key"]),
			cell(fields, index["Summary"]),
			cell(fields, index["Description"]),
			cell(fields, index["Issue Type"]),
			cell(fields, index["Subtask Summary"]),
			cell(fields, index["Subtask Description"]),
		)
		if err != nil {
			rowErrs = append(rowErrs, err)
			continue
		}
		rows = append(rows, row)
	}

	if len(rowErrs) > 0 {
		return nil, errors.Join(rowErrs...)
	}
	return rows, nil
}

// columnIndex maps each required column name to its position in the header.
// A required column that appears more than once is rejected; silently
// picking one occurrence would read the wrong cells.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		seen[name]++
		index[name] = i
	}

	var missing, duplicated []string
	for _, name := range requiredColumns {
		switch {
		case seen[name] == 0:
			missing = append(missing, name)
		case seen[name] > 1:
			duplicated = append(duplicated, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv header is missing required columns: %s", strings.Join(missing, ", "))
	}
	if len(duplicated) > 0 {
		return nil, fmt.Errorf("csv header has duplicate columns: %s", strings.Join(duplicated, ", "))
	}

	return index, nil
}

func cell(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}
