package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"berthplan/internal/berth"
)

var requiredColumns = []string{ColVessel, ColBerth, ColStart, ColEnd}

// ReadFile reads a schedule CSV from path.
func ReadFile(path string) ([]berth.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// Read parses CSV with a header row into raw rows. Headers are matched
// case-insensitively against canonical names and known aliases; unknown
// columns are ignored. Values are passed through uncoerced except that a
// BP column of the form "110 ( F: 1, E: 142)" fills missing F/E positions.
func Read(r io.Reader) ([]berth.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty CSV: no header row")
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	columnMap := make(map[int]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, col := range header {
		name, ok := canonicalColumn(col)
		if !ok || seen[name] {
			continue
		}
		columnMap[i] = name
		seen[name] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required columns %v not found in CSV. Available columns: %v", missing, header)
	}

	var rows []berth.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}

		row := berth.Row{Line: line}
		for i, value := range record {
			if col, ok := columnMap[i]; ok {
				setField(&row, col, strings.TrimSpace(value))
			}
		}
		expandBP(&row)
		rows = append(rows, row)
	}
	return rows, nil
}

func expandBP(row *berth.Row) {
	bp, ok := ParseBP(row.BP)
	if !ok {
		return
	}
	row.BP = formatMeters(bp.Bollard)
	if bp.HasFE && row.FPos == "" && row.EPos == "" {
		row.FPos = formatMeters(bp.F)
		row.EPos = formatMeters(bp.E)
	}
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
