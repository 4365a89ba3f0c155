package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is one prospect from the input CSV
type Row struct {
	Domain   string
	Company  string
	Vertical string
	// Line is the 1-based CSV line the row came from
	Line int
}

var columns = []string{"domain", "company", "vertical"}

// ReadCSVFile reads prospects from path
func ReadCSVFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads prospects with columns domain, company, vertical. A header row
// naming those columns may reorder them; without one the columns are
// positional. Rows with a blank domain are skipped.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	index := map[string]int{"domain": 0, "company": 1, "vertical": 2}
	var rows []Row
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if header, ok := parseHeader(record); ok {
				index = header
				continue
			}
		}

		row := Row{
			Domain:   field(record, index["domain"]),
			Company:  field(record, index["company"]),
			Vertical: field(record, index["vertical"]),
			Line:     line,
		}
		if row.Domain == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseHeader maps column names to positions when record is a header row
func parseHeader(record []string) (map[string]int, bool) {
	index := map[string]int{"domain": -1, "company": -1, "vertical": -1}
	for i, name := range record {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := index[name]; ok {
			index[name] = i
		}
	}
	if index["domain"] < 0 {
		return nil, false
	}
	for _, c := range columns {
		if index[c] < 0 {
			index[c] = len(record) + 1
		}
	}
	return index, true
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
