package fsds

import (
	"encoding/csv"
	"fmt"
	"io"
)

// tsvTable is a loaded tab-delimited file: a header-indexed column map
// plus the raw data records. The SEC financial statement data sets are
// tab-delimited with a header row and no quoting discipline, so the
// reader runs with LazyQuotes and tolerates ragged records.
type tsvTable struct {
	cols map[string]int
	rows [][]string
}

func readTSV(r io.Reader) (*tsvTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		rows = append(rows, record)
	}

	return &tsvTable{cols: cols, rows: rows}, nil
}

// field returns the named column of a record, or "" if the column is
// absent from this vintage of the file or the record is short.
func (t *tsvTable) field(record []string, name string) string {
	idx, ok := t.cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// hasColumn reports whether the file carries the named column at all.
func (t *tsvTable) hasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}
