package fsds

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var referenceHeader = []string{"ordinal", "depth", "concept", "label", "formatted_value", "ddate", "qtrs"}

// WriteReferenceCSV writes a reconstruction as a reference table, the
// format approved reconstructions are saved in and later compared against.
func WriteReferenceCSV(w io.Writer, rows []StatementRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(referenceHeader); err != nil {
		return fmt.Errorf("writing reference header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Ordinal),
			strconv.Itoa(row.Depth),
			row.Concept,
			row.Label,
			row.Formatted,
			row.DDate,
			strconv.Itoa(row.Qtrs),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing reference row %d: %w", row.Ordinal, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadReferenceCSV reads a reference table written by WriteReferenceCSV.
func ReadReferenceCSV(r io.Reader) ([]ReferenceRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(referenceHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading reference table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reference table is empty")
	}

	rows := make([]ReferenceRow, 0, len(records)-1)
	for i, record := range records[1:] {
		ordinal, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("reference row %d: bad ordinal %q", i+1, record[0])
		}
		depth, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("reference row %d: bad depth %q", i+1, record[1])
		}
		qtrs, err := strconv.Atoi(record[6])
		if err != nil {
			return nil, fmt.Errorf("reference row %d: bad qtrs %q", i+1, record[6])
		}
		rows = append(rows, ReferenceRow{
			Ordinal:   ordinal,
			Depth:     depth,
			Concept:   record[2],
			Label:     record[3],
			Formatted: record[4],
			DDate:     record[5],
			Qtrs:      qtrs,
		})
	}
	return rows, nil
}
