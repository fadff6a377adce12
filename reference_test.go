package fsds

import (
	"bytes"
	"strings"
	"testing"
)

func TestReferenceCSVRoundTrip(t *testing.T) {
	ds := loadQuarter(t)

	rows, err := ds.Reconstruct(acmeAccession, "IS", ReconstructOptions{})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteReferenceCSV(&buf, rows); err != nil {
		t.Fatalf("WriteReferenceCSV failed: %v", err)
	}

	ref, err := ReadReferenceCSV(&buf)
	if err != nil {
		t.Fatalf("ReadReferenceCSV failed: %v", err)
	}
	if len(ref) != len(rows) {
		t.Fatalf("read %d rows, want %d", len(ref), len(rows))
	}

	if diff := CompareToReference(rows, ref); diff != nil {
		t.Errorf("round-tripped reference diverges: %s", diff)
	}
}

func TestReadReferenceCSVRejectsGarbage(t *testing.T) {
	if _, err := ReadReferenceCSV(strings.NewReader("")); err == nil {
		t.Error("empty input should fail")
	}

	const badOrdinal = "ordinal,depth,concept,label,formatted_value,ddate,qtrs\nx,0,Assets,Total assets,100,20231231,0\n"
	if _, err := ReadReferenceCSV(strings.NewReader(badOrdinal)); err == nil {
		t.Error("non-numeric ordinal should fail")
	}

	const wrongWidth = "ordinal,depth,concept\n0,0,Assets\n"
	if _, err := ReadReferenceCSV(strings.NewReader(wrongWidth)); err == nil {
		t.Error("wrong column count should fail")
	}
}
