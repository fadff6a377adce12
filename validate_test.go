package fsds

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestValidateFullCoverage(t *testing.T) {
	ds := loadQuarter(t)

	report, err := ds.Validate(acmeAccession, "BS")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if report.Rows != 7 {
		t.Errorf("Rows = %d, want 7", report.Rows)
	}
	if report.NonAbstract != 6 {
		t.Errorf("NonAbstract = %d, want 6", report.NonAbstract)
	}
	if report.Resolved != 6 {
		t.Errorf("Resolved = %d, want 6", report.Resolved)
	}
	if report.CoverageRatio != 1.0 {
		t.Errorf("CoverageRatio = %v, want 1.0", report.CoverageRatio)
	}
	if len(report.MissingConcepts) != 0 {
		t.Errorf("MissingConcepts = %v, want none", report.MissingConcepts)
	}

	// Assets and LiabilitiesAndStockholdersEquity both act as subtotals
	// of their children, and the fixture adds up.
	if len(report.SubtotalChecks) != 2 {
		t.Fatalf("SubtotalChecks = %d, want 2", len(report.SubtotalChecks))
	}
	for _, check := range report.SubtotalChecks {
		if !check.Passed {
			t.Errorf("subtotal %s failed: expected %v, actual %v", check.Concept, check.Expected, check.Actual)
		}
	}
	if report.SubtotalWarnings() != 0 {
		t.Errorf("SubtotalWarnings = %d, want 0", report.SubtotalWarnings())
	}
}

func TestValidatePartialCoverage(t *testing.T) {
	// Ten line items, facts for seven: coverage ratio 0.7.
	var pre strings.Builder
	pre.WriteString("adsh\treport\tline\tstmt\tinpth\trfile\ttag\tversion\tprole\tplabel\tnegating\n")
	var num strings.Builder
	num.WriteString("adsh\ttag\tversion\tddate\tqtrs\tuom\tsegments\tcoreg\tvalue\tfootnote\tdecimals\n")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&pre, "0001111111-24-000001\t1\t%d\tBS\t0\tH\tLineItem%d\tus-gaap/2023\ttotalLabel\tLine item %d\t0\n", i, i, i)
		if i <= 7 {
			fmt.Fprintf(&num, "0001111111-24-000001\tLineItem%d\tus-gaap/2023\t20231231\t0\tUSD\t\t\t%d000\t\t-3\n", i, i)
		}
	}

	ds := datasetFromStrings(t, num.String(), pre.String())
	report, err := ds.Validate("0001111111-24-000001", "BS")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if report.NonAbstract != 10 || report.Resolved != 7 {
		t.Fatalf("resolved %d of %d, want 7 of 10", report.Resolved, report.NonAbstract)
	}
	if report.CoverageRatio != 0.7 {
		t.Errorf("CoverageRatio = %v, want 0.7", report.CoverageRatio)
	}
	if len(report.MissingConcepts) != 3 {
		t.Errorf("MissingConcepts = %v, want 3 entries", report.MissingConcepts)
	}
}

func TestCompareToReferenceExactAndDiff(t *testing.T) {
	ds := loadQuarter(t)

	rows, err := ds.Reconstruct(acmeAccession, "BS", ReconstructOptions{})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	ref := make([]ReferenceRow, len(rows))
	for i, row := range rows {
		ref[i] = ReferenceRow{
			Ordinal:   row.Ordinal,
			Depth:     row.Depth,
			Concept:   row.Concept,
			Label:     row.Label,
			Formatted: row.Formatted,
			DDate:     row.DDate,
			Qtrs:      row.Qtrs,
		}
	}

	if diff := CompareToReference(rows, ref); diff != nil {
		t.Fatalf("identical tables should match, got %s", diff)
	}

	// Corrupt the third value: the diff must name index 2.
	ref[2].Formatted = "735,000"
	diff := CompareToReference(rows, ref)
	if diff == nil {
		t.Fatal("expected a diff after corrupting the reference")
	}
	if diff.Index != 2 {
		t.Errorf("diff index = %d, want 2", diff.Index)
	}
	if diff.Field != "formatted value" {
		t.Errorf("diff field = %q, want %q", diff.Field, "formatted value")
	}
	if diff.Want != "735,000" {
		t.Errorf("diff want = %q, want %q", diff.Want, "735,000")
	}

	// A truncated reference is a row-count diff at the first absent index.
	diff = CompareToReference(rows, ref[:len(ref)-1])
	if diff == nil || diff.Field == "" {
		t.Fatal("expected a diff for mismatched row counts")
	}
}

func TestValidateFiling(t *testing.T) {
	ds := loadQuarter(t)

	report := ds.ValidateFiling(betaAccession, nil)
	if report.Err != "" {
		t.Fatalf("unexpected filing error: %s", report.Err)
	}

	// Beta's balance sheet is cyclic; its income statement is fine.
	foundBS := false
	for _, role := range report.StructuralFailures {
		if role == "BS" {
			foundBS = true
		}
	}
	if !foundBS {
		t.Errorf("BS missing from structural failures: %v", report.StructuralFailures)
	}

	is, ok := report.Statements["IS"]
	if !ok {
		t.Fatal("IS report missing")
	}
	if is.CoverageRatio != 1.0 {
		t.Errorf("Beta IS coverage = %v, want 1.0", is.CoverageRatio)
	}
}

func TestValidateBatch(t *testing.T) {
	ds := loadQuarter(t)

	batch, err := ds.ValidateBatch(context.Background(), []string{acmeAccession, betaAccession}, nil, 2)
	if err != nil {
		t.Fatalf("ValidateBatch failed: %v", err)
	}
	if batch.Count != 2 || len(batch.Reports) != 2 {
		t.Fatalf("expected reports for both filings, got %d", len(batch.Reports))
	}

	// One filing failing structurally must not stop the other.
	acme := batch.Reports[acmeAccession]
	if acme == nil {
		t.Fatal("Acme report missing")
	}
	if len(acme.Statements) != 4 {
		t.Errorf("Acme validated %d statements, want 4", len(acme.Statements))
	}

	card := batch.Scorecard()
	if card.Filings != 2 {
		t.Errorf("Filings = %d, want 2", card.Filings)
	}
	if card.StatementsChecked != 5 {
		t.Errorf("StatementsChecked = %d, want 5", card.StatementsChecked)
	}
	if card.AvgCoverage != 1.0 || card.MinCoverage != 1.0 {
		t.Errorf("coverage avg %v min %v, want 1.0 both", card.AvgCoverage, card.MinCoverage)
	}
	if card.StructuralFailures != 5 {
		t.Errorf("StructuralFailures = %d, want 5", card.StructuralFailures)
	}
	if card.SubtotalWarnings != 0 {
		t.Errorf("SubtotalWarnings = %d, want 0", card.SubtotalWarnings)
	}

	bs := card.PerRole["BS"]
	if bs.Checked != 1 || bs.Passed != 1 {
		t.Errorf("BS health = %+v, want 1 checked 1 passed", bs)
	}
}

func TestValidateBatchCancelled(t *testing.T) {
	ds := loadQuarter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ds.ValidateBatch(ctx, []string{acmeAccession}, nil, 1); err == nil {
		t.Error("expected error from cancelled context")
	}
}
